// Package ratelimit paces outbound requests to the Flickr API.
//
// Flickr throttles keys that exceed roughly one call per second, so every
// call made by the crawler goes through an Interval limiter: after a request
// finishes, the next one may only start once the configured interval has
// elapsed. The delay applies after successes and failures alike.
//
// Usage:
//
//	limiter := ratelimit.NewInterval(ratelimit.DefaultInterval)
//
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
//	resp, err := client.Search(ctx, params)
//	limiter.Done()
//
// Tests drive the limiter with a ManualClock, which advances instantly and
// records each requested sleep.
package ratelimit
