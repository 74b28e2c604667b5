// Package retry provides retry logic for transient failures in Flickr API calls.
//
// The crawler uses two policies:
//   - Search pages are retried without limit after a constant delay, because
//     a missing page would leave a hole in the result set
//   - Geodata lookups get a fixed number of attempts (one by default); a
//     record whose lookup keeps failing is simply left without coordinates
//
// Basic usage:
//
//	// Retry a page until it succeeds or ctx is cancelled
//	cfg := retry.Forever(0)
//	cfg.Context = ctx
//	page, err := retry.DoWithResult(func() (flickr.SearchResult, error) {
//		return client.Search(ctx, params)
//	}, cfg)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 2,
//		Backoff:     &retry.ConstantBackoff{Delay: time.Second},
//		RetryIf:     retry.DefaultRetryIf,
//		Logger:      logger.GetLogger(),
//	}
//	err := retry.Do(operation, cfg)
//
// Pacing between attempts is the job of package ratelimit; the backoff here
// is extra delay on top of it.
package retry
