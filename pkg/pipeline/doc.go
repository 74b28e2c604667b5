// Package pipeline runs one crawl from start to finish.
//
// A run checks the API key, discovers every photo in the requested window,
// optionally shuffles the records, looks up coordinates for each one and
// writes the id,x,y,url rows to the configured output. Both API phases
// share a single limiter, so the pacing holds across the phase boundary.
//
// Usage:
//
//	p, err := pipeline.New(cfg, pipeline.Deps{})
//	if err != nil {
//	    return err
//	}
//	window, err := pipeline.ParseWindow(start, end, loc)
//	if err != nil {
//	    return err
//	}
//	summary, err := p.Run(ctx, window)
//
// With empty Deps the pipeline talks to the Flickr REST API described by
// cfg.Flickr on the system clock. Tests inject a fake Searcher/Locator and
// a ratelimit.ManualClock instead.
package pipeline
