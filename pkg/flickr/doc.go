// Package flickr provides a client for the Flickr REST API.
//
// Only the three methods the crawler needs are wrapped:
//   - flickr.photos.search, bounded by taken date, place and accuracy
//   - flickr.photos.geo.getLocation, for a photo's coordinates
//   - flickr.test.echo, to confirm the API key before a run starts
//
// Every response is requested as raw JSON. Failures come back as
// *errors.Error values, typed by HTTP status or by the Flickr error code of
// a stat=fail body:
//
//	client := flickr.NewClient(&cfg.Flickr, log)
//	result, err := client.Search(ctx, flickr.SearchParams{
//	    MinTaken: start,
//	    MaxTaken: end,
//	    PlaceID:  cfg.Search.PlaceID,
//	    Accuracy: cfg.Search.Accuracy,
//	    PerPage:  cfg.Search.PerPage,
//	    Page:     1,
//	})
//	if errors.IsAuth(err) {
//	    // the key was rejected
//	}
//
// The client does no pacing or retrying of its own; callers wrap it in the
// crawler's paced request primitive.
package flickr
