package pipeline

import (
	"context"

	"flickrgeo/pkg/config"
	"flickrgeo/pkg/crawler"
	"flickrgeo/pkg/flickr"
)

// Verifier checks that the API accepts the configured credentials
type Verifier interface {
	Echo(ctx context.Context) error
}

// FlickrSource adapts a flickr.Client to the crawler's Searcher and
// Locator. The place, accuracy and page size sent with every search come
// from the search settings.
type FlickrSource struct {
	client *flickr.Client
	search config.SearchConfig
}

// NewFlickrSource wraps client with the given search constraints
func NewFlickrSource(client *flickr.Client, search config.SearchConfig) *FlickrSource {
	return &FlickrSource{client: client, search: search}
}

// Search implements crawler.Searcher
func (s *FlickrSource) Search(ctx context.Context, q crawler.Query) (crawler.Page, error) {
	result, err := s.client.Search(ctx, flickr.SearchParams{
		MinTaken: q.Window.Start(),
		MaxTaken: q.Window.End(),
		PlaceID:  s.search.PlaceID,
		Accuracy: s.search.Accuracy,
		PerPage:  s.search.PerPage,
		Page:     q.Page,
	})
	if err != nil {
		return crawler.Page{}, err
	}

	photos := make([]crawler.Photo, 0, len(result.Photos))
	for _, p := range result.Photos {
		photos = append(photos, crawler.Photo{ID: p.ID, URL: p.URL()})
	}

	return crawler.Page{
		Photos: photos,
		Total:  int(result.Total),
		Pages:  int(result.Pages),
	}, nil
}

// GetLocation implements crawler.Locator
func (s *FlickrSource) GetLocation(ctx context.Context, photoID string) (crawler.Location, error) {
	loc, err := s.client.GetLocation(ctx, photoID)
	if err != nil {
		return crawler.Location{}, err
	}
	return crawler.Location{
		Latitude:  float64(loc.Latitude),
		Longitude: float64(loc.Longitude),
	}, nil
}

// Echo implements Verifier
func (s *FlickrSource) Echo(ctx context.Context) error {
	return s.client.Echo(ctx)
}
