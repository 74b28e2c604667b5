package crawler

import "context"

// Query asks for one page of photos taken within Window. Pages are 1-indexed.
type Query struct {
	Window TimeWindow
	Page   int
}

// Photo is a search hit reduced to what the crawl keeps
type Photo struct {
	ID  string
	URL string
}

// Page is one page of search results. Total and Pages describe the whole
// result set of the query's window, not just this page.
type Page struct {
	Photos []Photo
	Total  int
	Pages  int
}

// Location is a photo's coordinates in decimal degrees
type Location struct {
	Latitude  float64
	Longitude float64
}

// Searcher lists photos in a time window
type Searcher interface {
	Search(ctx context.Context, q Query) (Page, error)
}

// Locator looks up a photo's coordinates
type Locator interface {
	GetLocation(ctx context.Context, photoID string) (Location, error)
}

// Recorder receives crawl events for metrics
type Recorder interface {
	Request(phase, outcome string)
	SegmentSplit()
	Duplicate()
	Discovered()
	Enriched(outcome string)
}

// Phases and outcomes reported to a Recorder
const (
	PhaseSearch = "search"
	PhaseGeo    = "geo"

	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

type nopRecorder struct{}

func (nopRecorder) Request(phase, outcome string) {}
func (nopRecorder) SegmentSplit()                 {}
func (nopRecorder) Duplicate()                    {}
func (nopRecorder) Discovered()                   {}
func (nopRecorder) Enriched(outcome string)       {}
