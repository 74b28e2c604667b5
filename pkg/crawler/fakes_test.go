package crawler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"flickrgeo/pkg/logger"
	"flickrgeo/pkg/ratelimit"
)

var epoch = time.Date(2016, 3, 1, 0, 0, 0, 0, time.UTC)

const testInterval = 1010 * time.Millisecond

// span is the simulated start and end of one API call
type span struct {
	start time.Time
	end   time.Time
}

// timeline records every call made by the fakes, across both phases
type timeline struct {
	mu    sync.Mutex
	spans []span
}

func (tl *timeline) record(clock *ratelimit.ManualClock, latency time.Duration) {
	start := clock.Now()
	clock.Advance(latency)
	tl.mu.Lock()
	tl.spans = append(tl.spans, span{start: start, end: clock.Now()})
	tl.mu.Unlock()
}

// gaps returns the idle time before each call after the first
func (tl *timeline) gaps() []time.Duration {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	var out []time.Duration
	for i := 1; i < len(tl.spans); i++ {
		out = append(out, tl.spans[i].start.Sub(tl.spans[i-1].end))
	}
	return out
}

type harness struct {
	clock    *ratelimit.ManualClock
	limiter  *ratelimit.Interval
	timeline *timeline
	log      *logger.TestLogger
}

func newHarness() *harness {
	clock := ratelimit.NewManualClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return &harness{
		clock:    clock,
		limiter:  ratelimit.NewIntervalWithClock(testInterval, clock),
		timeline: &timeline{},
		log:      logger.NewTestLogger(),
	}
}

func (h *harness) partitioner(s Searcher, cfg PartitionerConfig) *Partitioner {
	return NewPartitioner(s, h.limiter, h.clock, cfg, h.log)
}

func (h *harness) enricher(l Locator, cfg EnricherConfig) *Enricher {
	return NewEnricher(l, h.limiter, h.clock, cfg, h.log)
}

// takenPhoto is a synthetic photo with a capture time
type takenPhoto struct {
	id    string
	taken time.Time
}

type searchCall struct {
	query Query
	total int
}

// fakeSearcher serves search pages from a synthetic set of photos. Windows
// are matched inclusively at both ends, like the real API.
type fakeSearcher struct {
	h        *harness
	photos   []takenPhoto
	perPage  int
	latency  time.Duration
	failures int // fail this many calls before answering
	// respond replaces the dataset lookup when set
	respond func(q Query) (Page, error)
	// onCall runs before each call
	onCall func(n int)

	calls []searchCall
}

func (f *fakeSearcher) Search(ctx context.Context, q Query) (Page, error) {
	f.h.timeline.record(f.h.clock, f.latency)
	if f.onCall != nil {
		f.onCall(len(f.calls))
	}
	if f.failures > 0 {
		f.failures--
		f.calls = append(f.calls, searchCall{query: q, total: -1})
		return Page{}, fmt.Errorf("upstream timeout")
	}
	if f.respond != nil {
		page, err := f.respond(q)
		f.calls = append(f.calls, searchCall{query: q, total: page.Total})
		return page, err
	}

	var in []takenPhoto
	for _, p := range f.photos {
		if !p.taken.Before(q.Window.Start()) && !p.taken.After(q.Window.End()) {
			in = append(in, p)
		}
	}
	sort.SliceStable(in, func(i, j int) bool { return in[i].taken.Before(in[j].taken) })

	perPage := f.perPage
	if perPage <= 0 {
		perPage = 200
	}
	pages := (len(in) + perPage - 1) / perPage
	page := Page{Total: len(in), Pages: pages}
	from := (q.Page - 1) * perPage
	for i := from; i < from+perPage && i < len(in); i++ {
		page.Photos = append(page.Photos, Photo{ID: in[i].id, URL: "https://example.test/" + in[i].id + ".jpg"})
	}

	f.calls = append(f.calls, searchCall{query: q, total: page.Total})
	return page, nil
}

// fakeLocator answers lookups from a table; unknown ids fail
type fakeLocator struct {
	h         *harness
	latency   time.Duration
	locations map[string]Location
	failOnce  map[string]bool
	calls     []string
}

func (f *fakeLocator) GetLocation(ctx context.Context, photoID string) (Location, error) {
	f.h.timeline.record(f.h.clock, f.latency)
	f.calls = append(f.calls, photoID)
	if f.failOnce[photoID] {
		delete(f.failOnce, photoID)
		return Location{}, fmt.Errorf("temporary failure for %s", photoID)
	}
	loc, ok := f.locations[photoID]
	if !ok {
		return Location{}, fmt.Errorf("photo %s has no location information", photoID)
	}
	return loc, nil
}

func mustWindow(start, end time.Time) TimeWindow {
	w, err := NewTimeWindow(start, end)
	if err != nil {
		panic(err)
	}
	return w
}

// windowKey identifies a window at full precision
func windowKey(w TimeWindow) string {
	return fmt.Sprintf("%d-%d", w.Start().UnixNano(), w.End().UnixNano())
}
