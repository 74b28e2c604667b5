package crawler

import (
	"context"
	"fmt"
	"time"

	"flickrgeo/pkg/logger"
	"flickrgeo/pkg/models"
	"flickrgeo/pkg/ratelimit"
)

const (
	// DefaultMaxResults is the largest total a single query may report
	// before its window is split. Flickr stops returning distinct results
	// past roughly 4000 hits per query.
	DefaultMaxResults = 4000

	// DefaultMinSegment is the shortest window that may still be split.
	// Taken dates have one second resolution.
	DefaultMinSegment = time.Second
)

// PartitionerConfig holds the partitioning limits
type PartitionerConfig struct {
	MaxResults int
	MinSegment time.Duration
	// RetryDelay is added on top of the limiter's pacing before a retry
	RetryDelay time.Duration
}

// Discovery is the outcome of the search phase
type Discovery struct {
	// Records in discovery order, one per distinct photo id, no coordinates
	Records []models.Record
	// Duplicates counts photos whose id had already been seen
	Duplicates int
	// Leaves are the segments that were consumed rather than split
	Leaves []TimeWindow
	// Splits counts bisected segments
	Splits int
	// Requests counts every search call made, retries included
	Requests int
	// Retries counts failed search calls
	Retries int
}

// Partitioner discovers every photo in a window by paging through it,
// bisecting any segment whose first page reports more than MaxResults.
type Partitioner struct {
	searcher Searcher
	req      *requester
	cfg      PartitionerConfig
	logger   logger.Logger
}

// NewPartitioner creates a partitioner. Every search it makes goes through
// limiter, which suspends on clock.
func NewPartitioner(searcher Searcher, limiter ratelimit.Limiter, clock ratelimit.Clock, cfg PartitionerConfig, log logger.Logger) *Partitioner {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.MinSegment < 0 {
		cfg.MinSegment = 0
	}
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("phase", PhaseSearch)

	return &Partitioner{
		searcher: searcher,
		req: &requester{
			limiter:  limiter,
			clock:    clock,
			logger:   log,
			recorder: nopRecorder{},
		},
		cfg:    cfg,
		logger: log,
	}
}

// SetRecorder routes crawl events to r
func (p *Partitioner) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	p.req.recorder = r
}

// crawlState is the mutable state of one Discover call
type crawlState struct {
	queue *SegmentQueue
	page  int
	seen  map[string]struct{}
	out   *Discovery
}

// Discover runs the search phase over root. Search errors are retried
// without limit, so the only error returned is ctx's; the records found so
// far are returned with it.
func (p *Partitioner) Discover(ctx context.Context, root TimeWindow) (*Discovery, error) {
	state := &crawlState{
		queue: NewSegmentQueue(root),
		page:  1,
		seen:  make(map[string]struct{}),
		out:   &Discovery{},
	}

	for !state.queue.Done() {
		segment, _ := state.queue.Current()

		if state.page == 1 {
			p.logger.Info(fmt.Sprintf("Checking the date/time range: %s", segment))
		}

		page, err := p.fetch(ctx, state, segment)
		if err != nil {
			return state.out, err
		}

		if state.page == 1 && page.Total > p.cfg.MaxResults {
			if segment.Duration() > p.cfg.MinSegment {
				p.split(state, segment, page.Total)
				continue
			}
			p.logger.WithFields(map[string]interface{}{
				"total":       page.Total,
				"max_results": p.cfg.MaxResults,
			}).Warn(fmt.Sprintf("Date/time range %s is too short to split - some photos may be missing", segment))
		}

		if state.page == 1 {
			p.logger.Info(fmt.Sprintf("Processing ~%d photos in the date/time range: %s", page.Total, segment))
		}

		p.consume(state, page.Photos)
		p.logger.Info(fmt.Sprintf("Found photo data for page #%d of %d", state.page, page.Pages))
		logger.LogProgress(p.logger, PhaseSearch, state.queue.Len()-state.queue.Remaining(), state.queue.Len())

		state.page++
		if state.page > page.Pages {
			state.out.Leaves = append(state.out.Leaves, segment)
			state.queue.Advance()
			state.page = 1
		}
	}

	return state.out, nil
}

// fetch requests the current page of segment, retrying until it succeeds
func (p *Partitioner) fetch(ctx context.Context, state *crawlState, segment TimeWindow) (Page, error) {
	var result Page
	query := Query{Window: segment, Page: state.page}

	attempts, err := p.req.do(ctx, policy{
		phase:       PhaseSearch,
		maxAttempts: 0,
		retryDelay:  p.cfg.RetryDelay,
		onRetry: func(attempt int, err error) {
			p.logger.WithError(err).WithField("attempt", attempt).Warn("ERROR from Flickr API")
			p.logger.Info("Attempting to retry...")
		},
	}, func(ctx context.Context) error {
		page, err := p.searcher.Search(ctx, query)
		if err != nil {
			return err
		}
		result = page
		return nil
	})

	state.out.Requests += attempts
	if attempts > 1 {
		state.out.Retries += attempts - 1
	}
	if err != nil {
		return Page{}, err
	}
	return result, nil
}

// split bisects segment and queues both halves behind every pending segment
func (p *Partitioner) split(state *crawlState, segment TimeWindow, total int) {
	p.logger.Info(fmt.Sprintf("Too many photos returned (%d) - splitting date range", total))

	first, second := segment.Bisect()
	state.queue.Push(first, second)
	state.queue.Advance()
	state.page = 1
	state.out.Splits++
	p.req.recorder.SegmentSplit()
}

// consume appends unseen photos as records and counts the rest as duplicates
func (p *Partitioner) consume(state *crawlState, photos []Photo) {
	for _, photo := range photos {
		if _, ok := state.seen[photo.ID]; ok {
			state.out.Duplicates++
			p.req.recorder.Duplicate()
			continue
		}
		state.seen[photo.ID] = struct{}{}
		state.out.Records = append(state.out.Records, models.Record{
			ID:       photo.ID,
			ImageURL: photo.URL,
		})
		p.req.recorder.Discovered()
	}
}
