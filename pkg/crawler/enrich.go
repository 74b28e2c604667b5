package crawler

import (
	"context"
	"fmt"
	"time"

	"flickrgeo/pkg/logger"
	"flickrgeo/pkg/models"
	"flickrgeo/pkg/ratelimit"
)

// EnricherConfig holds the geodata pass settings
type EnricherConfig struct {
	// MaxAttempts per record; values below 1 mean a single attempt
	MaxAttempts int
	RetryDelay  time.Duration
}

// Enrichment is the outcome of the geodata pass
type Enrichment struct {
	Enriched int
	Failed   int
	Visited  int
}

// RecordFunc is called once per visited record, in order. enriched tells
// whether the lookup for rec succeeded.
type RecordFunc func(rec *models.Record, enriched bool) error

// Enricher looks up coordinates for discovered records, one paced call each
type Enricher struct {
	locator Locator
	req     *requester
	cfg     EnricherConfig
	logger  logger.Logger
}

// NewEnricher creates an enricher sharing limiter with the search phase
func NewEnricher(locator Locator, limiter ratelimit.Limiter, clock ratelimit.Clock, cfg EnricherConfig, log logger.Logger) *Enricher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("phase", PhaseGeo)

	return &Enricher{
		locator: locator,
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
func (e *Enricher) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	e.req.recorder = r
}

// Enrich visits every record exactly once, in order. A failed lookup is
// logged and leaves the record without coordinates. The returned error is
// ctx's or the first error returned by fn.
func (e *Enricher) Enrich(ctx context.Context, records []models.Record, fn RecordFunc) (*Enrichment, error) {
	out := &Enrichment{}
	total := len(records)

	for i := range records {
		rec := &records[i]

		loc, err := e.lookup(ctx, rec.ID)
		if err != nil && ctx.Err() != nil {
			return out, ctx.Err()
		}
		out.Visited++

		enriched := err == nil
		if enriched {
			rec.SetLocation(loc.Latitude, loc.Longitude)
			out.Enriched++
			e.req.recorder.Enriched(OutcomeSuccess)
			e.logger.Info(fmt.Sprintf("Found geospatial data for photo #%d of %d", i+1, total))
		} else {
			out.Failed++
			e.req.recorder.Enriched(OutcomeError)
			e.logger.WithError(err).WithField("photo_id", rec.ID).
				Warn(fmt.Sprintf("ERROR from Flickr API for photo #%d of %d", i+1, total))
			e.logger.Info("Skipping this photo")
		}

		if fn != nil {
			if err := fn(rec, enriched); err != nil {
				return out, err
			}
		}
	}

	return out, nil
}

func (e *Enricher) lookup(ctx context.Context, photoID string) (Location, error) {
	var loc Location
	_, err := e.req.do(ctx, policy{
		phase:       PhaseGeo,
		maxAttempts: e.cfg.MaxAttempts,
		retryDelay:  e.cfg.RetryDelay,
		onRetry: func(attempt int, err error) {
			e.logger.WithError(err).WithField("photo_id", photoID).Info("Attempting to retry...")
		},
	}, func(ctx context.Context) error {
		l, err := e.locator.GetLocation(ctx, photoID)
		if err != nil {
			return err
		}
		loc = l
		return nil
	})
	return loc, err
}
