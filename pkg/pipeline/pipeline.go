package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"flickrgeo/pkg/config"
	"flickrgeo/pkg/crawler"
	"flickrgeo/pkg/flickr"
	"flickrgeo/pkg/logger"
	"flickrgeo/pkg/metrics"
	"flickrgeo/pkg/models"
	"flickrgeo/pkg/output"
	"flickrgeo/pkg/ratelimit"
)

// ErrSetup marks failures that happen before any output is created:
// missing credentials, a rejected API key, an unusable output path.
var ErrSetup = errors.New("setup failed")

// Deps are the collaborators of a Pipeline. Zero fields are filled from
// the configuration: a Flickr client, the system clock, an interval
// limiter, fresh metrics and the global logger.
type Deps struct {
	Searcher crawler.Searcher
	Locator  crawler.Locator
	// Verifier is skipped when nil and Searcher was injected
	Verifier Verifier
	Clock    ratelimit.Clock
	Limiter  ratelimit.Limiter
	Metrics  *metrics.Metrics
	Logger   logger.Logger
	// Rand drives the optional shuffle; nil uses the global source
	Rand *rand.Rand
}

// Summary describes a finished run
type Summary struct {
	Discovered int
	Duplicates int
	Splits     int
	Requests   int
	Retries    int
	Enriched   int
	Failed     int
	Written    int
	Omitted    int
	Output     string
	Elapsed    time.Duration
}

// Pipeline wires the crawl phases to an output sink
type Pipeline struct {
	cfg         *config.Config
	verifier    Verifier
	partitioner *crawler.Partitioner
	enricher    *crawler.Enricher
	limiter     ratelimit.Limiter
	clock       ratelimit.Clock
	metrics     *metrics.Metrics
	logger      logger.Logger
	rng         *rand.Rand
}

// New builds a pipeline for cfg
func New(cfg *config.Config, deps Deps) (*Pipeline, error) {
	log := deps.Logger
	if log == nil {
		log = logger.GetLogger()
	}

	if deps.Searcher == nil || deps.Locator == nil {
		if !cfg.HasCredentials() {
			return nil, fmt.Errorf("%w: no Flickr API key configured", ErrSetup)
		}
		source := NewFlickrSource(flickr.NewClient(&cfg.Flickr, log), cfg.Search)
		if deps.Searcher == nil {
			deps.Searcher = source
		}
		if deps.Locator == nil {
			deps.Locator = source
		}
		if deps.Verifier == nil {
			deps.Verifier = source
		}
	}

	clock := deps.Clock
	if clock == nil {
		clock = ratelimit.SystemClock{}
	}
	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewIntervalWithClock(cfg.RateLimit.Interval, clock)
	}
	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}

	partitioner := crawler.NewPartitioner(deps.Searcher, limiter, clock, crawler.PartitionerConfig{
		MaxResults: cfg.Crawl.MaxResults,
		MinSegment: cfg.Crawl.MinSegment,
		RetryDelay: cfg.RateLimit.RetryDelay,
	}, log)
	partitioner.SetRecorder(m)

	enricher := crawler.NewEnricher(deps.Locator, limiter, clock, crawler.EnricherConfig{
		MaxAttempts: cfg.Enrichment.MaxAttempts,
		RetryDelay:  cfg.RateLimit.RetryDelay,
	}, log)
	enricher.SetRecorder(m)

	return &Pipeline{
		cfg:         cfg,
		verifier:    deps.Verifier,
		partitioner: partitioner,
		enricher:    enricher,
		limiter:     limiter,
		clock:       clock,
		metrics:     m,
		logger:      log,
		rng:         deps.Rand,
	}, nil
}

// Metrics returns the counters the run reports to
func (p *Pipeline) Metrics() *metrics.Metrics {
	return p.metrics
}

// Run crawls window and writes the results. A setup failure wraps
// ErrSetup and leaves no output behind.
func (p *Pipeline) Run(ctx context.Context, window crawler.TimeWindow) (*Summary, error) {
	started := p.clock.Now()
	summary := &Summary{Output: p.cfg.Output.File}

	p.logger.InfoWithFields("Starting crawl", map[string]interface{}{
		"window":   window.String(),
		"place_id": p.cfg.Search.PlaceID,
		"accuracy": p.cfg.Search.Accuracy,
		"output":   p.cfg.Output.File,
		"format":   p.cfg.Output.Format,
	})

	if p.verifier != nil {
		_, err := crawler.Paced(ctx, p.limiter, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, p.verifier.Echo(ctx)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: failed to verify API key: %w", ErrSetup, err)
		}
	}

	writer, err := p.openWriter()
	if err != nil {
		return nil, err
	}

	discovery, err := p.partitioner.Discover(ctx, window)
	if discovery != nil {
		summary.Discovered = len(discovery.Records)
		summary.Duplicates = discovery.Duplicates
		summary.Splits = discovery.Splits
		summary.Requests = discovery.Requests
		summary.Retries = discovery.Retries
	}
	if err != nil {
		writer.Abort()
		return summary, fmt.Errorf("search phase interrupted: %w", err)
	}

	p.logger.Info(fmt.Sprintf("Found exactly %d photos in this range", len(discovery.Records)))
	p.logger.Info(fmt.Sprintf("%d duplicate photos will be ignored", discovery.Duplicates))

	records := discovery.Records
	if p.cfg.Crawl.Shuffle {
		records = crawler.Shuffle(records, p.rng)
	}

	enrichment, err := p.enricher.Enrich(ctx, records, func(rec *models.Record, enriched bool) error {
		return writer.Add(*rec)
	})
	if enrichment != nil {
		summary.Enriched = enrichment.Enriched
		summary.Failed = enrichment.Failed
	}
	if err != nil {
		writer.Abort()
		return summary, fmt.Errorf("geodata phase interrupted: %w", err)
	}

	p.logger.Info("Writing output data to file")
	if err := writer.Close(); err != nil {
		return summary, err
	}
	stats := writer.Stats()
	summary.Written = stats.Written
	summary.Omitted = stats.Omitted
	summary.Elapsed = p.clock.Now().Sub(started)

	if path := p.cfg.Metrics.Textfile; path != "" {
		if err := p.metrics.WriteTextfile(path); err != nil {
			p.logger.WithError(err).Warn("Failed to export metrics")
		}
	}

	logger.LogMetrics(p.logger, "crawl", map[string]interface{}{
		"discovered": summary.Discovered,
		"duplicates": summary.Duplicates,
		"splits":     summary.Splits,
		"requests":   summary.Requests,
		"retries":    summary.Retries,
		"enriched":   summary.Enriched,
		"failed":     summary.Failed,
		"written":    summary.Written,
		"omitted":    summary.Omitted,
	})
	p.logger.Info("Script completed successfully")

	return summary, nil
}

// openWriter opens the sink before any request is made so a bad output
// path fails the run up front. In streaming mode the header is written now.
func (p *Pipeline) openWriter() (*output.Writer, error) {
	out := p.cfg.Output
	streaming := out.Mode == config.ModeStreaming

	sink, err := output.Open(out.Format, out.File, streaming)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSetup, err)
	}

	writer, err := output.NewWriter(sink, out.Unlocated, out.Mode)
	if err != nil {
		discard(sink)
		return nil, fmt.Errorf("%w: %w", ErrSetup, err)
	}

	if writer.Streaming() {
		if err := writer.Start(); err != nil {
			writer.Abort()
			return nil, fmt.Errorf("%w: %w", ErrSetup, err)
		}
	}
	return writer, nil
}

func discard(sink output.RowSink) {
	if a, ok := sink.(output.Aborter); ok {
		_ = a.Abort()
		return
	}
	_ = sink.Close()
}

// inputLayout reads "YYYY-MM-DD HH:mm:ss" with or without zero padding
const inputLayout = "2006-1-2 15:4:5"

// ParseWindow parses start and end as "YYYY-MM-DD HH:mm:ss", interpreting
// both in loc. Zero padding is optional and surrounding whitespace is ignored.
func ParseWindow(start, end string, loc *time.Location) (crawler.TimeWindow, error) {
	if loc == nil {
		loc = time.Local
	}

	from, err := time.ParseInLocation(inputLayout, strings.TrimSpace(start), loc)
	if err != nil {
		return crawler.TimeWindow{}, fmt.Errorf("invalid start date %q: expected YYYY-MM-DD HH:mm:ss", start)
	}
	to, err := time.ParseInLocation(inputLayout, strings.TrimSpace(end), loc)
	if err != nil {
		return crawler.TimeWindow{}, fmt.Errorf("invalid end date %q: expected YYYY-MM-DD HH:mm:ss", end)
	}

	return crawler.NewTimeWindow(from, to)
}
