package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"flickrgeo/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type visit struct {
	id       string
	enriched bool
}

func TestEnrichSkipsFailedLookups(t *testing.T) {
	h := newHarness()
	locator := &fakeLocator{h: h, locations: map[string]Location{
		"a":   {Latitude: 51.5, Longitude: -0.12},
		"xyz": {Latitude: 41.9, Longitude: 12.5},
	}}
	records := []models.Record{{ID: "a"}, {ID: "abc123"}, {ID: "xyz"}}

	var visits []visit
	got, err := h.enricher(locator, EnricherConfig{}).Enrich(context.Background(), records, func(rec *models.Record, enriched bool) error {
		visits = append(visits, visit{rec.ID, enriched})
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, &Enrichment{Enriched: 2, Failed: 1, Visited: 3}, got)
	assert.Equal(t, []visit{{"a", true}, {"abc123", false}, {"xyz", true}}, visits)
	assert.Equal(t, []string{"a", "abc123", "xyz"}, locator.calls, "one lookup per record, no retry")

	assert.True(t, records[0].HasLocation())
	assert.Equal(t, -0.12, *records[0].Longitude)
	assert.Equal(t, 51.5, *records[0].Latitude)
	assert.False(t, records[1].HasLocation())
	assert.True(t, records[2].HasLocation())

	assert.True(t, h.log.HasMessage("Found geospatial data for photo #1 of 3"))
	assert.True(t, h.log.HasMessage("ERROR from Flickr API for photo #2 of 3"))
	assert.True(t, h.log.HasMessage("Skipping this photo"))
}

func TestEnrichRetriesWhenConfigured(t *testing.T) {
	h := newHarness()
	locator := &fakeLocator{
		h:         h,
		locations: map[string]Location{"a": {Latitude: 1, Longitude: 2}},
		failOnce:  map[string]bool{"a": true},
	}
	records := []models.Record{{ID: "a"}}

	got, err := h.enricher(locator, EnricherConfig{MaxAttempts: 2}).Enrich(context.Background(), records, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, got.Enriched)
	assert.Equal(t, []string{"a", "a"}, locator.calls)
}

func TestEnrichEmpty(t *testing.T) {
	h := newHarness()
	got, err := h.enricher(&fakeLocator{h: h}, EnricherConfig{}).Enrich(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, &Enrichment{}, got)
}

func TestEnrichCallbackError(t *testing.T) {
	h := newHarness()
	locator := &fakeLocator{h: h, locations: map[string]Location{"a": {}, "b": {}}}
	records := []models.Record{{ID: "a"}, {ID: "b"}}
	diskFull := errors.New("disk full")

	got, err := h.enricher(locator, EnricherConfig{}).Enrich(context.Background(), records, func(rec *models.Record, enriched bool) error {
		return diskFull
	})
	assert.ErrorIs(t, err, diskFull)
	assert.Equal(t, 1, got.Visited)
	assert.Equal(t, []string{"a"}, locator.calls)
}

func TestEnrichCancelled(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	locator := &fakeLocator{h: h}
	got, err := h.enricher(locator, EnricherConfig{}).Enrich(ctx, []models.Record{{ID: "a"}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, got.Visited)
}

// Both phases share one limiter, so the quiet period holds across the
// boundary between them and after failed lookups.
func TestPacingAcrossPhases(t *testing.T) {
	h := newHarness()
	root := mustWindow(epoch, epoch.Add(time.Hour))
	searcher := &fakeSearcher{
		h:        h,
		failures: 1,
		latency:  400 * time.Millisecond,
		photos: []takenPhoto{
			{id: "a", taken: epoch.Add(time.Minute)},
			{id: "abc123", taken: epoch.Add(2 * time.Minute)},
			{id: "c", taken: epoch.Add(3 * time.Minute)},
		},
	}
	locator := &fakeLocator{h: h, latency: 1500 * time.Millisecond, locations: map[string]Location{"a": {}, "c": {}}}

	found, err := h.partitioner(searcher, PartitionerConfig{}).Discover(context.Background(), root)
	require.NoError(t, err)
	_, err = h.enricher(locator, EnricherConfig{}).Enrich(context.Background(), found.Records, nil)
	require.NoError(t, err)

	gaps := h.timeline.gaps()
	require.Len(t, gaps, 2+3-1)
	for _, gap := range gaps {
		assert.GreaterOrEqual(t, gap, testInterval)
	}
}
