package crawler

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverPaginatesWithoutSplitting(t *testing.T) {
	h := newHarness()
	root := mustWindow(epoch, epoch.Add(24*time.Hour))

	var photos []takenPhoto
	for i := 0; i < 500; i++ {
		photos = append(photos, takenPhoto{id: fmt.Sprintf("p%d", i), taken: epoch.Add(time.Duration(i) * time.Minute)})
	}
	searcher := &fakeSearcher{h: h, photos: photos, perPage: 200}

	got, err := h.partitioner(searcher, PartitionerConfig{}).Discover(context.Background(), root)
	require.NoError(t, err)

	assert.Len(t, got.Records, 500)
	assert.Equal(t, 0, got.Splits)
	assert.Equal(t, 3, got.Requests)
	require.Len(t, searcher.calls, 3)
	for i, call := range searcher.calls {
		assert.Equal(t, i+1, call.query.Page)
		assert.True(t, call.query.Window.Equal(root))
	}
	require.Len(t, got.Leaves, 1)
	assert.True(t, h.log.HasMessage("Processing ~500 photos in the date/time range: (2016-03-01 00:00:00 - 2016-03-02 00:00:00)"))
	assert.True(t, h.log.HasMessage("Found photo data for page #3 of 3"))
}

func TestDiscoverSplitsAtMidpoint(t *testing.T) {
	h := newHarness()
	root := mustWindow(epoch, epoch.Add(48*time.Hour))
	first, second := root.Bisect()

	searcher := &fakeSearcher{h: h, respond: func(q Query) (Page, error) {
		switch {
		case q.Window.Equal(root):
			return Page{Total: 9000, Pages: 45, Photos: []Photo{{ID: "never-kept"}}}, nil
		case q.Window.Equal(first):
			return Page{Total: 2, Pages: 1, Photos: []Photo{{ID: "a"}, {ID: "b"}}}, nil
		case q.Window.Equal(second):
			return Page{Total: 1, Pages: 1, Photos: []Photo{{ID: "c"}}}, nil
		}
		return Page{}, fmt.Errorf("unexpected window %s", q.Window)
	}}

	got, err := h.partitioner(searcher, PartitionerConfig{}).Discover(context.Background(), root)
	require.NoError(t, err)

	assert.Equal(t, 1, got.Splits)
	assert.Equal(t, 3, got.Requests)
	require.Len(t, searcher.calls, 3)
	assert.True(t, searcher.calls[1].query.Window.Equal(first))
	assert.Equal(t, 1, searcher.calls[1].query.Page, "page resets after a split")
	assert.True(t, searcher.calls[2].query.Window.Equal(second))

	var ids []string
	for _, r := range got.Records {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids, "records of the split page are not consumed")
	assert.True(t, h.log.HasMessage("Too many photos returned (9000) - splitting date range"))
}

func TestDiscoverDeduplicatesAcrossSegments(t *testing.T) {
	h := newHarness()
	root := mustWindow(epoch, epoch.Add(2*time.Hour))
	first, _ := root.Bisect()

	searcher := &fakeSearcher{h: h, respond: func(q Query) (Page, error) {
		switch {
		case q.Window.Equal(root):
			return Page{Total: 5000, Pages: 25}, nil
		case q.Window.Equal(first):
			return Page{Total: 2, Pages: 1, Photos: []Photo{{ID: "a"}, {ID: "xyz", URL: "first"}}}, nil
		default:
			return Page{Total: 2, Pages: 1, Photos: []Photo{{ID: "xyz", URL: "second"}, {ID: "b"}}}, nil
		}
	}}

	got, err := h.partitioner(searcher, PartitionerConfig{}).Discover(context.Background(), root)
	require.NoError(t, err)

	require.Len(t, got.Records, 3)
	assert.Equal(t, 1, got.Duplicates)
	assert.Equal(t, "xyz", got.Records[1].ID)
	assert.Equal(t, "first", got.Records[1].ImageURL, "the first occurrence wins")
}

func TestDiscoverZeroResults(t *testing.T) {
	h := newHarness()
	searcher := &fakeSearcher{h: h}

	got, err := h.partitioner(searcher, PartitionerConfig{}).Discover(context.Background(), mustWindow(epoch, epoch.Add(time.Hour)))
	require.NoError(t, err)

	assert.Empty(t, got.Records)
	assert.Equal(t, 1, got.Requests)
	assert.Len(t, got.Leaves, 1)
}

func TestDiscoverRetriesForever(t *testing.T) {
	h := newHarness()
	searcher := &fakeSearcher{
		h:        h,
		failures: 25,
		photos:   []takenPhoto{{id: "only", taken: epoch.Add(time.Minute)}},
	}

	got, err := h.partitioner(searcher, PartitionerConfig{}).Discover(context.Background(), mustWindow(epoch, epoch.Add(time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, 26, got.Requests)
	assert.Equal(t, 25, got.Retries)
	require.Len(t, got.Records, 1)
	for _, call := range searcher.calls {
		assert.Equal(t, 1, call.query.Page, "the cursor does not move on error")
	}
	assert.True(t, h.log.HasMessage("Attempting to retry..."))
}

func TestDiscoverRetryKeepsPageCursor(t *testing.T) {
	h := newHarness()
	var photos []takenPhoto
	for i := 0; i < 30; i++ {
		photos = append(photos, takenPhoto{id: fmt.Sprintf("p%d", i), taken: epoch.Add(time.Duration(i) * time.Second)})
	}
	searcher := &fakeSearcher{h: h, photos: photos, perPage: 10}
	searcher.onCall = func(n int) {
		if n == 1 {
			searcher.failures = 2
		}
	}

	got, err := h.partitioner(searcher, PartitionerConfig{}).Discover(context.Background(), mustWindow(epoch, epoch.Add(time.Hour)))
	require.NoError(t, err)

	var pages []int
	for _, call := range searcher.calls {
		pages = append(pages, call.query.Page)
	}
	assert.Equal(t, []int{1, 2, 2, 2, 3}, pages)
	assert.Len(t, got.Records, 30)
}

func TestDiscoverCancelled(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	searcher := &fakeSearcher{h: h, failures: 1 << 30}
	searcher.onCall = func(n int) {
		if n == 4 {
			cancel()
		}
	}

	_, err := h.partitioner(searcher, PartitionerConfig{}).Discover(ctx, mustWindow(epoch, epoch.Add(time.Hour)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, searcher.calls, 5)
}

func TestDiscoverMinSegmentGuard(t *testing.T) {
	h := newHarness()
	burst := epoch.Add(time.Second)
	var photos []takenPhoto
	for i := 0; i < 12; i++ {
		photos = append(photos, takenPhoto{id: fmt.Sprintf("burst%d", i), taken: burst})
	}
	searcher := &fakeSearcher{h: h, photos: photos, perPage: 5}

	got, err := h.partitioner(searcher, PartitionerConfig{MaxResults: 10, MinSegment: time.Second}).
		Discover(context.Background(), mustWindow(epoch, epoch.Add(4*time.Second)))
	require.NoError(t, err)

	assert.Len(t, got.Records, 12)
	assert.Positive(t, got.Duplicates)
	for _, leaf := range got.Leaves {
		assert.LessOrEqual(t, leaf.Duration(), 2*time.Second)
	}
	assert.NotEmpty(t, h.log.GetMessagesByLevel("WARN"))
}

// TestDiscoverInvariants crawls a random dataset with a small ceiling and
// checks dedup, the ceiling, coverage and pacing together.
func TestDiscoverInvariants(t *testing.T) {
	const maxResults = 25
	h := newHarness()
	rng := rand.New(rand.NewPCG(2016, 3))
	root := mustWindow(epoch, epoch.Add(30*24*time.Hour))

	var photos []takenPhoto
	ids := map[string]bool{}
	for i := 0; i < 600; i++ {
		id := fmt.Sprintf("p%d", i)
		offset := time.Duration(rng.Int64N(int64(root.Duration())/int64(time.Second))) * time.Second
		photos = append(photos, takenPhoto{id: id, taken: epoch.Add(offset)})
		ids[id] = true
	}
	searcher := &fakeSearcher{h: h, photos: photos, perPage: 10, latency: 300 * time.Millisecond}

	got, err := h.partitioner(searcher, PartitionerConfig{MaxResults: maxResults, MinSegment: time.Second}).
		Discover(context.Background(), root)
	require.NoError(t, err)

	t.Run("every photo found once", func(t *testing.T) {
		seen := map[string]bool{}
		for _, r := range got.Records {
			assert.False(t, seen[r.ID], "duplicate record %s", r.ID)
			seen[r.ID] = true
		}
		assert.Equal(t, ids, seen)
	})

	t.Run("ceiling", func(t *testing.T) {
		oversized := map[string]bool{}
		for _, call := range searcher.calls {
			if call.query.Page == 1 && call.total > maxResults {
				oversized[windowKey(call.query.Window)] = true
			}
		}
		assert.NotEmpty(t, oversized)
		for _, call := range searcher.calls {
			if call.query.Page > 1 {
				assert.False(t, oversized[windowKey(call.query.Window)], "paged past an oversized segment %s", call.query.Window)
			}
		}
		for _, leaf := range got.Leaves {
			assert.False(t, oversized[windowKey(leaf)])
		}
	})

	t.Run("leaves tile the root", func(t *testing.T) {
		leaves := append([]TimeWindow(nil), got.Leaves...)
		sort.Slice(leaves, func(i, j int) bool { return leaves[i].Start().Before(leaves[j].Start()) })

		require.NotEmpty(t, leaves)
		assert.True(t, leaves[0].Start().Equal(root.Start()))
		for i := 1; i < len(leaves); i++ {
			assert.True(t, leaves[i].Start().Equal(leaves[i-1].End()), "gap or overlap at %s", leaves[i])
		}
		assert.True(t, leaves[len(leaves)-1].End().Equal(root.End()))
	})

	t.Run("pacing", func(t *testing.T) {
		gaps := h.timeline.gaps()
		require.Len(t, gaps, got.Requests-1)
		for _, gap := range gaps {
			assert.GreaterOrEqual(t, gap, testInterval)
		}
	})
}

func TestDiscoverPacesRetries(t *testing.T) {
	h := newHarness()
	searcher := &fakeSearcher{h: h, failures: 3, latency: 2 * time.Second}

	_, err := h.partitioner(searcher, PartitionerConfig{}).Discover(context.Background(), mustWindow(epoch, epoch.Add(time.Hour)))
	require.NoError(t, err)

	gaps := h.timeline.gaps()
	require.Len(t, gaps, 3)
	for _, gap := range gaps {
		assert.Equal(t, testInterval, gap)
	}
}
