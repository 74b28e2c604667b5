// Package crawler implements the adaptive crawl over a capture-time window.
//
// The search phase (Partitioner) pages through each segment of the window.
// When the first page of a segment reports more results than the API will
// ever return for one query, the segment is bisected at its midpoint and
// both halves go to the back of the queue. Pages are consumed only from
// segments under the ceiling, and photo ids are deduplicated across
// segments since adjacent halves share their boundary instant.
//
// The geodata phase (Enricher) then makes one lookup per discovered record.
//
// Both phases issue requests through the same limiter, one at a time, and
// every request is followed by at least one interval of quiet whether it
// succeeded or not. Search errors are retried without limit; a failed
// lookup only leaves its record without coordinates.
package crawler
