package crawler

// SegmentQueue is a FIFO of windows consumed through a cursor. Entries are
// never removed, so the full list of queried segments stays inspectable.
type SegmentQueue struct {
	segments []TimeWindow
	cursor   int
}

// NewSegmentQueue creates a queue holding only root
func NewSegmentQueue(root TimeWindow) *SegmentQueue {
	return &SegmentQueue{segments: []TimeWindow{root}}
}

// Push appends windows at the end of the queue
func (q *SegmentQueue) Push(windows ...TimeWindow) {
	q.segments = append(q.segments, windows...)
}

// Current returns the segment under the cursor
func (q *SegmentQueue) Current() (TimeWindow, bool) {
	if q.Done() {
		return TimeWindow{}, false
	}
	return q.segments[q.cursor], true
}

// Advance moves the cursor past the current segment
func (q *SegmentQueue) Advance() {
	if !q.Done() {
		q.cursor++
	}
}

// Done reports whether every segment has been consumed
func (q *SegmentQueue) Done() bool {
	return q.cursor >= len(q.segments)
}

// Len returns the number of segments ever pushed, including the root
func (q *SegmentQueue) Len() int {
	return len(q.segments)
}

// Remaining returns the number of segments not yet consumed
func (q *SegmentQueue) Remaining() int {
	return len(q.segments) - q.cursor
}

// Segments returns a copy of every segment in push order
func (q *SegmentQueue) Segments() []TimeWindow {
	out := make([]TimeWindow, len(q.segments))
	copy(out, q.segments)
	return out
}
