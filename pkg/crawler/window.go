package crawler

import (
	"fmt"
	"time"
)

// TimeLayout is the layout used for window bounds in log lines
const TimeLayout = "2006-01-02 15:04:05"

// TimeWindow is an immutable span of capture time. Coverage is taken over
// the half-open span [Start, End); the API receives both bounds inclusively.
type TimeWindow struct {
	start time.Time
	end   time.Time
}

// NewTimeWindow returns the window [start, end]. start must not be after end.
func NewTimeWindow(start, end time.Time) (TimeWindow, error) {
	if start.After(end) {
		return TimeWindow{}, fmt.Errorf("window start %s is after end %s",
			start.Format(TimeLayout), end.Format(TimeLayout))
	}
	return TimeWindow{start: start, end: end}, nil
}

// Start returns the lower bound
func (w TimeWindow) Start() time.Time { return w.start }

// End returns the upper bound
func (w TimeWindow) End() time.Time { return w.end }

// Duration returns End - Start
func (w TimeWindow) Duration() time.Duration { return w.end.Sub(w.start) }

// Midpoint returns Start + (End-Start)/2
func (w TimeWindow) Midpoint() time.Time {
	return w.start.Add(w.end.Sub(w.start) / 2)
}

// Bisect splits the window at its midpoint into [Start, mid] and [mid, End]
func (w TimeWindow) Bisect() (TimeWindow, TimeWindow) {
	mid := w.Midpoint()
	return TimeWindow{start: w.start, end: mid}, TimeWindow{start: mid, end: w.end}
}

// Equal reports whether both bounds denote the same instants
func (w TimeWindow) Equal(other TimeWindow) bool {
	return w.start.Equal(other.start) && w.end.Equal(other.end)
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("(%s - %s)", w.start.Format(TimeLayout), w.end.Format(TimeLayout))
}
