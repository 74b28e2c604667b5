package output

import (
	"fmt"
	"strconv"

	"flickrgeo/pkg/config"
	"flickrgeo/pkg/models"
)

// Stats counts what a Writer did with the records it was given
type Stats struct {
	Written int
	Omitted int
}

// Writer turns records into id,x,y,url rows. Records without coordinates
// are dropped under the omit policy and written with empty x and y under
// the empty policy. In buffered mode nothing reaches the sink until Close.
type Writer struct {
	sink      RowSink
	unlocated string
	streaming bool
	started   bool
	pending   []models.Record
	stats     Stats
}

// NewWriter wraps sink with the given unlocated policy and write mode
func NewWriter(sink RowSink, unlocated, mode string) (*Writer, error) {
	switch unlocated {
	case "":
		unlocated = config.UnlocatedOmit
	case config.UnlocatedOmit, config.UnlocatedEmpty:
	default:
		return nil, fmt.Errorf("invalid unlocated policy: %s", unlocated)
	}

	var streaming bool
	switch mode {
	case "", config.ModeBuffered:
	case config.ModeStreaming:
		streaming = true
	default:
		return nil, fmt.Errorf("invalid output mode: %s", mode)
	}

	return &Writer{sink: sink, unlocated: unlocated, streaming: streaming}, nil
}

// Streaming reports whether rows are written as they are added
func (w *Writer) Streaming() bool {
	return w.streaming
}

// Start writes the header. It is called implicitly by the first streamed
// row or by Close.
func (w *Writer) Start() error {
	if w.started {
		return nil
	}
	w.started = true
	if err := w.sink.WriteHeader(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// Add hands one record to the writer
func (w *Writer) Add(rec models.Record) error {
	if !w.streaming {
		w.pending = append(w.pending, rec)
		return nil
	}
	if err := w.Start(); err != nil {
		return err
	}
	return w.emit(rec)
}

// AddAll hands records to the writer in order
func (w *Writer) AddAll(records []models.Record) error {
	for _, rec := range records {
		if err := w.Add(rec); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) emit(rec models.Record) error {
	fields, ok := FormatRecord(rec, w.unlocated)
	if !ok {
		w.stats.Omitted++
		return nil
	}
	if err := w.sink.AppendRow(fields); err != nil {
		return fmt.Errorf("failed to write record %s: %w", rec.ID, err)
	}
	w.stats.Written++
	return nil
}

// Close writes any buffered rows and closes the sink. On a write error the
// sink is aborted where supported.
func (w *Writer) Close() error {
	if err := w.Start(); err != nil {
		w.Abort()
		return err
	}
	for _, rec := range w.pending {
		if err := w.emit(rec); err != nil {
			w.Abort()
			return err
		}
	}
	w.pending = nil

	if err := w.sink.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}

// Abort discards uncommitted output
func (w *Writer) Abort() error {
	if a, ok := w.sink.(Aborter); ok {
		return a.Abort()
	}
	return w.sink.Close()
}

// Stats returns the counts so far
func (w *Writer) Stats() Stats {
	return w.stats
}

// FormatRecord renders rec as id,x,y,url with x the longitude and y the
// latitude. ok is false when the record has no coordinates and policy is
// omit.
func FormatRecord(rec models.Record, policy string) ([]string, bool) {
	if !rec.HasLocation() {
		if policy != config.UnlocatedEmpty {
			return nil, false
		}
		return []string{rec.ID, "", "", rec.ImageURL}, true
	}
	return []string{
		rec.ID,
		formatCoordinate(*rec.Longitude),
		formatCoordinate(*rec.Latitude),
		rec.ImageURL,
	}, true
}

// formatCoordinate uses the shortest representation that round-trips
func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
