package output

import (
	"fmt"
	"strings"

	"flickrgeo/pkg/config"
)

// Columns is the header every sink receives
var Columns = []string{"id", "x", "y", "url"}

// RowSink receives the header once and then rows of string fields
type RowSink interface {
	WriteHeader(columns []string) error
	AppendRow(fields []string) error
	// Close commits everything written so far
	Close() error
}

// Aborter is implemented by sinks that can discard uncommitted output
type Aborter interface {
	Abort() error
}

// Open creates the sink for format at path. streaming sinks make each row
// durable as it is appended; buffered sinks publish only on Close.
func Open(format, path string, streaming bool) (RowSink, error) {
	switch strings.ToLower(format) {
	case "", config.FormatCSV:
		return NewCSVSink(path, streaming)
	case config.FormatSQLite:
		return NewSQLiteSink(path, streaming)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
