package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// CSVSink writes rows to a CSV file. In buffered mode rows go to a
// temporary file that replaces path on Close, so a failed run leaves no
// partial output behind. In streaming mode rows are flushed to path as they
// arrive.
type CSVSink struct {
	path      string
	writePath string
	file      *os.File
	writer    *csv.Writer
	streaming bool
	closed    bool
}

// NewCSVSink creates the output file, and its directory if needed
func NewCSVSink(path string, streaming bool) (*CSVSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	writePath := path
	if !streaming {
		writePath = path + ".tmp"
	}

	file, err := os.Create(writePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &CSVSink{
		path:      path,
		writePath: writePath,
		file:      file,
		writer:    csv.NewWriter(file),
		streaming: streaming,
	}, nil
}

// WriteHeader writes the column names
func (s *CSVSink) WriteHeader(columns []string) error {
	return s.write(columns)
}

// AppendRow writes one row
func (s *CSVSink) AppendRow(fields []string) error {
	return s.write(fields)
}

func (s *CSVSink) write(fields []string) error {
	if s.closed {
		return fmt.Errorf("write to closed sink %s", s.path)
	}
	if err := s.writer.Write(fields); err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	if s.streaming {
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			return fmt.Errorf("failed to flush row: %w", err)
		}
	}
	return nil
}

// Close flushes the file and, in buffered mode, moves it into place
func (s *CSVSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	s.writer.Flush()
	flushErr := s.writer.Error()
	closeErr := s.file.Close()

	if flushErr != nil {
		s.discard()
		return fmt.Errorf("failed to flush output: %w", flushErr)
	}
	if closeErr != nil {
		s.discard()
		return fmt.Errorf("failed to close output: %w", closeErr)
	}

	if !s.streaming {
		if err := os.Rename(s.writePath, s.path); err != nil {
			s.discard()
			return fmt.Errorf("failed to rename temporary file: %w", err)
		}
	}
	return nil
}

// Abort closes the sink without publishing buffered output
func (s *CSVSink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.file.Close()
	s.discard()
	return nil
}

// discard removes the temporary file of a buffered sink
func (s *CSVSink) discard() {
	if !s.streaming {
		os.Remove(s.writePath)
	}
}

// Path returns the final output path
func (s *CSVSink) Path() string {
	return s.path
}
