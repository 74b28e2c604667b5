package output

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

const photosSchema = `CREATE TABLE IF NOT EXISTS photos (
	id  TEXT PRIMARY KEY,
	x   REAL,
	y   REAL,
	url TEXT NOT NULL
)`

// SQLiteSink writes rows into the photos table of a fresh SQLite database.
// Buffered sinks insert inside one transaction into a temporary database that
// replaces path on Close; streaming sinks commit every row to path.
type SQLiteSink struct {
	db        *sql.DB
	tx        *sql.Tx
	path      string
	writePath string
	streaming bool
	closed    bool
}

// NewSQLiteSink creates the database, replacing whatever a previous run wrote
// at the same location. A buffered sink leaves path alone until Close.
func NewSQLiteSink(path string, streaming bool) (*SQLiteSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	writePath := path
	if !streaming {
		writePath = path + ".tmp"
	}
	if err := removeDatabase(writePath); err != nil {
		return nil, fmt.Errorf("failed to clear output db: %w", err)
	}

	dsn := writePath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open output db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		removeDatabase(writePath)
		return nil, fmt.Errorf("open output db: %w", err)
	}

	return &SQLiteSink{db: db, path: path, writePath: writePath, streaming: streaming}, nil
}

// WriteHeader creates the photos table. The columns must be id, x, y, url.
func (s *SQLiteSink) WriteHeader(columns []string) error {
	if strings.Join(columns, ",") != strings.Join(Columns, ",") {
		return fmt.Errorf("unsupported columns %v", columns)
	}
	if _, err := s.db.Exec(photosSchema); err != nil {
		return fmt.Errorf("exec schema: %w", err)
	}
	if !s.streaming {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		s.tx = tx
	}
	return nil
}

// AppendRow inserts one photo. Empty x or y become NULL.
func (s *SQLiteSink) AppendRow(fields []string) error {
	if s.closed {
		return fmt.Errorf("write to closed sink %s", s.path)
	}
	if len(fields) != len(Columns) {
		return fmt.Errorf("expected %d fields, got %d", len(Columns), len(fields))
	}

	x, err := nullFloat(fields[1])
	if err != nil {
		return fmt.Errorf("bad x for %s: %w", fields[0], err)
	}
	y, err := nullFloat(fields[2])
	if err != nil {
		return fmt.Errorf("bad y for %s: %w", fields[0], err)
	}

	const insert = `INSERT OR REPLACE INTO photos (id, x, y, url) VALUES (?, ?, ?, ?)`
	if s.tx != nil {
		_, err = s.tx.Exec(insert, fields[0], x, y, fields[3])
	} else {
		_, err = s.db.Exec(insert, fields[0], x, y, fields[3])
	}
	if err != nil {
		return fmt.Errorf("insert photo %s: %w", fields[0], err)
	}
	return nil
}

// Close commits pending rows, closes the database and, in buffered mode,
// moves it into place
func (s *SQLiteSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.tx != nil {
		if err := s.tx.Commit(); err != nil {
			s.db.Close()
			s.discard()
			return fmt.Errorf("commit: %w", err)
		}
	}
	if err := s.db.Close(); err != nil {
		s.discard()
		return fmt.Errorf("close output db: %w", err)
	}

	if !s.streaming {
		if err := removeDatabase(s.path); err != nil {
			s.discard()
			return fmt.Errorf("failed to replace output db: %w", err)
		}
		if err := os.Rename(s.writePath, s.path); err != nil {
			s.discard()
			return fmt.Errorf("failed to rename temporary db: %w", err)
		}
	}
	return nil
}

// Abort rolls back uncommitted rows and closes the database without
// publishing buffered output
func (s *SQLiteSink) Abort() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if s.tx != nil {
		s.tx.Rollback()
	}
	err := s.db.Close()
	s.discard()
	return err
}

// discard removes the temporary database of a buffered sink
func (s *SQLiteSink) discard() {
	if !s.streaming {
		removeDatabase(s.writePath)
	}
}

// removeDatabase deletes a database file with its WAL and shared-memory files
func removeDatabase(path string) error {
	for _, name := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(name); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func nullFloat(field string) (sql.NullFloat64, error) {
	if field == "" {
		return sql.NullFloat64{}, nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return sql.NullFloat64{}, err
	}
	return sql.NullFloat64{Float64: v, Valid: true}, nil
}
