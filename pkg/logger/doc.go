// Package logger provides the structured logging interface used across the
// crawler.
//
// It wraps zerolog. Console output is human readable and stamped with
// "2006-01-02 15:04:05" timestamps; when a log file is configured every line
// is also appended to it as JSON. Each crawl run tags its lines with a
// run_id so interleaved runs can be told apart in a shared file.
//
//	log, err := logger.New(&cfg.Logging)
//	log, runID := logger.WithRunID(log)
//	log.WithField("phase", "search").Info("Checking the date/time range")
//
// TestLogger captures messages in memory for assertions in tests.
package logger
