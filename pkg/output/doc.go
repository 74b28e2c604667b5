// Package output writes crawl results.
//
// A Writer formats records as id,x,y,url rows (x is longitude, y latitude)
// and hands them to a RowSink: a CSV file or a SQLite database. Buffered
// writers hold rows until Close and publish the file atomically; streaming
// writers append each row as soon as its record is enriched.
package output
