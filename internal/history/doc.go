// Package history records per-stage pipeline outcomes in a SQLite database so
// operators can see which videos completed, were served from cache, failed, or
// were skipped, and why.
//
// Each row carries the batch run identifier, the (year, video, stage) triple,
// the outcome status, an error message, and start/finish timestamps. Writes
// retry briefly on SQLITE_BUSY so concurrent workers and processes can share
// one database file.
package history
