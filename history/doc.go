// Package history keeps a record of every transcription attempt in a
// SQLite database. Records are written by the pipeline and read by the
// /transcriptions endpoints and the history command.
package history
