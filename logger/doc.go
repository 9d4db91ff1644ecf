// Package logger is the zerolog wrapper used by every scribe package.
//
// Entries carry structured fields passed as maps:
//
//	log := logger.Get("pipeline")
//	log.Info("transcribed", logger.Fields(logger.FieldSegments, 12))
package logger
