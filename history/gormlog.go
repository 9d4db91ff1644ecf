package history

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kbukum/scribe/logger"
)

func parseLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

// queryLog routes gorm output through the service logger.
type queryLog struct {
	log   *logger.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

var _ gormlogger.Interface = (*queryLog)(nil)

func (q *queryLog) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &queryLog{log: q.log, level: level, slow: q.slow}
}

func (q *queryLog) Info(_ context.Context, msg string, data ...interface{}) {
	if q.level >= gormlogger.Info {
		q.log.Info(fmt.Sprintf(msg, data...))
	}
}

func (q *queryLog) Warn(_ context.Context, msg string, data ...interface{}) {
	if q.level >= gormlogger.Warn {
		q.log.Warn(fmt.Sprintf(msg, data...))
	}
}

func (q *queryLog) Error(_ context.Context, msg string, data ...interface{}) {
	if q.level >= gormlogger.Error {
		q.log.Error(fmt.Sprintf(msg, data...))
	}
}

func (q *queryLog) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if q.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := logger.Fields("sql", sql, "rows", rows, logger.FieldDuration, elapsed.Milliseconds())
	log := q.log.WithContext(ctx)

	switch {
	case err != nil && !stderrors.Is(err, gorm.ErrRecordNotFound) && q.level >= gormlogger.Error:
		fields[logger.FieldError] = err.Error()
		log.Error("query failed", fields)
	case q.slow > 0 && elapsed > q.slow && q.level >= gormlogger.Warn:
		log.Warn("slow query", fields)
	case q.level >= gormlogger.Info:
		log.Debug("query", fields)
	}
}
