package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kbukum/scribe/logger"
)

// open connects to the SQLite file behind cfg.DSN, creating its directory,
// and retries with a linear backoff until ctx ends or MaxRetries is spent.
func open(ctx context.Context, cfg Config, log *logger.Logger) (*gorm.DB, error) {
	if dir := dsnDir(cfg.DSN); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	slow, _ := time.ParseDuration(cfg.SlowQueryThreshold)
	gormCfg := &gorm.Config{
		Logger: &queryLog{log: log.WithComponent("gorm"), level: parseLogLevel(cfg.LogLevel), slow: slow},
	}

	var err error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		var db *gorm.DB
		if db, err = connect(ctx, cfg, gormCfg); err == nil {
			log.Info("history database opened", logger.Fields("dsn", cfg.DSN, "attempt", attempt))
			return db, nil
		}
		if attempt == cfg.MaxRetries {
			break
		}
		backoff := time.Duration(attempt) * 500 * time.Millisecond
		log.Warn("history database open failed, retrying", logger.Fields(
			"attempt", attempt, logger.FieldError, err.Error(), "backoff", backoff.String()))
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("history open canceled: %w", ctx.Err())
		case <-time.After(backoff):
		}
	}
	return nil, fmt.Errorf("open history database after %d attempts: %w", cfg.MaxRetries, err)
}

func connect(ctx context.Context, cfg Config, gormCfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.DSN), gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	return db, nil
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// dsnDir is the directory holding a file DSN, or "" for in-memory and
// bare file names.
func dsnDir(dsn string) string {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") {
		return ""
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if dir := filepath.Dir(path); dir != "." {
		return dir
	}
	return ""
}
