package history

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/logger"
)

var _ component.Component = (*Component)(nil)

// Component opens the database and applies migrations on Start. When
// disabled it starts cleanly and Store stays nil.
type Component struct {
	cfg Config
	log *logger.Logger

	mu      sync.RWMutex
	db      *gorm.DB
	store   *Store
	version uint
}

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("history")}
}

// Store returns nil until started, and always when disabled.
func (c *Component) Store() *Store {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store
}

func (c *Component) Name() string { return "history" }

func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("history disabled, attempts will not be recorded")
		return nil
	}
	db, err := open(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("history start: %w", err)
	}
	version, err := migrateUp(db)
	if err != nil {
		_ = closeDB(db)
		return fmt.Errorf("history migrate: %w", err)
	}
	c.log.Info("history schema ready", logger.Fields("version", version))

	c.mu.Lock()
	c.db, c.version = db, version
	c.store = newStore(db, c.cfg.Retention, c.log)
	c.mu.Unlock()
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	db := c.db
	c.db, c.store = nil, nil
	c.mu.Unlock()
	if db == nil {
		return nil
	}
	c.log.Info("closing history database")
	return closeDB(db)
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !c.cfg.Enabled {
		h.Message = "disabled"
		return h
	}
	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()
	if db == nil {
		h.Status, h.Message = component.StatusUnhealthy, "history not initialized"
		return h
	}
	sqlDB, err := db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		h.Status, h.Message = component.StatusUnhealthy, fmt.Sprintf("ping failed: %v", err)
	}
	return h
}

func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("sqlite=%s retention=%d", c.cfg.DSN, c.cfg.Retention)
		c.mu.RLock()
		if c.version > 0 {
			details += fmt.Sprintf(" schema=v%d", c.version)
		}
		c.mu.RUnlock()
	}
	return component.Description{Name: "History", Type: "database", Details: details}
}
