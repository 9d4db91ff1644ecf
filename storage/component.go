package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/logger"
)

var _ component.Component = (*Component)(nil)

// Component builds the backend on Start. A disabled component starts
// cleanly and Storage stays nil.
type Component struct {
	cfg Config
	log *logger.Logger

	mu      sync.RWMutex
	storage Storage
}

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("storage")}
}

// Storage returns nil until started, and always when disabled.
func (c *Component) Storage() Storage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storage
}

func (c *Component) Name() string { return "storage" }

func (c *Component) IsAvailable(_ context.Context) bool {
	return c.Storage() != nil
}

func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("storage disabled, audit copies will not be written")
		return nil
	}
	s, err := New(ctx, c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.mu.Lock()
	c.storage = s
	c.mu.Unlock()
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	c.storage = nil
	c.mu.Unlock()
	return nil
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !c.cfg.Enabled {
		h.Message = "disabled"
		return h
	}
	s := c.Storage()
	if s == nil {
		h.Status, h.Message = component.StatusUnhealthy, "storage not initialized"
		return h
	}
	if _, err := s.Exists(ctx, JoinKey(c.cfg.Prefix, ".health")); err != nil {
		h.Status, h.Message = component.StatusDegraded, fmt.Sprintf("probe failed: %v", err)
	}
	return h
}

func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		switch c.cfg.Provider {
		case ProviderS3:
			details = fmt.Sprintf("provider=s3 bucket=%s", c.cfg.Bucket)
		case ProviderLocal:
			details = fmt.Sprintf("provider=local path=%s", c.cfg.BasePath)
		default:
			details = "provider=" + c.cfg.Provider
		}
	}
	return component.Description{Name: "Storage", Type: "storage", Details: details}
}
