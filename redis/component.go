package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/logger"
)

var _ component.Component = (*Component)(nil)

// Component owns the client lifecycle and doubles as an event sink.
type Component struct {
	cfg Config
	log *logger.Logger

	mu     sync.RWMutex
	client *Client
}

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("redis")}
}

// Client returns nil until started.
func (c *Component) Client() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

func (c *Component) Name() string { return "redis" }

func (c *Component) Start(ctx context.Context) error {
	client, err := New(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("redis start: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return fmt.Errorf("redis start: %w", err)
	}
	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	c.log.Info("redis connected", logger.Fields("addr", c.cfg.Addr, "channel", c.cfg.Channel, "stream", c.cfg.Stream))
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Close()
}

func (c *Component) Health(ctx context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	client := c.Client()
	if client == nil {
		h.Status, h.Message = component.StatusUnhealthy, "redis not initialized"
		return h
	}
	if err := client.Ping(ctx); err != nil {
		h.Status, h.Message = component.StatusUnhealthy, err.Error()
	}
	return h
}

func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("%s db=%d channel=%s", c.cfg.Addr, c.cfg.DB, c.cfg.Channel)
	if c.cfg.Stream != "" {
		details += " stream=" + c.cfg.Stream
	}
	return component.Description{Name: "Redis", Type: "messaging", Details: details}
}

// Send publishes one event. It fails until the component has started.
func (c *Component) Send(ctx context.Context, key string, payload []byte) error {
	client := c.Client()
	if client == nil {
		return fmt.Errorf("redis not started")
	}
	n, err := client.Publish(ctx, key, payload)
	if err != nil {
		return err
	}
	c.log.Debug("event published", logger.Fields(logger.FieldRequestID, key, "receivers", n))
	return nil
}
