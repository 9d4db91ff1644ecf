package kafka

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/logger"
)

var _ component.Component = (*Component)(nil)

// Component owns the producer and doubles as an event sink.
type Component struct {
	cfg Config
	log *logger.Logger

	mu       sync.RWMutex
	producer *Producer
	lastErr  error
}

func NewComponent(cfg Config, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	return &Component{cfg: cfg, log: log.WithComponent("kafka")}
}

func (c *Component) Name() string { return "kafka" }

// Start builds the writer. kafka-go connects lazily, so an unreachable
// broker shows up on the first send rather than here.
func (c *Component) Start(_ context.Context) error {
	p, err := NewProducer(c.cfg, c.log)
	if err != nil {
		return fmt.Errorf("kafka start: %w", err)
	}
	c.mu.Lock()
	c.producer = p
	c.mu.Unlock()
	c.log.Info("kafka producer ready", logger.Fields(
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "compression", c.cfg.Compression))
	return nil
}

func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	p := c.producer
	c.producer = nil
	c.mu.Unlock()
	if p == nil {
		return nil
	}
	return p.Close()
}

// Health is degraded while the latest send has failed.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch {
	case c.producer == nil:
		h.Status, h.Message = component.StatusUnhealthy, "kafka producer not initialized"
	case c.lastErr != nil:
		h.Status, h.Message = component.StatusDegraded, c.lastErr.Error()
	}
	return h
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    "Kafka",
		Type:    "messaging",
		Details: fmt.Sprintf("brokers=%s topic=%s", strings.Join(c.cfg.Brokers, ","), c.cfg.Topic),
	}
}

// Send produces one event keyed by key.
func (c *Component) Send(ctx context.Context, key string, payload []byte) error {
	c.mu.RLock()
	p := c.producer
	c.mu.RUnlock()
	if p == nil {
		return fmt.Errorf("kafka not started")
	}
	err := p.Publish(ctx, kafkago.Message{
		Key:     []byte(key),
		Value:   payload,
		Time:    time.Now(),
		Headers: []kafkago.Header{{Key: "content-type", Value: []byte("application/json")}},
	})
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	return err
}
