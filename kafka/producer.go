package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/kbukum/scribe/logger"
)

// messageWriter is the part of *kafkago.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Producer writes to one topic, retrying failed writes with a linear
// backoff.
type Producer struct {
	w       messageWriter
	retries int
	log     *logger.Logger

	mu     sync.RWMutex
	closed bool
}

func NewProducer(cfg Config, log *logger.Logger) (*Producer, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka config: %w", err)
	}
	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Transport:              transport,
		Balancer:               &kafkago.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafkago.RequiredAcks(cfg.RequiredAcks),
		Compression:            compression(cfg.Compression),
		AllowAutoTopicCreation: true,
		ErrorLogger: kafkago.LoggerFunc(func(msg string, args ...interface{}) {
			log.Warn("kafka writer: " + fmt.Sprintf(msg, args...))
		}),
	}
	return newProducer(w, cfg.Retries, log), nil
}

func newProducer(w messageWriter, retries int, log *logger.Logger) *Producer {
	return &Producer{w: w, retries: max(retries, 1), log: log}
}

// Publish writes msgs, giving up after the configured retries or when ctx
// ends.
func (p *Producer) Publish(ctx context.Context, msgs ...kafkago.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return fmt.Errorf("kafka producer is closed")
	}

	var err error
	for attempt := 1; attempt <= p.retries; attempt++ {
		if err = p.w.WriteMessages(ctx, msgs...); err == nil {
			return nil
		}
		if attempt == p.retries {
			break
		}
		p.log.Debug("kafka write failed, retrying", logger.Fields("attempt", attempt, logger.FieldError, err.Error()))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("kafka write after %d attempts: %w", p.retries, err)
}

// Close flushes pending messages. Safe to call more than once.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.w.Close()
}
