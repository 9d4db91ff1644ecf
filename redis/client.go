package redis

import (
	"context"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/kbukum/scribe/logger"
)

// Client wraps a go-redis client.
type Client struct {
	rdb *goredis.Client
	cfg Config
	log *logger.Logger

	mu     sync.Mutex
	closed bool
}

func New(cfg Config, log *logger.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("redis config: %w", err)
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	log.Debug("redis client created", logger.Fields("addr", cfg.Addr, "db", cfg.DB, "pool_size", cfg.PoolSize))
	return &Client{rdb: rdb, cfg: cfg, log: log}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Publish sends payload on the channel and appends it to the stream, each
// when configured. It returns the number of channel subscribers reached.
func (c *Client) Publish(ctx context.Context, key string, payload []byte) (int64, error) {
	var receivers int64
	if c.cfg.Channel != "" {
		n, err := c.rdb.Publish(ctx, c.cfg.Channel, payload).Result()
		if err != nil {
			return 0, fmt.Errorf("redis publish %s: %w", c.cfg.Channel, err)
		}
		receivers = n
	}
	if c.cfg.Stream != "" {
		err := c.rdb.XAdd(ctx, &goredis.XAddArgs{
			Stream: c.cfg.Stream,
			MaxLen: c.cfg.StreamMaxLen,
			Approx: true,
			Values: map[string]any{"key": key, "event": payload},
		}).Err()
		if err != nil {
			return receivers, fmt.Errorf("redis xadd %s: %w", c.cfg.Stream, err)
		}
	}
	return receivers, nil
}

// Close is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rdb.Close()
}
