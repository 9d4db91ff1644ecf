package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// ByteClient is a []byte view over a Storage, used for small documents such
// as audit records.
type ByteClient struct {
	storage Storage
	prefix  string
}

// NewByteClient scopes every key under prefix, which may be empty.
func NewByteClient(s Storage, prefix string) *ByteClient {
	return &ByteClient{storage: s, prefix: prefix}
}

func (c *ByteClient) Put(ctx context.Context, key string, data []byte) (string, error) {
	full := JoinKey(c.prefix, key)
	if err := c.storage.Upload(ctx, full, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("put %s: %w", full, err)
	}
	return full, nil
}

func (c *ByteClient) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := c.storage.Download(ctx, JoinKey(c.prefix, key))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

func (c *ByteClient) Delete(ctx context.Context, key string) error {
	return c.storage.Delete(ctx, JoinKey(c.prefix, key))
}
