package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
)

// ErrNotFound is wrapped by Download when the object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// FileInfo describes a stored object.
type FileInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// Storage is an object store addressed by slash-separated keys.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader) error

	// Download returns the object body. The caller closes it.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete is a no-op for missing objects.
	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// URL returns a location for the object. It is not necessarily public.
	URL(ctx context.Context, key string) (string, error)

	// List returns objects whose key starts with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]FileInfo, error)
}

// CleanKey normalizes key to a relative slash path and rejects keys that
// would escape the store root.
func CleanKey(key string) (string, error) {
	k := strings.ReplaceAll(strings.TrimSpace(key), "\\", "/")
	k = strings.TrimLeft(path.Clean("/"+k), "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	for _, seg := range strings.Split(strings.ReplaceAll(key, "\\", "/"), "/") {
		if seg == ".." {
			return "", fmt.Errorf("storage: key %q escapes the store root", key)
		}
	}
	return k, nil
}

// JoinKey joins a configured prefix and a key.
func JoinKey(prefix, key string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + strings.TrimLeft(key, "/")
}
