// Package memory is an in-process object store. It backs tests and the
// "memory" provider, which keeps audit copies only for the process lifetime.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/storage"
)

func init() {
	storage.RegisterFactory(storage.ProviderMemory, func(context.Context, storage.Config, *logger.Logger) (storage.Storage, error) {
		return New(), nil
	})
}

var _ storage.Storage = (*Storage)(nil)

type object struct {
	data    []byte
	modTime time.Time
}

type Storage struct {
	mu      sync.RWMutex
	objects map[string]object
}

func New() *Storage {
	return &Storage{objects: make(map[string]object)}
}

func (s *Storage) Upload(_ context.Context, key string, reader io.Reader) error {
	k, err := storage.CleanKey(key)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("storage: read upload: %w", err)
	}
	s.mu.Lock()
	s.objects[k] = object{data: data, modTime: time.Now()}
	s.mu.Unlock()
	return nil
}

func (s *Storage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	k, err := storage.CleanKey(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	obj, ok := s.objects[k]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Storage) Delete(_ context.Context, key string) error {
	k, err := storage.CleanKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.objects, k)
	s.mu.Unlock()
	return nil
}

func (s *Storage) Exists(_ context.Context, key string) (bool, error) {
	k, err := storage.CleanKey(key)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	_, ok := s.objects[k]
	s.mu.RUnlock()
	return ok, nil
}

func (s *Storage) URL(_ context.Context, key string) (string, error) {
	k, err := storage.CleanKey(key)
	if err != nil {
		return "", err
	}
	return "memory://" + k, nil
}

func (s *Storage) List(_ context.Context, prefix string) ([]storage.FileInfo, error) {
	prefix = strings.TrimLeft(prefix, "/")
	s.mu.RLock()
	defer s.mu.RUnlock()

	files := []storage.FileInfo{}
	for k, obj := range s.objects {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		files = append(files, storage.FileInfo{
			Path:         k,
			Size:         int64(len(obj.data)),
			LastModified: obj.modTime,
			ContentType:  "application/octet-stream",
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Len reports the number of stored objects.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
