package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/logger"
)

type mapStorage struct {
	data      map[string][]byte
	existsErr error
}

func newMapStorage() *mapStorage { return &mapStorage{data: map[string][]byte{}} }

func (m *mapStorage) Upload(_ context.Context, key string, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.data[key] = b
	return nil
}

func (m *mapStorage) Download(_ context.Context, key string) (io.ReadCloser, error) {
	b, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m *mapStorage) Delete(_ context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mapStorage) Exists(_ context.Context, key string) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	_, ok := m.data[key]
	return ok, nil
}

func (m *mapStorage) URL(_ context.Context, key string) (string, error) { return "map://" + key, nil }

func (m *mapStorage) List(_ context.Context, prefix string) ([]FileInfo, error) {
	var out []FileInfo
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, FileInfo{Path: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a.txt", "a.txt", false},
		{"/audits/a.txt", "audits/a.txt", false},
		{"audits//x/./a.txt", "audits/x/a.txt", false},
		{`audits\a.txt`, "audits/a.txt", false},
		{"../etc/passwd", "", true},
		{"a/../../b", "", true},
		{`..\b`, "", true},
		{"", "", true},
		{"/", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := CleanKey(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("CleanKey(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("CleanKey(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestJoinKey(t *testing.T) {
	if got := JoinKey("", "a.txt"); got != "a.txt" {
		t.Errorf("got %q", got)
	}
	if got := JoinKey("/audits/", "/a.txt"); got != "audits/a.txt" {
		t.Errorf("got %q", got)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"local defaults", Config{}, ""},
		{"memory", Config{Provider: ProviderMemory}, ""},
		{"s3 ok", Config{Provider: ProviderS3, Bucket: "b"}, ""},
		{"s3 missing bucket", Config{Provider: ProviderS3}, "bucket is required"},
		{"s3 half credentials", Config{Provider: ProviderS3, Bucket: "b", AccessKey: "x"}, "must be set together"},
		{"unknown", Config{Provider: "ftp"}, "unsupported provider"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tc.cfg
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestNewUsesRegisteredFactory(t *testing.T) {
	backing := newMapStorage()
	RegisterFactory(ProviderMemory, func(context.Context, Config, *logger.Logger) (Storage, error) { return backing, nil })

	s, err := New(context.Background(), Config{Provider: ProviderMemory}, logger.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s != backing {
		t.Error("expected the registered backend")
	}
	if _, err := New(context.Background(), Config{Provider: "ftp"}, logger.Nop()); err == nil {
		t.Error("expected unsupported provider error")
	}
}

func TestByteClient(t *testing.T) {
	backing := newMapStorage()
	c := NewByteClient(backing, "audits")
	ctx := context.Background()

	key, err := c.Put(ctx, "x_Transcription.txt", []byte(`{"status":"success"}`))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if key != "audits/x_Transcription.txt" {
		t.Errorf("key = %q", key)
	}
	got, err := c.Get(ctx, "x_Transcription.txt")
	if err != nil || string(got) != `{"status":"success"}` {
		t.Errorf("Get = %q, %v", got, err)
	}
	if err := c.Delete(ctx, "x_Transcription.txt"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, "x_Transcription.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestComponentDisabled(t *testing.T) {
	c := NewComponent(Config{}, logger.Nop())
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Storage() != nil || c.IsAvailable(ctx) {
		t.Error("disabled component must not expose storage")
	}
	if h := c.Health(ctx); h.Status != component.StatusHealthy || h.Message != "disabled" {
		t.Errorf("health = %+v", h)
	}
	if d := c.Describe(); d.Details != "disabled" {
		t.Errorf("describe = %+v", d)
	}
}

func TestComponentInvalidConfigFailsStart(t *testing.T) {
	c := NewComponent(Config{Enabled: true, Provider: ProviderS3}, logger.Nop())
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected error for s3 without bucket")
	}
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("health = %+v", h)
	}
}
