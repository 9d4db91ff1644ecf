package history

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/logger"
)

func startComponent(t *testing.T, retention int) *Component {
	t.Helper()
	c := NewComponent(Config{
		Enabled:   true,
		DSN:       filepath.Join(t.TempDir(), "db", "scribe.db"),
		Retention: retention,
	}, logger.Nop())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = c.Stop(context.Background()) })
	return c
}

func record(file, provider, status string, at time.Time) *Record {
	return &Record{FileName: file, Provider: provider, Status: status, CreatedAt: at}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.DSN != DefaultDSN || cfg.MaxOpenConns != 1 || cfg.LogLevel != "warn" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled config should validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"valid", func(*Config) {}, ""},
		{"bad threshold", func(c *Config) { c.SlowQueryThreshold = "soon" }, "slow_query_threshold"},
		{"bad level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"negative retention", func(c *Config) { c.Retention = -1 }, "retention"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Config{Enabled: true}
			c.ApplyDefaults()
			tc.mutate(&c)
			err := c.Validate()
			if tc.errMsg == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.errMsg) {
				t.Errorf("error = %v, want containing %q", err, tc.errMsg)
			}
		})
	}
}

func TestDSNDir(t *testing.T) {
	tests := map[string]string{
		":memory:":                   "",
		"file::memory:?cache=shared": "",
		"scribe.db":                  "",
		"./data/scribe.db":           "data",
		"file:/var/lib/s.db?_fk=1":   "/var/lib",
	}
	for dsn, want := range tests {
		if got := dsnDir(dsn); got != want {
			t.Errorf("dsnDir(%q) = %q, want %q", dsn, got, want)
		}
	}
}

func TestComponentDisabled(t *testing.T) {
	c := NewComponent(Config{}, logger.Nop())
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.Store() != nil {
		t.Error("disabled component should have no store")
	}
	if h := c.Health(context.Background()); h.Status != component.StatusHealthy || h.Message != "disabled" {
		t.Errorf("health = %+v", h)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Errorf("Stop: %v", err)
	}
}

func TestComponentLifecycle(t *testing.T) {
	c := startComponent(t, 0)
	if c.Store() == nil {
		t.Fatal("store should be set after Start")
	}
	if h := c.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("health = %+v", h)
	}
	if d := c.Describe(); !strings.Contains(d.Details, "schema=v1") {
		t.Errorf("describe = %q", d.Details)
	}
	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if c.Store() != nil {
		t.Error("store should be cleared after Stop")
	}
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("health after stop = %+v", h)
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	c := startComponent(t, 0)
	c.mu.RLock()
	db := c.db
	c.mu.RUnlock()

	if v, err := migrateUp(db); err != nil || v != 1 {
		t.Fatalf("second migrateUp = %d, %v", v, err)
	}
	if err := migrateDown(db); err != nil {
		t.Fatalf("migrateDown: %v", err)
	}
	if db.Migrator().HasTable(&Record{}) {
		t.Error("table should be dropped")
	}
	if _, err := migrateUp(db); err != nil {
		t.Fatalf("migrateUp after down: %v", err)
	}
	if !db.Migrator().HasTable(&Record{}) {
		t.Error("table should exist again")
	}
}

func TestStoreSaveAndGet(t *testing.T) {
	store := startComponent(t, 0).Store()
	ctx := context.Background()

	rec := &Record{
		RequestID:    "req-1",
		FileName:     "call.mp3",
		Provider:     "elevenlabs",
		ModelID:      "scribe_v1",
		Source:       "http",
		Status:       StatusSuccess,
		LanguageCode: "en",
		Segments:     4,
		ExecTime:     1.25,
		AuditKey:     "audit/call.mp3_Transcription.txt",
	}
	if err := store.Save(ctx, rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rec.ID == "" || rec.CreatedAt.IsZero() {
		t.Fatalf("id and created_at should be set: %+v", rec)
	}

	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.FileName != "call.mp3" || got.Segments != 4 || got.ExecTime != 1.25 || got.AuditKey != rec.AuditKey {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestStoreGetUnknown(t *testing.T) {
	store := startComponent(t, 0).Store()
	_, err := store.Get(context.Background(), "missing")
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) || appErr.Code != errors.ErrCodeNotFound {
		t.Fatalf("error = %v, want NOT_FOUND", err)
	}
	if appErr.Details["id"] != "missing" {
		t.Errorf("details = %v", appErr.Details)
	}
}

func TestStoreListAndCounts(t *testing.T) {
	store := startComponent(t, 0).Store()
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, r := range []*Record{
		record("a.mp3", "elevenlabs", StatusSuccess, base),
		record("b.mp3", "whisper", StatusFailed, base.Add(time.Minute)),
		record("c.mp3", "elevenlabs", StatusError, base.Add(2*time.Minute)),
		record("d.mp3", "elevenlabs", StatusSuccess, base.Add(3*time.Minute)),
	} {
		if err := store.Save(ctx, r); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all newest first", Filter{}, []string{"d.mp3", "c.mp3", "b.mp3", "a.mp3"}},
		{"by provider", Filter{Provider: "whisper"}, []string{"b.mp3"}},
		{"by status", Filter{Status: StatusSuccess}, []string{"d.mp3", "a.mp3"}},
		{"limit", Filter{Limit: 2}, []string{"d.mp3", "c.mp3"}},
		{"no match", Filter{Provider: "nobody"}, []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := store.List(ctx, tc.filter)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d records, want %d", len(got), len(tc.want))
			}
			for i, name := range tc.want {
				if got[i].FileName != name {
					t.Errorf("record %d = %q, want %q", i, got[i].FileName, name)
				}
			}
		})
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts[StatusSuccess] != 2 || counts[StatusError] != 1 || counts[StatusFailed] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestStoreRetention(t *testing.T) {
	store := startComponent(t, 2).Store()
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, name := range []string{"old.mp3", "mid.mp3", "new.mp3"} {
		if err := store.Save(ctx, record(name, "elevenlabs", StatusSuccess, base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	got, err := store.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].FileName != "new.mp3" || got[1].FileName != "mid.mp3" {
		t.Errorf("retained = %+v", got)
	}
}

func TestFilterLimit(t *testing.T) {
	tests := map[int]int{0: DefaultLimit, -3: DefaultLimit, 10: 10, MaxLimit + 1: MaxLimit}
	for in, want := range tests {
		if got := (Filter{Limit: in}).limit(); got != want {
			t.Errorf("limit(%d) = %d, want %d", in, got, want)
		}
	}
}
