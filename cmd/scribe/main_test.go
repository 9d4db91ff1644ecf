package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kbukum/scribe/history"
	"github.com/kbukum/scribe/scribe"
)

const elevenLabsReply = `{
  "language_code": "en",
  "language_probability": 0.97,
  "diarize": true,
  "num_speakers": 2,
  "audio_events": [{"type": "laughter", "start": 1.0, "end": 1.4}],
  "words": [
    {"type": "word", "text": "Hello", "start": 0.0, "end": 0.4, "speaker_id": "speaker_0"},
    {"type": "spacing", "text": " ", "start": 0.4, "end": 0.5, "speaker_id": "speaker_0"},
    {"type": "word", "text": "there", "start": 0.5, "end": 0.9, "speaker_id": "speaker_0"},
    {"type": "word", "text": "Hi", "start": 1.5, "end": 1.8, "speaker_id": "speaker_1"}
  ]
}`

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigAliasAndOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "name: scribe\nserver:\n  port: 8000\n")
	t.Setenv("ELEVENLABS", "legacy-key")

	cfg, err := loadConfig(&rootFlags{configFile: path, envFile: filepath.Join(dir, "none.env")}, map[string]any{"server.port": 9100})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.ElevenLabs.APIKey != "legacy-key" {
		t.Errorf("api key = %q", cfg.ElevenLabs.APIKey)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestRootCommand(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"serve", "transcribe", "history", "version"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
	if root.Flags().Lookup("port") == nil {
		t.Error("root should accept serve flags")
	}

	root.SetArgs([]string{"transcribe"})
	root.SetOut(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Error("transcribe without FILE should fail")
	}
}

func TestTranscribeEndToEnd(t *testing.T) {
	var gotKey, gotModel string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("xi-api-key")
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			gotModel = r.FormValue("model_id")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(elevenLabsReply))
	}))
	defer api.Close()

	dir := t.TempDir()
	audio := filepath.Join(dir, "call.wav")
	if err := os.WriteFile(audio, []byte("RIFF....WAVE"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeConfig(t, dir, strings.Join([]string{
		"name: scribe",
		"logging:",
		"  level: error",
		"elevenlabs:",
		"  api_key: test-key",
		"  base_url: " + api.URL,
		"workspace:",
		"  dir: " + filepath.Join(dir, "ws"),
		"storage:",
		"  enabled: true",
		"  provider: local",
		"  base_path: " + filepath.Join(dir, "audit"),
		"history:",
		"  enabled: true",
		"  dsn: " + filepath.Join(dir, "db", "scribe.db"),
	}, "\n"))

	cfg, err := loadConfig(&rootFlags{configFile: cfgPath, envFile: filepath.Join(dir, "none.env")}, nil)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	var out bytes.Buffer
	if err := runTranscribe(context.Background(), cfg, audio, "scribe_v2", "", &out); err != nil {
		t.Fatalf("runTranscribe: %v", err)
	}
	if gotKey != "test-key" || gotModel != "scribe_v2" {
		t.Errorf("upstream saw key=%q model=%q", gotKey, gotModel)
	}

	var resp scribe.Response
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode output %q: %v", out.String(), err)
	}
	if resp.Status != scribe.StatusSuccess || len(resp.Segments) != 2 || resp.Segments[0].Text != "Hello there" {
		t.Errorf("resp = %+v", resp)
	}
	if len(resp.AudioEvents) != 1 || resp.AudioEvents[0].Type != "laughter" {
		t.Errorf("audio events = %+v", resp.AudioEvents)
	}

	audits, _ := filepath.Glob(filepath.Join(dir, "audit", "*_Transcription.txt"))
	if len(audits) != 1 {
		t.Errorf("audit files = %v", audits)
	}
	staged, _ := os.ReadDir(filepath.Join(dir, "ws"))
	if len(staged) != 0 {
		t.Errorf("workspace not cleaned: %v", staged)
	}
	if _, err := os.Stat(audio); err != nil {
		t.Errorf("source file should be left alone: %v", err)
	}

	var listed bytes.Buffer
	if err := runHistory(context.Background(), cfg, history.Filter{}, formatJSON, &listed); err != nil {
		t.Fatalf("runHistory: %v", err)
	}
	var rec history.Record
	if err := json.Unmarshal(listed.Bytes(), &rec); err != nil {
		t.Fatalf("decode history %q: %v", listed.String(), err)
	}
	if rec.FileName != "call.wav" || rec.Source != scribe.SourceCLI || rec.Status != history.StatusSuccess || rec.Segments != 2 {
		t.Errorf("history record = %+v", rec)
	}

	var table bytes.Buffer
	if err := runHistory(context.Background(), cfg, history.Filter{}, formatTable, &table); err != nil {
		t.Fatalf("runHistory table: %v", err)
	}
	if !strings.Contains(table.String(), "call.wav") || !strings.Contains(table.String(), rec.ID) {
		t.Errorf("table output = %q", table.String())
	}
}

func TestHistoryRequiresEnabled(t *testing.T) {
	cfg := &scribe.Config{}
	cfg.ApplyDefaults()
	if err := runHistory(context.Background(), cfg, history.Filter{}, formatJSON, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error when history is disabled")
	}
}
