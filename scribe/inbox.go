package scribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/logger"
)

// audioExtensions are the files the inbox picks up.
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".ogg":  true,
	".flac": true,
	".webm": true,
	".mp4":  true,
	".aac":  true,
}

var (
	_ component.Component   = (*Inbox)(nil)
	_ component.Describable = (*Inbox)(nil)
)

// Inbox watches a directory and transcribes audio files dropped into it.
// Writers should create files under a .tmp name and rename them when
// complete. Each file is removed once processed, whatever the outcome.
type Inbox struct {
	cfg    InboxConfig
	svc    Transcriber
	events *EventHub
	log    *logger.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	queue   chan string
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewInbox builds the watcher. events may be nil.
func NewInbox(cfg InboxConfig, svc Transcriber, events *EventHub, log *logger.Logger) *Inbox {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultInboxWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultInboxQueue
	}
	if cfg.ModelID == "" {
		cfg.ModelID = DefaultModelID
	}
	return &Inbox{cfg: cfg, svc: svc, events: events, log: log.WithComponent("inbox")}
}

func (in *Inbox) Name() string { return "inbox" }

func (in *Inbox) Start(ctx context.Context) error {
	if err := os.MkdirAll(in.cfg.Dir, 0o755); err != nil {
		return fmt.Errorf("inbox dir: %w", err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("inbox watcher: %w", err)
	}
	if err := w.Add(in.cfg.Dir); err != nil {
		_ = w.Close()
		return fmt.Errorf("inbox watch %s: %w", in.cfg.Dir, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	in.mu.Lock()
	in.watcher = w
	in.queue = make(chan string, in.cfg.QueueSize)
	in.cancel = cancel
	in.mu.Unlock()

	in.wg.Add(1)
	go in.watch(runCtx, w)
	for range in.cfg.Workers {
		in.wg.Add(1)
		go in.worker(runCtx)
	}
	in.log.Info("watching inbox", logger.Fields("dir", in.cfg.Dir, "workers", in.cfg.Workers))
	return nil
}

// Stop closes the watcher and waits for in-flight files to finish.
func (in *Inbox) Stop(_ context.Context) error {
	in.mu.Lock()
	w, cancel := in.watcher, in.cancel
	in.watcher, in.cancel = nil, nil
	in.mu.Unlock()
	if w == nil {
		return nil
	}
	cancel()
	err := w.Close()
	in.wg.Wait()
	return err
}

func (in *Inbox) Health(_ context.Context) component.Health {
	in.mu.Lock()
	running := in.watcher != nil
	in.mu.Unlock()
	if !running {
		return component.Health{Name: in.Name(), Status: component.StatusUnhealthy, Message: "not watching"}
	}
	return component.Health{Name: in.Name(), Status: component.StatusHealthy}
}

func (in *Inbox) Describe() component.Description {
	return component.Description{
		Name:    "Inbox",
		Type:    "watcher",
		Details: fmt.Sprintf("dir=%s workers=%d", in.cfg.Dir, in.cfg.Workers),
	}
}

func (in *Inbox) watch(ctx context.Context, w *fsnotify.Watcher) {
	defer in.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) && accepts(ev.Name) {
				in.enqueue(ev.Name)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			in.log.Error("inbox watcher error", logger.Fields(logger.FieldError, err.Error()))
		}
	}
}

// accepts reports whether path is a finished audio file.
func accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ".tmp") {
		return false
	}
	if !audioExtensions[strings.ToLower(filepath.Ext(base))] {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (in *Inbox) enqueue(path string) {
	select {
	case in.queue <- path:
		in.log.Debug("queued", logger.Fields(logger.FieldFile, filepath.Base(path)))
	default:
		in.log.Warn("inbox queue full, file left in place", logger.Fields(logger.FieldFile, filepath.Base(path)))
	}
}

func (in *Inbox) worker(ctx context.Context) {
	defer in.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-in.queue:
			in.process(ctx, path)
		}
	}
}

func (in *Inbox) process(ctx context.Context, path string) {
	name := filepath.Base(path)
	requestID := uuid.NewString()
	log := in.log.WithFields(logger.Fields(logger.FieldFile, name, logger.FieldRequestID, requestID))

	f, err := os.Open(path)
	if err != nil {
		log.Error("inbox file unreadable", logger.Fields(logger.FieldError, err.Error()))
		in.events.Publish(Event{
			Type:      EventFailed,
			RequestID: requestID,
			FileName:  name,
			Data:      map[string]any{"stage": "inbox", "error": err.Error()},
		})
		return
	}

	resp, err := in.svc.Transcribe(logger.ContextWithRequestID(ctx, requestID), Upload{
		FileName:  name,
		Body:      f,
		ModelID:   in.cfg.ModelID,
		Provider:  in.cfg.Provider,
		RequestID: requestID,
		Source:    SourceInbox,
	})
	_ = f.Close()
	if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
		log.Warn("failed to remove inbox file", logger.Fields(logger.FieldError, rmErr.Error()))
	}
	if err != nil {
		log.Error("inbox transcription failed", logger.Fields(logger.FieldError, err.Error()))
		return
	}
	log.Info("inbox file transcribed", logger.Fields(logger.FieldSegments, len(resp.Segments), "status", resp.Status))
}
