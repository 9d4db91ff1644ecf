package scribe

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kbukum/scribe/component"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/util"
)

const (
	sinkSendTimeout = 5 * time.Second
	sinkBuffer      = 256
)

// EventSink delivers an encoded event to an external system. The redis
// and kafka packages provide implementations.
type EventSink interface {
	Name() string
	Send(ctx context.Context, key string, payload []byte) error
}

// SinkForwarder relays terminal pipeline events from the hub to external
// sinks. Progress events stay on the live feeds and never take up the
// forwarder's buffer.
type SinkForwarder struct {
	hub   *EventHub
	sinks []EventSink
	log   *logger.Logger

	sent   atomic.Int64
	failed atomic.Int64

	mu      sync.Mutex
	lastErr map[string]error
	cancel  func()
	done    chan struct{}
}

var _ component.Component = (*SinkForwarder)(nil)

func NewSinkForwarder(hub *EventHub, log *logger.Logger, sinks ...EventSink) *SinkForwarder {
	return &SinkForwarder{
		hub:     hub,
		sinks:   sinks,
		log:     log.WithComponent("sinks"),
		lastErr: make(map[string]error),
	}
}

func (f *SinkForwarder) Name() string { return "event-sinks" }

func (f *SinkForwarder) Start(_ context.Context) error {
	if len(f.sinks) == 0 {
		return nil
	}
	events, cancel := f.hub.SubscribeTypes(sinkBuffer, EventCompleted, EventFailed)
	done := make(chan struct{})
	f.mu.Lock()
	f.cancel, f.done = cancel, done
	f.mu.Unlock()

	go func() {
		defer close(done)
		for msg := range events {
			f.forward(msg)
		}
	}()
	f.log.Info("forwarding events", logger.Fields("sinks", f.names()))
	return nil
}

// Stop unsubscribes and waits for the in-flight event, bounded by ctx.
func (f *SinkForwarder) Stop(ctx context.Context) error {
	f.mu.Lock()
	cancel, done := f.cancel, f.done
	f.cancel = nil
	f.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("event sinks: %w", ctx.Err())
	}
}

func (f *SinkForwarder) forward(msg []byte) {
	var head struct {
		ID        string `json:"id"`
		Type      string `json:"type"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		f.log.Warn("undecodable event skipped", logger.Fields(logger.FieldError, err.Error()))
		return
	}
	if head.Type != EventCompleted && head.Type != EventFailed {
		return
	}
	key := util.Coalesce(head.RequestID, head.ID)

	for _, sink := range f.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkSendTimeout)
		err := sink.Send(ctx, key, msg)
		cancel()

		f.mu.Lock()
		f.lastErr[sink.Name()] = err
		f.mu.Unlock()
		if err != nil {
			f.failed.Add(1)
			f.log.Warn("event delivery failed", logger.Fields(
				"sink", sink.Name(), "type", head.Type, logger.FieldRequestID, key, logger.FieldError, err.Error()))
			continue
		}
		f.sent.Add(1)
	}
}

// Counts reports deliveries since start.
func (f *SinkForwarder) Counts() (sent, failed int64) {
	return f.sent.Load(), f.failed.Load()
}

// Health is degraded while the latest delivery to any sink has failed.
func (f *SinkForwarder) Health(_ context.Context) component.Health {
	h := component.Health{Name: f.Name(), Status: component.StatusHealthy}
	if len(f.sinks) == 0 {
		h.Message = "no sinks configured"
		return h
	}
	f.mu.Lock()
	var failing []string
	for name, err := range f.lastErr {
		if err != nil {
			failing = append(failing, fmt.Sprintf("%s: %v", name, err))
		}
	}
	f.mu.Unlock()
	if len(failing) > 0 {
		slices.Sort(failing)
		h.Status, h.Message = component.StatusDegraded, strings.Join(failing, "; ")
	}
	return h
}

func (f *SinkForwarder) Describe() component.Description {
	details := "none"
	if len(f.sinks) > 0 {
		details = strings.Join(f.names(), ",")
	}
	return component.Description{Name: "Event sinks", Type: "messaging", Details: details}
}

func (f *SinkForwarder) names() []string {
	names := make([]string, len(f.sinks))
	for i, s := range f.sinks {
		names[i] = s.Name()
	}
	return names
}
