package scribe

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/kbukum/scribe/logger"
)

// Event types published on the hub.
const (
	EventUploadProgress = "upload.progress"
	EventCompleted      = "transcription.completed"
	EventFailed         = "transcription.failed"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	subscriberBuffer = 64
	keepAlive        = 30 * time.Second
)

// Event is one pipeline notification, sent as a JSON text message.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Time      time.Time      `json:"time"`
	RequestID string         `json:"request_id,omitempty"`
	FileName  string         `json:"file_name,omitempty"`
	Provider  string         `json:"provider,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// EventHub fans events out to subscribers. Sends never block: a subscriber
// whose buffer is full misses the event.
type EventHub struct {
	log      *logger.Logger
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	subs   map[chan []byte]subscription
	closed bool
}

// subscription limits delivery to a set of event types. The zero value
// receives everything.
type subscription struct {
	types []string
}

func (s subscription) wants(eventType string) bool {
	return len(s.types) == 0 || slices.Contains(s.types, eventType)
}

// NewEventHub accepts websocket upgrades from origins, where "*" allows any
// origin and an empty list allows only same-origin requests.
func NewEventHub(log *logger.Logger, origins []string) *EventHub {
	h := &EventHub{
		log:  log.WithComponent("events"),
		subs: make(map[chan []byte]subscription),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(origins),
	}
	return h
}

func originChecker(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return nil
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range origins {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// Subscribe registers a new buffered subscriber. cancel unregisters it and
// closes the channel.
func (h *EventHub) Subscribe() (events <-chan []byte, cancel func()) {
	return h.subscribe(subscriberBuffer, subscription{})
}

// SubscribeTypes registers a subscriber that only receives the listed event
// types, with its own buffer size. Drops on such a subscriber are logged at
// warn level since they are usually forwarded elsewhere.
func (h *EventHub) SubscribeTypes(buffer int, types ...string) (events <-chan []byte, cancel func()) {
	return h.subscribe(max(buffer, 1), subscription{types: types})
}

func (h *EventHub) subscribe(buffer int, sub subscription) (<-chan []byte, func()) {
	ch := make(chan []byte, buffer)
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = sub
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if _, ok := h.subs[ch]; ok {
				delete(h.subs, ch)
				close(ch)
			}
			h.mu.Unlock()
		})
	}
}

// Publish stamps e with an id and time and delivers it. A nil hub discards
// events.
func (h *EventHub) Publish(e Event) {
	if h == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}
	msg, err := json.Marshal(e)
	if err != nil {
		h.log.Warn("event encode failed", logger.Fields(logger.FieldError, err.Error(), "type", e.Type))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch, sub := range h.subs {
		if !sub.wants(e.Type) {
			continue
		}
		select {
		case ch <- msg:
		default:
			fields := logger.Fields("type", e.Type, logger.FieldRequestID, e.RequestID)
			if len(sub.types) > 0 {
				h.log.Warn("filtered subscriber lagging, event dropped", fields)
				continue
			}
			h.log.Debug("subscriber lagging, event dropped", fields)
		}
	}
}

func (h *EventHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close disconnects every subscriber. Later subscriptions are closed
// immediately.
func (h *EventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// ServeWS upgrades the request and streams events until either side goes
// away. Inbound messages are read only to process control frames.
func (h *EventHub) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		h.log.Debug("websocket upgrade failed", logger.Fields(logger.FieldError, err.Error()))
		return
	}
	events, cancel := h.Subscribe()
	h.log.Debug("subscriber connected", logger.Fields("remote", c.Request.RemoteAddr))

	go h.readPump(conn, cancel)
	h.writePump(conn, events)
}

// ServeSSE streams events as Server-Sent Events, for clients that cannot
// open a websocket. Each message is a "data:" line holding the event JSON.
func (h *EventHub) ServeSSE(c *gin.Context) {
	w := c.Writer
	// Streams outlive the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.log.Debug("could not clear write deadline", logger.Fields(logger.FieldError, err.Error()))
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, ": connected\n\n")
	w.Flush()

	events, cancel := h.Subscribe()
	defer cancel()
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-events:
			if !ok {
				return
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", msg); err != nil {
				return
			}
			w.Flush()
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			w.Flush()
		}
	}
}

func (h *EventHub) writePump(conn *websocket.Conn, events <-chan []byte) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case msg, ok := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *EventHub) readPump(conn *websocket.Conn, cancel func()) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read error", logger.Fields(logger.FieldError, err.Error()))
			}
			return
		}
	}
}

// progressEvents publishes upload progress in steps of ten percent.
type progressEvents struct {
	hub       *EventHub
	requestID string
	fileName  string
	provider  string

	mu   sync.Mutex
	last int64
}

func newProgressEvents(hub *EventHub, requestID, fileName, provider string) *progressEvents {
	return &progressEvents{hub: hub, requestID: requestID, fileName: fileName, provider: provider, last: -1}
}

func (p *progressEvents) BytesTransferred(sent, total int64) {
	if p.hub == nil || total <= 0 {
		return
	}
	pct := min(sent*100/total, 100)
	bucket := pct / 10 * 10

	p.mu.Lock()
	if bucket <= p.last {
		p.mu.Unlock()
		return
	}
	p.last = bucket
	p.mu.Unlock()

	p.hub.Publish(Event{
		Type:      EventUploadProgress,
		RequestID: p.requestID,
		FileName:  p.fileName,
		Provider:  p.provider,
		Data:      map[string]any{"sent": sent, "total": total, "percent": bucket},
	})
}
