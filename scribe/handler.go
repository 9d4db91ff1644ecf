package scribe

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/history"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/server"
)

// Handler serves the transcription API.
type Handler struct {
	svc     Transcriber
	events  *EventHub
	history HistorySource
}

// NewHandler builds the handler. events may be nil, in which case the
// event feeds are not registered.
func NewHandler(svc Transcriber, events *EventHub) *Handler {
	return &Handler{svc: svc, events: events}
}

// WithHistory enables the /transcriptions routes.
func (h *Handler) WithHistory(src HistorySource) *Handler {
	h.history = src
	return h
}

// Register mounts the API routes on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/transcribe/", h.Transcribe)
	if h.events != nil {
		r.GET("/events", h.events.ServeWS)
		r.GET("/events/stream", h.events.ServeSSE)
	}
	if h.history != nil {
		r.GET("/transcriptions", h.ListTranscriptions)
		r.GET("/transcriptions/:id", h.GetTranscription)
	}
}

// Transcribe handles a multipart upload with a "file" part and optional
// "model_id" and "provider" form fields.
func (h *Handler) Transcribe(c *gin.Context) {
	// The server write timeout would otherwise have to cover the upload and
	// the provider call together. The upload stays bounded by the read
	// timeout.
	_ = http.NewResponseController(c.Writer).SetWriteDeadline(time.Time{})

	fh, err := c.FormFile("file")
	if maxErr := (*http.MaxBytesError)(nil); stderrors.As(err, &maxErr) {
		server.RespondWithError(c, errors.PayloadTooLarge(maxErr.Limit))
		return
	}
	if err != nil {
		server.RespondWithError(c, errors.MissingField("file").WithCause(err))
		return
	}
	f, err := fh.Open()
	if err != nil {
		server.RespondWithError(c, errors.InvalidInput("file", "unreadable upload").WithCause(err))
		return
	}
	defer func() { _ = f.Close() }()

	ctx := c.Request.Context()
	resp, err := h.svc.Transcribe(ctx, Upload{
		FileName:  fh.Filename,
		Body:      f,
		ModelID:   c.DefaultPostForm("model_id", DefaultModelID),
		Provider:  c.PostForm("provider"),
		RequestID: logger.RequestIDFromContext(ctx),
		Source:    SourceHTTP,
	})
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, resp)
}

func (h *Handler) historyStore(c *gin.Context) *history.Store {
	store := h.history.Store()
	if store == nil {
		server.RespondWithError(c, errors.ServiceUnavailable("transcription history"))
	}
	return store
}

// ListTranscriptions returns recent attempts, newest first, filtered by the
// optional provider, status and limit query parameters.
func (h *Handler) ListTranscriptions(c *gin.Context) {
	store := h.historyStore(c)
	if store == nil {
		return
	}
	f := history.Filter{Provider: c.Query("provider"), Status: c.Query("status")}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			server.RespondWithError(c, errors.InvalidInput("limit", "limit must be a positive integer"))
			return
		}
		f.Limit = n
	}

	ctx := c.Request.Context()
	records, err := store.List(ctx, f)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	counts, err := store.Counts(ctx)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, gin.H{"transcriptions": records, "counts": counts})
}

func (h *Handler) GetTranscription(c *gin.Context) {
	store := h.historyStore(c)
	if store == nil {
		return
	}
	rec, err := store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	server.RespondOK(c, rec)
}
