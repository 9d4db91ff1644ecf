package scribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/history"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/observability"
	"github.com/kbukum/scribe/storage"
	"github.com/kbukum/scribe/transcription"
	"github.com/kbukum/scribe/util"
	"github.com/kbukum/scribe/validation"
)

const (
	DefaultModelID = "scribe_v1"

	SourceHTTP  = "http"
	SourceInbox = "inbox"
	SourceCLI   = "cli"

	auditSuffix = "_Transcription.txt"
	operation   = "transcribe"
)

// Transcriber runs one upload through the pipeline. The HTTP handler, the
// inbox and the CLI depend on this rather than on *Service.
type Transcriber interface {
	Transcribe(ctx context.Context, up Upload) (*Response, error)
}

// Upload is one audio file submitted for transcription.
type Upload struct {
	// FileName is the client's name for the file. Only its extension and
	// base name are used.
	FileName string    `json:"file_name" validate:"required"`
	Body     io.Reader `json:"-"`
	ModelID  string    `json:"model_id" validate:"max=64"`
	// Provider selects a registered backend, empty for the default.
	Provider  string `json:"provider" validate:"max=64"`
	RequestID string `json:"request_id"`
	// Source names the surface that submitted the upload: http, inbox or cli.
	Source string `json:"source" validate:"max=16"`
}

// StorageSource yields the audit backend, or nil when audit copies are
// off. *storage.Component implements it.
type StorageSource interface {
	Storage() storage.Storage
}

// HistorySource yields the attempt log, or nil when history is off.
// *history.Component implements it.
type HistorySource interface {
	Store() *history.Store
}

// Options wires a Service. Providers and Workspace are required.
type Options struct {
	ServiceName string
	Providers   *transcription.Registry
	Workspace   *Workspace
	Audit       StorageSource
	// AuditPrefix is prepended to audit keys.
	AuditPrefix string
	History     HistorySource
	Events      *EventHub
	Metrics     *observability.Metrics
	Logger      *logger.Logger
}

// Service is the transcription pipeline: stage, transcribe, clean up,
// assemble, audit and publish.
type Service struct {
	name        string
	providers   *transcription.Registry
	workspace   *Workspace
	audit       StorageSource
	auditPrefix string
	history     HistorySource
	events      *EventHub
	metrics     *observability.Metrics
	log         *logger.Logger
}

var _ Transcriber = (*Service)(nil)

func NewService(opts Options) (*Service, error) {
	if opts.Providers == nil {
		return nil, fmt.Errorf("scribe: providers registry is required")
	}
	if opts.Workspace == nil {
		return nil, fmt.Errorf("scribe: workspace is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		name:        util.Coalesce(opts.ServiceName, ServiceName),
		providers:   opts.Providers,
		workspace:   opts.Workspace,
		audit:       opts.Audit,
		auditPrefix: opts.AuditPrefix,
		history:     opts.History,
		events:      opts.Events,
		metrics:     opts.Metrics,
		log:         log.WithComponent("pipeline"),
	}, nil
}

// Transcribe validates up, then runs the pipeline. Validation and provider
// selection failures keep their own codes. Everything after that is
// reported as TRANSCRIPTION_FAILED.
//
// The provider call and the audit write are detached from ctx, so a client
// that disconnects mid-call does not abort them.
func (s *Service) Transcribe(ctx context.Context, up Upload) (*Response, error) {
	start := time.Now()
	if up.ModelID == "" {
		up.ModelID = DefaultModelID
	}
	if err := validation.Validate(up); err != nil {
		return nil, err
	}
	if up.Body == nil {
		return nil, errors.MissingField("file")
	}

	provider, err := s.providers.Resolve(ctx, up.Provider)
	if err != nil {
		s.selectionFailed(ctx, up, start, err)
		return nil, err
	}

	ctx, span := observability.StartSpan(ctx, observability.SpanTranscribe)
	defer span.End()

	log := s.log.WithContext(ctx).WithFields(logger.Fields(
		logger.FieldProvider, provider.Name(),
		logger.FieldModelID, up.ModelID,
	))
	fileName := util.BaseName(up.FileName)
	attempt := history.Record{
		RequestID: up.RequestID,
		FileName:  fileName,
		Provider:  provider.Name(),
		ModelID:   up.ModelID,
		Source:    up.Source,
	}
	fail := func(stage string, cause error) (*Response, error) {
		log.Error("transcription failed", logger.Fields("stage", stage, logger.FieldError, cause.Error()))
		attempt.Status = history.StatusFailed
		attempt.ExecTime = roundSeconds(time.Since(start))
		attempt.Error = stage + ": " + cause.Error()
		s.record(ctx, log, &attempt)
		s.events.Publish(Event{
			Type:      EventFailed,
			RequestID: up.RequestID,
			FileName:  fileName,
			Provider:  provider.Name(),
			Data:      map[string]any{"stage": stage, "error": cause.Error()},
		})
		observability.SetSpanError(ctx, cause)
		return nil, errors.TranscriptionFailed(cause)
	}

	staged, err := s.workspace.Stage(up.Body, up.FileName)
	if err != nil {
		return fail("stage", err)
	}
	log = log.WithFields(logger.Fields(logger.FieldFile, staged.Name))
	log.Debug("upload staged", logger.Fields("size", util.FormatSize(staged.Size)))

	result, err := s.call(ctx, provider, staged, transcription.Request{
		AudioPath: staged.Path,
		FileName:  util.Coalesce(fileName, staged.Name),
		ModelID:   up.ModelID,
		Progress: transcription.MultiProgress(
			transcription.NewLogProgress(log, 10),
			newProgressEvents(s.events, up.RequestID, fileName, provider.Name()),
		),
	}, up.RequestID)

	if rmErr := s.workspace.Remove(staged); rmErr != nil {
		log.Warn("failed to remove staged upload", logger.Fields(logger.FieldError, rmErr.Error()))
	}
	if err != nil {
		return fail("provider", err)
	}

	resp := Assemble(result, time.Since(start))
	if s.metrics != nil {
		s.metrics.RecordSegments(ctx, provider.Name(), len(resp.Segments))
	}

	key, err := s.writeAudit(context.WithoutCancel(ctx), staged.Name, resp)
	if err != nil {
		return fail("audit", err)
	}

	attempt.Status = resp.Status
	attempt.LanguageCode = resp.LanguageCode
	attempt.Segments = len(resp.Segments)
	attempt.ExecTime = resp.ExecTime
	attempt.AuditKey = key
	s.record(ctx, log, &attempt)

	log.Info("transcription completed", logger.Fields(
		logger.FieldSegments, len(resp.Segments),
		"status", resp.Status,
		"language", resp.LanguageCode,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	data := map[string]any{
		"status":    resp.Status,
		"segments":  len(resp.Segments),
		"exec_time": resp.ExecTime,
	}
	if key != "" {
		data["audit_key"] = key
	}
	s.events.Publish(Event{
		Type:      EventCompleted,
		RequestID: up.RequestID,
		FileName:  fileName,
		Provider:  provider.Name(),
		Data:      data,
	})
	return resp, nil
}

// selectionFailed records and publishes an attempt whose provider could not
// be resolved. The caller still returns err with its own code.
func (s *Service) selectionFailed(ctx context.Context, up Upload, start time.Time, err error) {
	name := util.Coalesce(up.Provider, s.providers.Default())
	fileName := util.BaseName(up.FileName)
	log := s.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldProvider, name))
	log.Warn("provider selection failed", logger.Fields(logger.FieldError, err.Error()))

	s.record(ctx, log, &history.Record{
		RequestID: up.RequestID,
		FileName:  fileName,
		Provider:  name,
		ModelID:   up.ModelID,
		Source:    up.Source,
		Status:    history.StatusFailed,
		ExecTime:  roundSeconds(time.Since(start)),
		Error:     "select: " + err.Error(),
	})
	s.events.Publish(Event{
		Type:      EventFailed,
		RequestID: up.RequestID,
		FileName:  fileName,
		Provider:  name,
		Data:      map[string]any{"stage": "select", "error": err.Error()},
	})
}

// call runs the provider inside the transcription.call span.
func (s *Service) call(ctx context.Context, p transcription.Provider, staged *StagedFile, req transcription.Request, requestID string) (*transcription.Result, error) {
	oc := observability.NewOperationContext(s.name, operation, requestID, p.Name(), s.metrics)
	ctx, span := oc.StartSpanForOperation(ctx, observability.SpanTranscriptionCall)
	observability.SetSpanAttribute(ctx, observability.AttrModelID, req.ModelID)
	observability.SetSpanAttribute(ctx, observability.AttrBytes, staged.Size)

	result, err := p.Transcribe(ctx, req)
	status := "success"
	if err != nil {
		status = "error"
	} else if s.metrics != nil {
		s.metrics.RecordBytesUploaded(ctx, p.Name(), staged.Size)
	}
	oc.EndOperation(ctx, span, status, err)
	return result, err
}

// record appends rec to the attempt log. History is best effort: a failed
// write is logged and never fails the request.
func (s *Service) record(ctx context.Context, log *logger.Logger, rec *history.Record) {
	if s.history == nil {
		return
	}
	store := s.history.Store()
	if store == nil {
		return
	}
	if err := store.Save(context.WithoutCancel(ctx), rec); err != nil {
		log.Warn("failed to record transcription history", logger.Fields(logger.FieldError, err.Error()))
	}
}

// writeAudit stores resp as indented JSON next to the staged name. It
// returns the key written, or "" when no audit backend is active.
func (s *Service) writeAudit(ctx context.Context, stagedName string, resp *Response) (string, error) {
	if s.audit == nil {
		return "", nil
	}
	store := s.audit.Storage()
	if store == nil {
		return "", nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return "", fmt.Errorf("encode audit copy: %w", err)
	}
	key, err := storage.NewByteClient(store, s.auditPrefix).Put(ctx, stagedName+auditSuffix, buf.Bytes())
	if err != nil {
		return "", fmt.Errorf("write audit copy: %w", err)
	}
	return key, nil
}

// Providers exposes the registry, for /info and the startup summary.
func (s *Service) Providers() *transcription.Registry { return s.providers }
