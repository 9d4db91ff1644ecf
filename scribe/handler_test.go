package scribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/scribe/errors"
	"github.com/kbukum/scribe/logger"
	"github.com/kbukum/scribe/server"
	"github.com/kbukum/scribe/transcription"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(svc Transcriber) *gin.Engine {
	r := gin.New()
	NewHandler(svc, nil).Register(r)
	return r
}

func multipartRequest(t *testing.T, fields map[string]string, file string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if file != "" {
		fw, err := mw.CreateFormFile("file", file)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = fw.Write([]byte("audio-bytes"))
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/transcribe/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandlerTranscribe(t *testing.T) {
	svc := &stubTranscriber{resp: Assemble(sampleResult(), 0)}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, multipartRequest(t, map[string]string{"provider": "whisper"}, "call.wav"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != StatusSuccess || len(resp.Segments) != 2 {
		t.Errorf("resp = %+v", resp)
	}

	uploads, bodies := svc.calls()
	if len(uploads) != 1 {
		t.Fatalf("calls = %d", len(uploads))
	}
	up := uploads[0]
	if up.FileName != "call.wav" || up.ModelID != DefaultModelID || up.Provider != "whisper" {
		t.Errorf("upload = %+v", up)
	}
	if bodies[0] != "audio-bytes" {
		t.Errorf("body = %q", bodies[0])
	}
}

func TestHandlerModelID(t *testing.T) {
	svc := &stubTranscriber{resp: Assemble(&transcription.Result{}, 0)}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, multipartRequest(t, map[string]string{"model_id": "scribe_v2"}, "a.mp3"))
	uploads, _ := svc.calls()
	if rec.Code != http.StatusOK || uploads[0].ModelID != "scribe_v2" {
		t.Errorf("status = %d model = %q", rec.Code, uploads[0].ModelID)
	}
}

func TestHandlerMissingFile(t *testing.T) {
	svc := &stubTranscriber{}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, multipartRequest(t, map[string]string{"model_id": "scribe_v1"}, ""))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Error.Code != apperrors.ErrCodeMissingField {
		t.Errorf("code = %s", body.Error.Code)
	}
	if uploads, _ := svc.calls(); len(uploads) != 0 {
		t.Error("service must not be called")
	}
}

func TestHandlerPipelineFailure(t *testing.T) {
	svc := &stubTranscriber{err: apperrors.TranscriptionFailed(errors.New("429 Too Many Requests"))}
	rec := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(rec, multipartRequest(t, nil, "a.wav"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body apperrors.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Detail != "429 Too Many Requests" {
		t.Errorf("detail = %q", body.Detail)
	}
	if body.Error.Code != apperrors.ErrCodeTranscriptionFailed || body.Error.Message != "Transcription failed: 429 Too Many Requests" {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestHandlerEventsRouteOptional(t *testing.T) {
	r := gin.New()
	NewHandler(&stubTranscriber{}, NewEventHub(logger.Nop(), nil)).Register(r)
	found := map[string]bool{}
	for _, route := range r.Routes() {
		if route.Method == http.MethodGet {
			found[route.Path] = true
		}
	}
	if !found["/events"] || !found["/events/stream"] {
		t.Errorf("event routes missing: %v", found)
	}
	if routes := newRouter(&stubTranscriber{}).Routes(); len(routes) != 1 {
		t.Errorf("routes without hub = %v", routes)
	}
}

func TestHandlerResponseOutlivesWriteTimeout(t *testing.T) {
	srv := server.New(server.Config{
		Host:            "127.0.0.1",
		ReadTimeout:     5,
		WriteTimeout:    1,
		IdleTimeout:     5,
		ShutdownTimeout: 2,
	}, logger.Nop())
	svc := &stubTranscriber{resp: Assemble(sampleResult(), 0), delay: 1500 * time.Millisecond}
	NewHandler(svc, nil).Register(srv.GinEngine())
	if err := srv.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = srv.Stop(context.Background()) })

	upload := multipartRequest(t, nil, "long.wav")
	req, err := http.NewRequest(http.MethodPost, "http://"+srv.Addr()+"/transcribe/", upload.Body)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", upload.Header.Get("Content-Type"))
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("response lost after the write timeout: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	var resp Response
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != StatusSuccess || len(resp.Segments) != 2 {
		t.Errorf("resp = %+v", resp)
	}
}
