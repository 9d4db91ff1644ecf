package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/kbukum/scribe/resilience"
)

// Client sends requests with auth, a timeout and optional breaker and
// bulkhead. It never retries.
type Client struct {
	http *http.Client
	cfg  Config
	cb   *resilience.CircuitBreaker
	bh   *resilience.Bulkhead
}

// New builds a Client. A nil transport uses a clone of http.DefaultTransport.
func New(cfg Config, transport http.RoundTripper) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if transport == nil {
		t := http.DefaultTransport.(*http.Transport).Clone()
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			t.TLSClientConfig = tlsCfg
		}
		transport = t
	}

	c := &Client{
		http: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		cfg:  cfg,
	}
	if cfg.CircuitBreaker != nil {
		cbCfg := *cfg.CircuitBreaker
		if cbCfg.Name == "" {
			cbCfg.Name = cfg.Name
		}
		if cbCfg.IsFailure == nil {
			cbCfg.IsFailure = IsRetryable
		}
		c.cb = resilience.NewCircuitBreaker(cbCfg)
	}
	if cfg.Bulkhead != nil {
		bhCfg := *cfg.Bulkhead
		if bhCfg.Name == "" {
			bhCfg.Name = cfg.Name
		}
		c.bh = resilience.NewBulkhead(bhCfg)
	}
	return c, nil
}

func (c *Client) Name() string { return c.cfg.Name }

func (c *Client) Config() Config { return c.cfg }

// Available is false while the breaker is open.
func (c *Client) Available() bool {
	return c.cb == nil || c.cb.State() != resilience.StateOpen
}

// BreakerState reports the breaker state, closed when there is no breaker.
func (c *Client) BreakerState() resilience.State {
	if c.cb == nil {
		return resilience.StateClosed
	}
	return c.cb.State()
}

// Do sends req once. Non-2xx responses come back together with a
// classified *Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var resp *Response
	call := func() error {
		var err error
		resp, err = c.send(ctx, req)
		return err
	}
	guarded := call
	if c.cb != nil {
		guarded = func() error {
			err := c.cb.Execute(call)
			if errors.Is(err, resilience.ErrCircuitOpen) {
				return NewUnavailableError(err)
			}
			return err
		}
	}
	if c.bh != nil {
		err := c.bh.Execute(ctx, guarded)
		if errors.Is(err, resilience.ErrBulkheadFull) || errors.Is(err, resilience.ErrBulkheadTimeout) {
			return nil, NewUnavailableError(err)
		}
		return resp, err
	}
	return resp, guarded()
}

// Close drops idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, fmt.Errorf("read response body: %w", err))
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}
	if e := ClassifyStatusCode(resp.StatusCode, body); e != nil {
		return out, e
	}
	return out, nil
}

func classifyTransport(ctx context.Context, err error) *Error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil || (errors.As(err, &ne) && ne.Timeout()) {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	url := req.Path
	if c.cfg.BaseURL != "" && !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(url, "/")
	}

	body, contentType, length, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("encode body: %v", err))
	}
	if body != nil && req.Progress != nil {
		body = &progressReader{r: body, total: length, report: req.Progress}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		if rc, ok := body.(io.Closer); ok {
			_ = rc.Close()
		}
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}
	if body != nil {
		httpReq.ContentLength = length
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}
	for k, v := range c.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.cfg.Auth != nil {
		c.cfg.Auth(httpReq)
	}
	return httpReq, nil
}

// encodeBody returns the body reader, its content type and its length, -1
// when unknown.
func encodeBody(body any) (io.Reader, string, int64, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", 0, nil
	case *MultipartBody:
		return v.encode()
	case []byte:
		return bytes.NewReader(v), "", int64(len(v)), nil
	case string:
		return strings.NewReader(v), "text/plain; charset=utf-8", int64(len(v)), nil
	case io.Reader:
		return v, "", -1, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", 0, err
		}
		return bytes.NewReader(data), "application/json", int64(len(data)), nil
	}
}

// DecodeJSON decodes a successful response body into T.
func DecodeJSON[T any](resp *Response) (T, error) {
	var out T
	if resp == nil {
		return out, NewDecodeError(errors.New("nil response"), nil)
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, NewDecodeError(err, resp.Body)
	}
	return out, nil
}
