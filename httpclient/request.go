package httpclient

import "net/http"

// ProgressReporter is notified as request bytes are sent. total is -1 when
// the body length is unknown.
type ProgressReporter interface {
	BytesTransferred(sent, total int64)
}

// Request is one outbound call.
type Request struct {
	Method  string
	// Path is joined to BaseURL unless it is already absolute.
	Path    string
	Headers map[string]string
	Query   map[string]string
	// Body may be nil, an io.Reader, []byte, string, *MultipartBody, or a
	// value to encode as JSON.
	Body     any
	Progress ProgressReporter
}

// Response is a fully read response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
