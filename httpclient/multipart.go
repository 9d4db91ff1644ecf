package httpclient

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"
)

// MultipartBody is a multipart/form-data body. It is streamed to the server
// through a pipe, so file parts are never buffered in memory.
type MultipartBody struct {
	// Fields are written first, in order.
	Fields []FormField
	Files  []FileField
}

// FormField is a plain form value.
type FormField struct {
	Name  string
	Value string
}

// FileField is a file part. Reader wins over Data when both are set.
type FileField struct {
	FieldName   string
	FileName    string
	ContentType string
	Data        []byte
	Reader      io.Reader
	// Size is the length of Reader, or -1 when unknown. An unknown size
	// disables the Content-Length header.
	Size int64
}

// AddField appends a form value.
func (m *MultipartBody) AddField(name, value string) *MultipartBody {
	m.Fields = append(m.Fields, FormField{Name: name, Value: value})
	return m
}

// AddFile appends a file part.
func (m *MultipartBody) AddFile(f FileField) *MultipartBody {
	m.Files = append(m.Files, f)
	return m
}

func (f FileField) size() int64 {
	if f.Reader != nil {
		return f.Size
	}
	return int64(len(f.Data))
}

// encode starts streaming the body and returns the read side of the pipe,
// its content type and its exact length (-1 when unknown).
func (m *MultipartBody) encode() (io.ReadCloser, string, int64, error) {
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)

	length, err := m.contentLength(w.Boundary())
	if err != nil {
		_ = pr.Close()
		return nil, "", 0, err
	}

	go func() {
		err := m.write(w, true)
		if err == nil {
			err = w.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	return pr, w.FormDataContentType(), length, nil
}

// contentLength renders the envelope with the same boundary into a counter
// and adds the file sizes.
func (m *MultipartBody) contentLength(boundary string) (int64, error) {
	var total int64
	for _, f := range m.Files {
		n := f.size()
		if n < 0 {
			return -1, nil
		}
		total += n
	}

	cw := &countingWriter{}
	w := multipart.NewWriter(cw)
	if err := w.SetBoundary(boundary); err != nil {
		return 0, fmt.Errorf("multipart boundary: %w", err)
	}
	if err := m.write(w, false); err != nil {
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return cw.n + total, nil
}

func (m *MultipartBody) write(w *multipart.Writer, withContent bool) error {
	for _, f := range m.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return fmt.Errorf("write field %s: %w", f.Name, err)
		}
	}
	for _, f := range m.Files {
		part, err := w.CreatePart(fileHeader(f))
		if err != nil {
			return fmt.Errorf("create part %s: %w", f.FieldName, err)
		}
		if !withContent {
			continue
		}
		if f.Reader != nil {
			n, err := io.Copy(part, f.Reader)
			if err != nil {
				return fmt.Errorf("copy %s: %w", f.FileName, err)
			}
			if f.Size >= 0 && n != f.Size {
				return fmt.Errorf("copy %s: read %d bytes, expected %d", f.FileName, n, f.Size)
			}
			continue
		}
		if _, err := part.Write(f.Data); err != nil {
			return fmt.Errorf("write %s: %w", f.FileName, err)
		}
	}
	return nil
}

func fileHeader(f FileField) textproto.MIMEHeader {
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(f.FieldName), escapeQuotes(f.FileName)))
	h.Set("Content-Type", ct)
	return h
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }

type countingWriter struct{ n int64 }

func (c *countingWriter) Write(p []byte) (int, error) {
	c.n += int64(len(p))
	return len(p), nil
}
