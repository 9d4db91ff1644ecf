package httpclient

import "io"

type progressReader struct {
	r      io.Reader
	sent   int64
	total  int64
	report ProgressReporter
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report.BytesTransferred(p.sent, p.total)
	}
	return n, err
}

// Close lets the transport release a piped multipart body.
func (p *progressReader) Close() error {
	if c, ok := p.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
