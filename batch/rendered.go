package batch

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
)

// Rendered is one finished PDF and its synthesized file name. Its bytes
// are never modified after creation.
type Rendered struct {
	Filename string
	data     []byte
}

// NewRendered wraps PDF bytes.
func NewRendered(filename string, pdf []byte) *Rendered {
	return &Rendered{Filename: filename, data: pdf}
}

// Bytes returns the raw PDF content.
func (r *Rendered) Bytes() []byte {
	return r.data
}

// Base64 returns the PDF as standard base64 (RFC 4648).
func (r *Rendered) Base64() string {
	return base64.StdEncoding.EncodeToString(r.data)
}

// Reader returns a reader over the PDF content.
func (r *Rendered) Reader() *bytes.Reader {
	return bytes.NewReader(r.data)
}

// WriteTo writes the full PDF content to w. It implements [io.WriterTo].
func (r *Rendered) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.data)
	return int64(n), err
}

// WriteToFile writes the PDF to path, creating it if needed.
func (r *Rendered) WriteToFile(path string, perm os.FileMode) error {
	return os.WriteFile(path, r.data, perm)
}

// Len returns the size of the PDF in bytes.
func (r *Rendered) Len() int {
	return len(r.data)
}
