package batch

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Sentinel causes of a ReadFailure.
var (
	ErrEmptyDocument = errors.New("batch: empty document")
	ErrUndecodable   = errors.New("batch: no supported encoding decodes the document")
)

// ReadFailure reports a document whose bytes could not be turned into
// text. It is fatal for that document only.
type ReadFailure struct {
	Name string
	Err  error
}

func (e *ReadFailure) Error() string {
	return fmt.Sprintf("batch: reading %q: %v", e.Name, e.Err)
}

func (e *ReadFailure) Unwrap() error { return e.Err }

// Document is one uploaded invoice. It is not modified after creation.
type Document struct {
	// Name is the original file name.
	Name string
	Data []byte
	// ContentType is the declared media type, possibly with a charset
	// parameter. May be empty.
	ContentType string
}

// ReadFile loads a document from disk.
func ReadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	return Document{Name: filepath.Base(path), Data: data, ContentType: "text/html"}, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, utf8BOM) ||
		bytes.HasPrefix(data, []byte{0xFE, 0xFF}) ||
		bytes.HasPrefix(data, []byte{0xFF, 0xFE})
}

// Text decodes the document to UTF-8, trying in order: byte order mark,
// declared charset, <meta> charset, UTF-8, EUC-KR. A candidate is used only
// if it decodes without replacement characters.
func (d Document) Text() (string, error) {
	if len(d.Data) == 0 {
		return "", &ReadFailure{Name: d.Name, Err: ErrEmptyDocument}
	}

	if hasBOM(d.Data) {
		if s, ok := decode(unicode.BOMOverride(unicode.UTF8.NewDecoder()), d.Data); ok {
			return s, nil
		}
	}

	enc, name, certain := charset.DetermineEncoding(d.Data, d.ContentType)
	// Without a declaration DetermineEncoding guesses windows-1252, which
	// decodes any byte sequence; skip that guess.
	if certain || name != "windows-1252" {
		if s, ok := decode(enc.NewDecoder(), d.Data); ok {
			return s, nil
		}
	}

	if utf8.Valid(d.Data) {
		return string(d.Data), nil
	}
	if s, ok := decode(korean.EUCKR.NewDecoder(), d.Data); ok {
		return s, nil
	}
	return "", &ReadFailure{Name: d.Name, Err: ErrUndecodable}
}

func decode(t transform.Transformer, data []byte) (string, bool) {
	out, _, err := transform.Bytes(t, data)
	if err != nil || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	return string(out), true
}
