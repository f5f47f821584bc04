package render

import (
	"context"
	"errors"
	"time"
)

// ErrElementNotFound is returned by Target.FindElement when no element
// matches before the timeout.
var ErrElementNotFound = errors.New("render: element not found")

// EnterKey is the key sequence for the Enter key, as understood by
// Element.SendKeys.
const EnterKey = "\r"

// Target is an exclusive handle on a rendering engine page. A Target is
// used by one goroutine at a time and reused across documents.
type Target interface {
	// Load replaces the current page with markup. The engine decodes the
	// bytes according to the document's own charset declaration.
	Load(ctx context.Context, markup []byte) error
	// FindElement waits up to timeout for an element matching selector
	// (CSS or XPath). It returns ErrElementNotFound on timeout.
	FindElement(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// Capture prints the whole page and returns the PDF in its transport
	// encoding (base64).
	Capture(ctx context.Context, opts CaptureOptions) (string, error)
	// Snapshot returns the serialized DOM of the current page.
	Snapshot(ctx context.Context) (string, error)
	Close() error
}

// Element is an interactive element handle on a Target's page.
type Element interface {
	SendKeys(ctx context.Context, keys string) error
	Click(ctx context.Context) error
}
