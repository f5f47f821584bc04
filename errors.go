package invoicepdf

import "errors"

// Sentinel errors returned by the package.
var (
	// ErrClosed is returned when using a closed [Converter] or [Session].
	ErrClosed = errors.New("invoicepdf: converter is closed")
	// ErrNoBrowser is returned when no browser executable is available and
	// auto download is off.
	ErrNoBrowser = errors.New("invoicepdf: no chrome executable found")
)
