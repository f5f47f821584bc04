package render

import (
	"errors"
	"fmt"
)

// Sentinel errors for malformed capture payloads.
var (
	ErrEmptyPayload = errors.New("render: empty payload")
	ErrNotPDF       = errors.New("render: payload is not a PDF")
)

// Stage names the step of a render that failed.
type Stage string

const (
	StageLoad     Stage = "load"
	StageUnlock   Stage = "unlock"
	StageCapture  Stage = "capture"
	StageDecode   Stage = "decode"
	StageValidate Stage = "validate"
)

// RenderFailure is returned by Orchestrator.Render when the document could
// not be turned into a PDF. It is fatal for that document only.
type RenderFailure struct {
	Stage Stage
	Err   error
}

func (e *RenderFailure) Error() string {
	return fmt.Sprintf("render: %s failed: %v", e.Stage, e.Err)
}

func (e *RenderFailure) Unwrap() error { return e.Err }

// Reason is a short human-readable cause for reports.
func (e *RenderFailure) Reason() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}
