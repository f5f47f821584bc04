// Package render drives a rendering engine through the credential step of a
// protected HTML document and captures the unlocked page as PDF.
//
// The engine is reached through the Target and Element interfaces, so the
// control flow runs unchanged against a real browser or a test fake:
//
//	o := render.New(target, render.WithSettle(2*time.Second))
//	out, err := o.Render(ctx, markup, "1234567890")
//	if err != nil {
//	    var rf *render.RenderFailure
//	    errors.As(err, &rf)
//	}
//	os.WriteFile("out.pdf", out.PDF, 0o644)
package render

import (
	"context"
	"log/slog"
	"time"
)

// Output is the result of one successful render.
type Output struct {
	PDF []byte
	// Markup is the page DOM after the unlock step. Empty when the
	// snapshot could not be taken.
	Markup string
	Unlock UnlockOutcome
}

type orchestratorConfig struct {
	unlocker  Unlocker
	settle    time.Duration
	sleep     func(time.Duration)
	validate  func([]byte) error
	capture   CaptureOptions
	logger    *slog.Logger
	snapshots bool
}

func defaultOrchestratorConfig() orchestratorConfig {
	return orchestratorConfig{
		unlocker:  FieldUnlocker{},
		settle:    5 * time.Second,
		sleep:     time.Sleep,
		validate:  ValidatePDF,
		capture:   DefaultCaptureOptions(),
		snapshots: true,
	}
}

// Option configures an Orchestrator.
type Option func(*orchestratorConfig)

// WithUnlocker replaces the default FieldUnlocker.
func WithUnlocker(u Unlocker) Option {
	return func(c *orchestratorConfig) {
		c.unlocker = u
	}
}

// WithUnlockTimeout sets how long the default unlocker waits for the
// credential field. It has no effect after WithUnlocker.
func WithUnlockTimeout(d time.Duration) Option {
	return func(c *orchestratorConfig) {
		if fu, ok := c.unlocker.(FieldUnlocker); ok {
			fu.Timeout = d
			c.unlocker = fu
		}
	}
}

// WithSelectors sets the credential field and confirm button selectors of
// the default unlocker. Empty values keep the defaults.
func WithSelectors(password, confirm string) Option {
	return func(c *orchestratorConfig) {
		if fu, ok := c.unlocker.(FieldUnlocker); ok {
			if password != "" {
				fu.PasswordSelector = password
			}
			if confirm != "" {
				fu.ConfirmSelector = confirm
			}
			c.unlocker = fu
		}
	}
}

// WithSettle sets the fixed wait between the unlock step and the capture.
// Defaults to 5 seconds.
func WithSettle(d time.Duration) Option {
	return func(c *orchestratorConfig) {
		c.settle = d
	}
}

// WithSleeper replaces time.Sleep for the settle wait.
func WithSleeper(sleep func(time.Duration)) Option {
	return func(c *orchestratorConfig) {
		c.sleep = sleep
	}
}

// WithValidator replaces ValidatePDF as the payload check.
func WithValidator(validate func([]byte) error) Option {
	return func(c *orchestratorConfig) {
		c.validate = validate
	}
}

// WithCapture sets the capture options. Zero fields use the defaults.
func WithCapture(opts CaptureOptions) Option {
	return func(c *orchestratorConfig) {
		c.capture = opts.Resolved()
	}
}

// WithoutSnapshot skips the post-unlock DOM snapshot.
func WithoutSnapshot() Option {
	return func(c *orchestratorConfig) {
		c.snapshots = false
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *orchestratorConfig) {
		c.logger = l
	}
}

// Orchestrator runs load, unlock, settle and capture against one Target.
// It is not safe for concurrent use; neither is the Target.
type Orchestrator struct {
	target Target
	cfg    orchestratorConfig
}

// New returns an Orchestrator driving target.
func New(target Target, opts ...Option) *Orchestrator {
	cfg := defaultOrchestratorConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}
	if cfg.sleep == nil {
		cfg.sleep = time.Sleep
	}
	if cfg.validate == nil {
		cfg.validate = CheckMagic
	}
	return &Orchestrator{target: target, cfg: cfg}
}

// Render loads markup, applies credential if the page asks for one, waits
// the settle duration and captures the page as PDF.
//
// A page without a credential field is rendered as is. Every failure is
// returned as *RenderFailure. The settle wait does not observe ctx; once
// started, a render runs to completion or failure.
func (o *Orchestrator) Render(ctx context.Context, markup []byte, credential string) (*Output, error) {
	log := o.cfg.logger

	if err := o.target.Load(ctx, markup); err != nil {
		return nil, &RenderFailure{Stage: StageLoad, Err: err}
	}

	outcome, err := o.cfg.unlocker.TryUnlock(ctx, o.target, credential)
	if err != nil {
		return nil, &RenderFailure{Stage: StageUnlock, Err: err}
	}
	if outcome == UnlockNotFound {
		log.Info("no credential field, rendering unlocked")
	} else {
		log.Debug("credential applied")
	}

	if o.cfg.settle > 0 {
		o.cfg.sleep(o.cfg.settle)
	}

	out := &Output{Unlock: outcome}
	if o.cfg.snapshots {
		if snap, err := o.target.Snapshot(ctx); err != nil {
			log.Debug("dom snapshot failed", "error", err)
		} else {
			out.Markup = snap
		}
	}

	payload, err := o.target.Capture(ctx, o.cfg.capture)
	if err != nil {
		return nil, &RenderFailure{Stage: StageCapture, Err: err}
	}
	data, err := DecodePayload(payload)
	if err != nil {
		return nil, &RenderFailure{Stage: StageDecode, Err: err}
	}
	if err := o.cfg.validate(data); err != nil {
		return nil, &RenderFailure{Stage: StageValidate, Err: err}
	}
	out.PDF = data
	return out, nil
}
