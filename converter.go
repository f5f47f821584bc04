package invoicepdf

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/chromedp/chromedp"

	"github.com/porticus-lab/invoice-pdf/render"
)

// Converter owns one headless browser process.
//
// Rendering happens in a [Session], an exclusive tab opened with
// [Converter.NewSession]. A Converter may hand out several sessions, but
// each Session must be used by one goroutine at a time.
//
// Call [Converter.Close] to stop the browser.
type Converter struct {
	cfg           converterConfig
	log           *slog.Logger
	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu     sync.Mutex
	closed bool
}

// NewConverter starts a headless browser with the given options. The
// caller must call [Converter.Close] when finished.
func NewConverter(opts ...Option) (*Converter, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	log := cfg.logger
	if log == nil {
		log = slog.Default()
	}

	if cfg.chromePath == "" {
		cfg.chromePath = lookBrowser()
	}
	if cfg.chromePath == "" {
		if !cfg.autoDownload {
			return nil, ErrNoBrowser
		}
		path, err := resolveBrowser()
		if err != nil {
			return nil, err
		}
		log.Info("using downloaded chromium", "path", path)
		cfg.chromePath = path
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(cfg.chromePath),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("allow-file-access-from-files", true),
	)
	if cfg.headless == "false" {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", cfg.headless))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so errors surface at creation time.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("invoicepdf: starting browser: %w", err)
	}
	log.Debug("browser started", "path", cfg.chromePath, "headless", cfg.headless)

	return &Converter{
		cfg:           cfg,
		log:           log,
		allocCtx:      allocCtx,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}, nil
}

// Close releases all resources held by the Converter, including the
// browser process and every open session. Close is idempotent.
func (c *Converter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.browserCancel()
	c.allocCancel()
	return nil
}

// NewSession opens a fresh tab. The returned Session implements
// render.Target and must be closed by the caller.
func (c *Converter) NewSession(ctx context.Context) (*Session, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(c.browserCtx)
	s := &Session{cfg: c.cfg, log: c.log, tab: tabCtx, cancel: tabCancel}

	runCtx, done := s.step(ctx, c.cfg.timeout)
	defer done()
	if err := chromedp.Run(runCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("invoicepdf: opening tab: %w", err)
	}
	return s, nil
}

// OpenTarget is NewSession for callers that want a render.Target.
func (c *Converter) OpenTarget(ctx context.Context) (render.Target, error) {
	s, err := c.NewSession(ctx)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Converter) checkClosed() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return nil
}
