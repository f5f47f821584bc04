package invoicepdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/porticus-lab/invoice-pdf/render"
)

// Session is one browser tab, used as the render target of a batch.
type Session struct {
	cfg    converterConfig
	log    *slog.Logger
	tab    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	file   string
	closed bool
}

var _ render.Target = (*Session)(nil)

// step derives a context for one browser action: bound to the tab, capped
// by timeout and stopped when ctx is done.
func (s *Session) step(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(s.tab, timeout)
	} else {
		runCtx, cancel = context.WithCancel(s.tab)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *Session) checkClosed() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Load writes markup to a temporary file and navigates the tab to it, so
// the browser decodes the bytes using the document's own charset.
func (s *Session) Load(ctx context.Context, markup []byte) error {
	if err := s.checkClosed(); err != nil {
		return err
	}

	f, err := os.CreateTemp("", "invoicepdf-*.html")
	if err != nil {
		return fmt.Errorf("invoicepdf: creating temp file: %w", err)
	}
	name := f.Name()
	if _, err := f.Write(markup); err != nil {
		f.Close()
		os.Remove(name)
		return fmt.Errorf("invoicepdf: writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("invoicepdf: closing temp file: %w", err)
	}
	abs, err := filepath.Abs(name)
	if err != nil {
		os.Remove(name)
		return fmt.Errorf("invoicepdf: resolving path: %w", err)
	}
	s.swapFile(abs)

	runCtx, done := s.step(ctx, s.cfg.timeout)
	defer done()
	if err := chromedp.Run(runCtx,
		chromedp.Navigate("file://"+filepath.ToSlash(abs)),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("invoicepdf: loading document: %w", err)
	}
	return nil
}

// swapFile records the current temp file and removes the previous one.
func (s *Session) swapFile(name string) {
	s.mu.Lock()
	prev := s.file
	s.file = name
	s.mu.Unlock()
	if prev != "" {
		os.Remove(prev)
	}
}

// FindElement waits up to timeout for the first node matching selector.
// CSS selectors and XPath expressions are both accepted.
func (s *Session) FindElement(ctx context.Context, selector string, timeout time.Duration) (render.Element, error) {
	if err := s.checkClosed(); err != nil {
		return nil, err
	}

	runCtx, done := s.step(ctx, timeout)
	defer done()

	var nodes []*cdp.Node
	err := chromedp.Run(runCtx, chromedp.Nodes(selector, &nodes, chromedp.BySearch))
	switch {
	case err == nil && len(nodes) > 0:
		return &element{s: s, node: nodes[0]}, nil
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case err == nil, errors.Is(err, context.DeadlineExceeded):
		s.log.Debug("element not found", "selector", selector, "timeout", timeout)
		return nil, render.ErrElementNotFound
	}
	return nil, fmt.Errorf("invoicepdf: finding %q: %w", selector, err)
}

// Capture prints the page to PDF and returns Chrome's base64 payload.
func (s *Session) Capture(ctx context.Context, opts render.CaptureOptions) (string, error) {
	if err := s.checkClosed(); err != nil {
		return "", err
	}

	opts = opts.Resolved()
	width, height := opts.PaperInches()
	top, right, bottom, left := opts.MarginInches()

	runCtx, done := s.step(ctx, s.cfg.timeout)
	defer done()

	var res page.PrintToPDFReturns
	if err := chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		params := page.PrintToPDF().
			WithPaperWidth(width).
			WithPaperHeight(height).
			WithMarginTop(top).
			WithMarginRight(right).
			WithMarginBottom(bottom).
			WithMarginLeft(left).
			WithScale(opts.Scale).
			WithPrintBackground(opts.Background).
			WithLandscape(opts.Landscape)
		return cdp.Execute(ctx, page.CommandPrintToPDF, params, &res)
	})); err != nil {
		return "", fmt.Errorf("invoicepdf: printing page: %w", err)
	}
	return res.Data, nil
}

// Snapshot returns the serialized DOM of the current page.
func (s *Session) Snapshot(ctx context.Context) (string, error) {
	if err := s.checkClosed(); err != nil {
		return "", err
	}

	runCtx, done := s.step(ctx, s.cfg.timeout)
	defer done()

	var markup string
	if err := chromedp.Run(runCtx, chromedp.Evaluate(`document.documentElement.outerHTML`, &markup)); err != nil {
		return "", fmt.Errorf("invoicepdf: reading dom: %w", err)
	}
	return markup, nil
}

// Close closes the tab and removes the temp file. Close is idempotent.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	prev := s.file
	s.file = ""
	s.mu.Unlock()

	s.cancel()
	if prev != "" {
		if err := os.Remove(prev); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("invoicepdf: removing temp file: %w", err)
		}
	}
	return nil
}

// element is a node of the session's current page.
type element struct {
	s    *Session
	node *cdp.Node
}

func (e *element) SendKeys(ctx context.Context, keys string) error {
	runCtx, done := e.s.step(ctx, e.s.cfg.timeout)
	defer done()
	if err := chromedp.Run(runCtx, chromedp.KeyEventNode(e.node, keys)); err != nil {
		return fmt.Errorf("invoicepdf: typing into %s: %w", e.node.NodeName, err)
	}
	return nil
}

func (e *element) Click(ctx context.Context) error {
	runCtx, done := e.s.step(ctx, e.s.cfg.timeout)
	defer done()
	if err := chromedp.Run(runCtx, chromedp.MouseClickNode(e.node)); err != nil {
		return fmt.Errorf("invoicepdf: clicking %s: %w", e.node.NodeName, err)
	}
	return nil
}
