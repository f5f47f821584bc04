// Package batch runs render, extraction and naming over a list of
// documents, one at a time, and keeps every outcome.
//
// A failure in one document never stops the batch: the record carries the
// reason and the runner moves on. The render target is opened once per
// run and released when the run ends, whatever happened.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/porticus-lab/invoice-pdf/extract"
	"github.com/porticus-lab/invoice-pdf/internal/pdftext"
	"github.com/porticus-lab/invoice-pdf/naming"
	"github.com/porticus-lab/invoice-pdf/render"
)

// Renderer turns one document into a PDF. *render.Orchestrator implements
// it.
type Renderer interface {
	Render(ctx context.Context, markup []byte, credential string) (*render.Output, error)
}

// Opener acquires the render target for one run. release is called
// exactly once when the run ends.
type Opener func(ctx context.Context) (r Renderer, release func() error, err error)

// Runner processes batches. The zero value is not usable; Open is
// required.
type Runner struct {
	Open Opener
	// Names builds output file names. The zero value uses the defaults.
	Names naming.Synthesizer
	// Extractor defaults to extract.New(extract.Config{}).
	Extractor *extract.Extractor
	// PDFText extracts flat text from a rendered PDF for the last
	// extraction source. Defaults to pdftext.Extract.
	PDFText func(pdf []byte) (string, error)
	// Now stamps the run. Defaults to time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

func (r *Runner) defaults() {
	if r.Extractor == nil {
		r.Extractor = extract.New(extract.Config{Logger: r.Logger})
	}
	if r.PDFText == nil {
		r.PDFText = pdftext.Extract
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	if r.Logger == nil {
		r.Logger = slog.Default()
	}
}

// Run processes docs in order with the same credential and records one
// entry per document into res, which is cleared first. A nil res is
// allocated. The returned Result is res.
//
// Cancelling ctx stops the run between documents; the remaining documents
// are recorded as failures. A document already rendering runs to the end.
func (r *Runner) Run(ctx context.Context, docs []Document, credential string, res *Result) *Result {
	r.defaults()
	if res == nil {
		res = &Result{}
	}
	res.Reset(uuid.NewString(), r.Now())
	log := r.Logger.With("batch", res.ID)
	log.Info("batch started", "documents", len(docs))

	renderer, release, err := r.Open(ctx)
	if err != nil {
		err = &render.RenderFailure{Stage: render.StageLoad, Err: fmt.Errorf("opening render target: %w", err)}
		log.Warn("render target unavailable", "error", err)
		for i, doc := range docs {
			res.add(failed(i, doc, err))
		}
		res.Finished = r.Now()
		return res
	}
	defer func() {
		if err := release(); err != nil {
			log.Warn("releasing render target", "error", err)
		}
	}()

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			rec := failed(i, doc, err)
			rec.Kind = KindCancel
			res.add(rec)
			continue
		}
		res.add(r.process(ctx, renderer, i, doc, credential, log.With("index", i, "document", doc.Name)))
	}

	res.Finished = r.Now()
	ok := len(res.Succeeded())
	log.Info("batch finished", "succeeded", ok, "failed", len(docs)-ok, "elapsed", res.Finished.Sub(res.Started))
	return res
}

func failed(i int, doc Document, err error) Record {
	return Record{
		Index:    i,
		Original: doc.Name,
		Status:   StatusFailure,
		Kind:     failureKind(err),
		Reason:   reason(err),
		Err:      err,
	}
}

func reason(err error) string {
	var rf *render.RenderFailure
	if errors.As(err, &rf) {
		return rf.Reason()
	}
	return err.Error()
}

// process handles one document. It never panics.
func (r *Runner) process(ctx context.Context, renderer Renderer, i int, doc Document, credential string, log *slog.Logger) (rec Record) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("panic while processing document", "panic", p)
			rec = failed(i, doc, fmt.Errorf("batch: internal error: %v", p))
			rec.Kind = KindPanic
		}
	}()

	text, err := doc.Text()
	if err != nil {
		log.Warn("document unreadable", "error", err)
		return failed(i, doc, err)
	}

	out, err := renderer.Render(context.WithoutCancel(ctx), doc.Data, credential)
	if err != nil {
		log.Warn("render failed", "error", err)
		return failed(i, doc, err)
	}

	fields := r.fields(out, text, log)
	name := r.Names.Synthesize(fields, i)
	log.Info("document rendered", "filename", name, "bytes", len(out.PDF), "unlock", out.Unlock.String())

	return Record{
		Index:    i,
		Original: doc.Name,
		Status:   StatusSuccess,
		Filename: name,
		Fields:   fields,
		Unlock:   out.Unlock.String(),
		Output:   NewRendered(name, out.PDF),
	}
}

// fields runs extraction over the unlocked DOM, then the uploaded markup,
// then the PDF text. Later sources only fill fields still missing.
func (r *Runner) fields(out *render.Output, original string, log *slog.Logger) extract.Result {
	fields := r.Extractor.Extract(out.Markup, extract.Markup)
	if !fields.Complete() {
		fields = fields.Fill(r.Extractor.Extract(original, extract.Markup))
	}
	if !fields.Complete() {
		flat, err := r.PDFText(out.PDF)
		if err != nil {
			log.Debug("pdf text unavailable", "error", err)
		} else {
			fields = fields.Fill(r.Extractor.Extract(flat, extract.FlatText))
		}
	}
	if !fields.HasCompany() {
		log.Debug("company name not found")
	}
	if !fields.HasDate() {
		log.Debug("effective date not found")
	}
	return fields
}

// TargetOpener returns an Opener that opens a render target with open and
// drives it with a render.Orchestrator built from opts. The target is
// closed on release.
func TargetOpener(open func(ctx context.Context) (render.Target, error), opts ...render.Option) Opener {
	return func(ctx context.Context) (Renderer, func() error, error) {
		t, err := open(ctx)
		if err != nil {
			return nil, nil, err
		}
		return render.New(t, opts...), t.Close, nil
	}
}
