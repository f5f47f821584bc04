package batch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/porticus-lab/invoice-pdf/naming"
	"github.com/porticus-lab/invoice-pdf/render"
)

const invoiceMarkup = `<html><body><table>
<tr><td>상호</td><td>(주)예시</td><td>성명</td><td>홍길동</td></tr>
<tr><td>작성일자</td><td>2024년 5월 3일</td></tr>
</table></body></html>`

var frozen = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

// fakeRenderer echoes the input markup as the unlocked DOM unless hook
// overrides the outcome for a call.
type fakeRenderer struct {
	calls int
	hook  func(call int, markup []byte) (*render.Output, error)
}

func (f *fakeRenderer) Render(_ context.Context, markup []byte, _ string) (*render.Output, error) {
	f.calls++
	if f.hook != nil {
		return f.hook(f.calls, markup)
	}
	return &render.Output{PDF: []byte("%PDF-1.7 fake"), Markup: string(markup), Unlock: render.UnlockApplied}, nil
}

type harness struct {
	renderer *fakeRenderer
	opened   int
	released int
	runner   *Runner
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{renderer: &fakeRenderer{}}
	h.runner = &Runner{
		Open: func(context.Context) (Renderer, func() error, error) {
			h.opened++
			return h.renderer, func() error {
				h.released++
				return nil
			}, nil
		},
		Names:   naming.Synthesizer{Clock: func() time.Time { return frozen }},
		PDFText: func([]byte) (string, error) { return "", errors.New("no text layer") },
		Now:     func() time.Time { return frozen },
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return h
}

func docs(markups ...string) []Document {
	out := make([]Document, len(markups))
	for i, m := range markups {
		out[i] = Document{Name: "doc" + string(rune('a'+i)) + ".html", Data: []byte(m)}
	}
	return out
}

func TestRun_PartialFailure(t *testing.T) {
	h := newHarness(t)
	h.renderer.hook = func(call int, markup []byte) (*render.Output, error) {
		if call == 2 {
			return nil, &render.RenderFailure{Stage: render.StageCapture, Err: errors.New("print failed")}
		}
		return &render.Output{PDF: []byte("%PDF-1.7"), Markup: string(markup), Unlock: render.UnlockApplied}, nil
	}

	res := h.runner.Run(context.Background(), docs(invoiceMarkup, invoiceMarkup, invoiceMarkup), "1234567890", nil)

	if res.Len() != 3 {
		t.Fatalf("Len = %d, want 3", res.Len())
	}
	if h.renderer.calls != 3 {
		t.Errorf("renderer calls = %d, want 3", h.renderer.calls)
	}
	if h.opened != 1 || h.released != 1 {
		t.Errorf("opened %d released %d, want 1 and 1", h.opened, h.released)
	}
	for i, wantOK := range []bool{true, false, true} {
		rec, _ := res.Record(i)
		if rec.Index != i {
			t.Errorf("record %d: Index = %d", i, rec.Index)
		}
		if rec.OK() != wantOK {
			t.Errorf("record %d: OK = %v, want %v", i, rec.OK(), wantOK)
		}
	}
	bad, _ := res.Record(1)
	if bad.Kind != KindRender || bad.Reason != "capture: print failed" {
		t.Errorf("failure = %q %q", bad.Kind, bad.Reason)
	}
	if bad.Output != nil || bad.Filename != "" {
		t.Errorf("failed record carries output: %+v", bad)
	}

	good, _ := res.Record(0)
	if good.Filename != "세금계산서_주예시_20240503.pdf" {
		t.Errorf("Filename = %q", good.Filename)
	}
	if good.Unlock != "applied" {
		t.Errorf("Unlock = %q", good.Unlock)
	}
	if string(good.Output.Bytes()) != "%PDF-1.7" {
		t.Errorf("Output = %q", good.Output.Bytes())
	}
	if n := len(res.Succeeded()); n != 2 {
		t.Errorf("Succeeded = %d, want 2", n)
	}
	if n := len(res.Failed()); n != 1 {
		t.Errorf("Failed = %d, want 1", n)
	}
}

func TestRun_ExtractionSourceOrder(t *testing.T) {
	h := newHarness(t)
	h.renderer.hook = func(int, []byte) (*render.Output, error) {
		return &render.Output{
			PDF:    []byte("%PDF-1.7"),
			Markup: `<table><tr><td>상호</td><td>스냅상사</td></tr></table>`,
		}, nil
	}

	res := h.runner.Run(context.Background(), docs(invoiceMarkup), "", nil)
	rec, _ := res.Record(0)
	if rec.Fields.CompanyName != "스냅상사" {
		t.Errorf("CompanyName = %q, want the unlocked page's value", rec.Fields.CompanyName)
	}
	if rec.Fields.EffectiveDate != "20240503" {
		t.Errorf("EffectiveDate = %q, want the uploaded markup's value", rec.Fields.EffectiveDate)
	}
}

func TestRun_PDFTextFallback(t *testing.T) {
	h := newHarness(t)
	h.renderer.hook = func(int, []byte) (*render.Output, error) {
		return &render.Output{PDF: []byte("%PDF-1.7")}, nil
	}
	var seen []byte
	h.runner.PDFText = func(pdf []byte) (string, error) {
		seen = pdf
		return "상호 (주)예시 성명 홍길동\n작성일자 2024/5/3\n", nil
	}

	res := h.runner.Run(context.Background(), docs("<p>비밀번호를 입력하세요</p>"), "", nil)
	rec, _ := res.Record(0)
	if string(seen) != "%PDF-1.7" {
		t.Errorf("PDFText got %q", seen)
	}
	if rec.Filename != "세금계산서_주예시_20240503.pdf" {
		t.Errorf("Filename = %q", rec.Filename)
	}
}

func TestRun_NoFieldsUsesFallbacks(t *testing.T) {
	h := newHarness(t)
	res := h.runner.Run(context.Background(), docs("<p>비밀번호를 입력하세요</p>"), "", nil)
	rec, _ := res.Record(0)
	if !rec.OK() {
		t.Fatalf("record failed: %s", rec.Reason)
	}
	if rec.Filename != "세금계산서_Unknown_20261019.pdf" {
		t.Errorf("Filename = %q", rec.Filename)
	}
}

func TestRun_ReadFailureSkipsRender(t *testing.T) {
	h := newHarness(t)
	batch := docs(invoiceMarkup, "")
	batch[1].Data = []byte("<p>\x80\xff\x80</p>")

	res := h.runner.Run(context.Background(), batch, "", nil)
	if h.renderer.calls != 1 {
		t.Errorf("renderer calls = %d, want 1", h.renderer.calls)
	}
	rec, _ := res.Record(1)
	if rec.OK() || rec.Kind != KindRead {
		t.Errorf("record = %+v, want read failure", rec)
	}
	if !errors.Is(rec.Err, ErrUndecodable) {
		t.Errorf("Err = %v", rec.Err)
	}
}

func TestRun_OpenFailure(t *testing.T) {
	h := newHarness(t)
	h.runner.Open = func(context.Context) (Renderer, func() error, error) {
		return nil, nil, errors.New("no browser")
	}

	res := h.runner.Run(context.Background(), docs(invoiceMarkup, invoiceMarkup), "", nil)
	if res.Len() != 2 {
		t.Fatalf("Len = %d, want 2", res.Len())
	}
	for _, rec := range res.Records {
		if rec.OK() || rec.Kind != KindRender {
			t.Errorf("record = %+v, want render failure", rec)
		}
		var rf *render.RenderFailure
		if !errors.As(rec.Err, &rf) || rf.Stage != render.StageLoad {
			t.Errorf("Err = %v, want load-stage render failure", rec.Err)
		}
	}
}

func TestRun_Canceled(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.renderer.hook = func(_ int, markup []byte) (*render.Output, error) {
		cancel()
		return &render.Output{PDF: []byte("%PDF-1.7"), Markup: string(markup)}, nil
	}

	res := h.runner.Run(ctx, docs(invoiceMarkup, invoiceMarkup, invoiceMarkup), "", nil)
	if res.Len() != 3 {
		t.Fatalf("Len = %d, want 3", res.Len())
	}
	if first, _ := res.Record(0); !first.OK() {
		t.Errorf("first record failed: %s", first.Reason)
	}
	for i := 1; i < 3; i++ {
		rec, _ := res.Record(i)
		if rec.Kind != KindCancel || !errors.Is(rec.Err, context.Canceled) {
			t.Errorf("record %d = %+v, want canceled", i, rec)
		}
	}
	if h.released != 1 {
		t.Errorf("released = %d, want 1", h.released)
	}
}

// ctxRenderer fails whenever the context it renders under is done.
type ctxRenderer struct {
	during func()
}

func (c ctxRenderer) Render(ctx context.Context, markup []byte, _ string) (*render.Output, error) {
	c.during()
	if err := ctx.Err(); err != nil {
		return nil, &render.RenderFailure{Stage: render.StageCapture, Err: err}
	}
	return &render.Output{PDF: []byte("%PDF-1.7"), Markup: string(markup)}, nil
}

func TestRun_CancelDuringRenderFinishesDocument(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.runner.Open = func(context.Context) (Renderer, func() error, error) {
		return ctxRenderer{during: cancel}, func() error { return nil }, nil
	}

	res := h.runner.Run(ctx, docs(invoiceMarkup, invoiceMarkup), "", nil)
	first, _ := res.Record(0)
	if !first.OK() {
		t.Fatalf("in-flight document failed: %s", first.Reason)
	}
	if second, _ := res.Record(1); second.Kind != KindCancel {
		t.Errorf("second record = %+v, want canceled", second)
	}
}

func TestRun_PanicIsolated(t *testing.T) {
	h := newHarness(t)
	h.renderer.hook = func(call int, markup []byte) (*render.Output, error) {
		if call == 1 {
			panic("boom")
		}
		return &render.Output{PDF: []byte("%PDF-1.7"), Markup: string(markup)}, nil
	}

	res := h.runner.Run(context.Background(), docs(invoiceMarkup, invoiceMarkup), "", nil)
	first, _ := res.Record(0)
	if first.OK() || first.Kind != KindPanic {
		t.Errorf("first = %+v, want internal failure", first)
	}
	if second, _ := res.Record(1); !second.OK() {
		t.Errorf("second record failed: %s", second.Reason)
	}
}

func TestRun_ResetsResult(t *testing.T) {
	h := newHarness(t)
	res := &Result{ID: "old", Records: []Record{{Original: "stale.html"}}}

	got := h.runner.Run(context.Background(), docs(invoiceMarkup), "", res)
	if got != res {
		t.Fatal("Run did not reuse the given Result")
	}
	if res.ID == "old" || res.ID == "" {
		t.Errorf("ID = %q, want a fresh id", res.ID)
	}
	if res.Len() != 1 || res.Records[0].Original != "doca.html" {
		t.Errorf("Records = %+v", res.Records)
	}
	if !res.Started.Equal(frozen) || !res.Finished.Equal(frozen) {
		t.Errorf("Started %v Finished %v", res.Started, res.Finished)
	}
}

func TestRun_Empty(t *testing.T) {
	h := newHarness(t)
	res := h.runner.Run(context.Background(), nil, "", nil)
	if res.Len() != 0 {
		t.Errorf("Len = %d, want 0", res.Len())
	}
	if h.released != h.opened {
		t.Errorf("opened %d released %d", h.opened, h.released)
	}
}

func TestTargetOpener_OpenError(t *testing.T) {
	open := TargetOpener(func(context.Context) (render.Target, error) {
		return nil, errors.New("launch failed")
	})
	if _, _, err := open(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
