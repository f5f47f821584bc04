package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/porticus-lab/invoice-pdf/batch"
	"github.com/porticus-lab/invoice-pdf/extract"
	"github.com/porticus-lab/invoice-pdf/internal/config"
	"github.com/porticus-lab/invoice-pdf/internal/pdftest"
	"github.com/porticus-lab/invoice-pdf/naming"
)

func TestPrintFields(t *testing.T) {
	dir := t.TempDir()
	html := filepath.Join(dir, "a.html")
	os.WriteFile(html, []byte(`<table><tr><td>상호</td><td>(주)예시</td><td>성명</td><td>홍길동</td></tr>
<tr><td>작성일자</td><td>2024년 5월 3일</td></tr></table>`), 0o644)
	pdf := filepath.Join(dir, "b.pdf")
	os.WriteFile(pdf, pdftest.Build("BT /F1 12 Tf 72 720 Td (Date 2024/5/3) Tj ET"), 0o644)

	names := naming.Synthesizer{Clock: func() time.Time { return time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC) }}
	var buf bytes.Buffer
	if err := printFields(&buf, extract.New(extract.Config{}), names, []string{html, pdf}); err != nil {
		t.Fatalf("printFields: %v", err)
	}

	dec := json.NewDecoder(&buf)
	var first, second fieldsOutput
	if err := dec.Decode(&first); err != nil {
		t.Fatal(err)
	}
	if err := dec.Decode(&second); err != nil {
		t.Fatal(err)
	}
	if first.Source != "markup" || first.Filename != "세금계산서_주예시_20240503.pdf" {
		t.Errorf("html = %+v", first)
	}
	if second.Source != "flat_text" || second.Fields.CompanyName != "" {
		t.Errorf("pdf = %+v", second)
	}
}

func TestFieldsOf_Missing(t *testing.T) {
	if _, err := fieldsOf(extract.New(extract.Config{}), filepath.Join(t.TempDir(), "none.html")); err == nil {
		t.Error("expected error")
	}
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	res := &batch.Result{Records: []batch.Record{
		{Status: batch.StatusSuccess, Filename: "x.pdf", Output: batch.NewRendered("x.pdf", []byte("%PDF-1"))},
		{Status: batch.StatusFailure, Reason: "load: boom"},
		{Status: batch.StatusSuccess, Filename: "x.pdf", Output: batch.NewRendered("x.pdf", []byte("%PDF-2"))},
	}}
	if err := writeOutputs(res, dir); err != nil {
		t.Fatalf("writeOutputs: %v", err)
	}
	for name, want := range map[string]string{"x.pdf": "%PDF-1", "x (2).pdf": "%PDF-2"} {
		got, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil || string(got) != want {
			t.Errorf("%s = %q, %v", name, got, err)
		}
	}
}

func TestGateConfig(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Auth.DevEmail = "kim@example.co.kr"
	gc := gateConfig(cfg)
	if gc.DevEmail != "kim@example.co.kr" || gc.SessionTTL != 12*time.Hour {
		t.Errorf("gateConfig = %+v", gc)
	}
}
