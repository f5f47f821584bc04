package pdftext

import (
	"errors"
	"strings"
	"testing"

	"github.com/porticus-lab/invoice-pdf/internal/pdftest"
)

func TestExtract_SimpleText(t *testing.T) {
	data := pdftest.Build("BT /F1 12 Tf 100 700 Td (Hello, World!) Tj ET")

	text, err := Extract(data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.Contains(text, "Hello, World!") {
		t.Errorf("expected 'Hello, World!' in output, got: %q", text)
	}
}

func TestExtract_TJOperator(t *testing.T) {
	data := pdftest.Build("BT /F1 14 Tf 50 750 Td [(Go) -200 (PDF)] TJ ET")

	text, err := Extract(data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if text != "Go PDF" {
		t.Errorf("Extract = %q, want %q", text, "Go PDF")
	}
}

func TestExtract_LineOrder(t *testing.T) {
	cs := "BT /F1 12 Tf 72 600 Td (second) Tj ET\n" +
		"BT /F1 12 Tf 72 700 Td (first) Tj ET\n" +
		"BT /F1 12 Tf 300 700 Td (right) Tj ET"
	text, err := Extract(pdftest.Build(cs))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if want := "first right\nsecond"; text != want {
		t.Errorf("Extract = %q, want %q", text, want)
	}
}

func TestExtract_FlippedCTM(t *testing.T) {
	// Chrome draws in a top-left origin space.
	cs := "1 0 0 -1 0 842 cm\n" +
		"BT /F1 12 Tf 1 0 0 -1 72 100 Tm (top) Tj ET\n" +
		"BT /F1 12 Tf 1 0 0 -1 72 200 Tm (below) Tj ET"
	text, err := Extract(pdftest.Build(cs))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if want := "top\nbelow"; text != want {
		t.Errorf("Extract = %q, want %q", text, want)
	}
}

func TestExtract_ToUnicode(t *testing.T) {
	runes := []rune("상호주예시성명")
	font := pdftest.Font{ToUnicode: pdftest.CMap(runes)}
	// codes 01 02 -> 상호, 03 04 05 -> 주예시, 06 07 -> 성명
	cs := "BT /F1 12 Tf 72 700 Td <0102> Tj 60 0 Td <030405> Tj 80 0 Td <0607> Tj ET"

	text, err := Extract(pdftest.BuildWithFont(font, cs))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if want := "상호 주예시 성명"; text != want {
		t.Errorf("Extract = %q, want %q", text, want)
	}
}

func TestPages_MultiPage(t *testing.T) {
	data := pdftest.Build(
		"BT /F1 12 Tf 72 700 Td (Page One) Tj ET",
		"BT /F1 12 Tf 72 700 Td (Page Two) Tj ET",
	)
	pages, err := Pages(data)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0] != "Page One" || pages[1] != "Page Two" {
		t.Errorf("pages = %q", pages)
	}
}

func TestExtract_NoText(t *testing.T) {
	data := pdftest.Build("0 0 m 100 100 l S")
	if _, err := Extract(data); !errors.Is(err, ErrNoText) {
		t.Errorf("Extract err = %v, want ErrNoText", err)
	}
}

func TestExtract_NotPDF(t *testing.T) {
	if _, err := Extract([]byte("<html></html>")); err == nil {
		t.Error("expected error for non-PDF input")
	}
}
