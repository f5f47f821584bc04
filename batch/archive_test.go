package batch

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/porticus-lab/invoice-pdf/extract"
)

func TestUniqueNames(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"distinct", []string{"a.pdf", "b.pdf"}, []string{"a.pdf", "b.pdf"}},
		{"duplicates", []string{"a.pdf", "a.pdf", "a.pdf"}, []string{"a.pdf", "a (2).pdf", "a (3).pdf"}},
		{"collision with existing", []string{"a.pdf", "a (2).pdf", "a.pdf"}, []string{"a.pdf", "a (2).pdf", "a (3).pdf"}},
		{"no extension", []string{"x", "x"}, []string{"x", "x (2)"}},
		{"empty", nil, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UniqueNames(tt.in)
			if !slices.Equal(got, tt.want) {
				t.Errorf("UniqueNames(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func sampleResult() *Result {
	fields := extract.Result{CompanyName: "주예시", EffectiveDate: "20240503"}
	name := "세금계산서_주예시_20240503.pdf"
	return &Result{
		ID: "run",
		Records: []Record{
			{Index: 0, Original: "a.html", Status: StatusSuccess, Filename: name, Fields: fields, Output: NewRendered(name, []byte("%PDF-a"))},
			{Index: 1, Original: "b.html", Status: StatusFailure, Kind: KindRender, Reason: "unlock: timeout"},
			{Index: 2, Original: "c.html", Status: StatusSuccess, Filename: name, Fields: fields, Output: NewRendered(name, []byte("%PDF-c"))},
		},
	}
}

func TestWriteArchive(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleResult().WriteArchive(&buf); err != nil {
		t.Fatalf("WriteArchive: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip: %v", err)
	}
	contents := map[string]string{}
	var order []string
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, _ := io.ReadAll(rc)
		rc.Close()
		contents[f.Name] = string(b)
		order = append(order, f.Name)
	}

	want := []string{"세금계산서_주예시_20240503.pdf", "세금계산서_주예시_20240503 (2).pdf", ManifestName}
	if !slices.Equal(order, want) {
		t.Fatalf("entries = %q, want %q", order, want)
	}
	if contents[want[0]] != "%PDF-a" || contents[want[1]] != "%PDF-c" {
		t.Errorf("pdf contents = %q, %q", contents[want[0]], contents[want[1]])
	}

	x, err := excelize.OpenReader(bytes.NewReader([]byte(contents[ManifestName])))
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	defer x.Close()
	rows, err := x.GetRows("Documents")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header plus 3", len(rows))
	}
	if !slices.Equal(rows[0], manifestHeader) {
		t.Errorf("header = %q", rows[0])
	}
	if rows[2][1] != "b.html" || rows[2][2] != "failure" || rows[2][6] != "unlock: timeout" {
		t.Errorf("failure row = %q", rows[2])
	}
	if rows[1][4] != "주예시" || rows[1][5] != "20240503" {
		t.Errorf("success row = %q", rows[1])
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriteManifest(t *testing.T) {
	var buf bytes.Buffer
	if err := sampleResult().WriteManifest(&buf); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}
	x, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer x.Close()
	rows, err := x.GetRows("Documents")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 4 || rows[3][0] != "3" || rows[3][3] != "세금계산서_주예시_20240503.pdf" {
		t.Errorf("rows = %q", rows)
	}

	err = sampleResult().WriteManifest(brokenWriter{})
	if err == nil || !strings.HasPrefix(err.Error(), "batch: ") {
		t.Errorf("broken writer: err = %v, want wrapped write error", err)
	}
}

func TestWriteArchive_NothingToArchive(t *testing.T) {
	res := &Result{Records: []Record{{Original: "a.html", Status: StatusFailure}}}
	err := res.WriteArchive(io.Discard)
	if !errors.Is(err, ErrNothingToArchive) {
		t.Fatalf("err = %v, want ErrNothingToArchive", err)
	}
}

func TestRendered(t *testing.T) {
	r := NewRendered("x.pdf", []byte("%PDF-1.7"))
	if r.Len() != 8 {
		t.Errorf("Len = %d", r.Len())
	}
	if r.Base64() != "JVBERi0xLjc=" {
		t.Errorf("Base64 = %q", r.Base64())
	}
	var buf bytes.Buffer
	if n, err := r.WriteTo(&buf); err != nil || n != 8 {
		t.Errorf("WriteTo = %d, %v", n, err)
	}
	b, _ := io.ReadAll(r.Reader())
	if string(b) != "%PDF-1.7" {
		t.Errorf("Reader = %q", b)
	}
}
