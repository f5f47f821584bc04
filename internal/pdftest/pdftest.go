// Package pdftest builds minimal, well-formed PDF files for tests.
package pdftest

import (
	"bytes"
	"fmt"
)

// Font describes the single font /F1 shared by every page.
type Font struct {
	// ToUnicode is an optional CMap program attached to the font.
	ToUnicode string
}

// Build returns a PDF with one page per content stream, using Helvetica
// as /F1.
func Build(pages ...string) []byte {
	return BuildWithFont(Font{}, pages...)
}

// BuildWithFont is Build with a custom /F1.
func BuildWithFont(font Font, pages ...string) []byte {
	var buf bytes.Buffer
	offsets := map[int]int{}
	obj := func(id int, body string) {
		offsets[id] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", id, body)
	}
	stream := func(id int, data string) {
		obj(id, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(data), data))
	}

	buf.WriteString("%PDF-1.4\n")

	n := len(pages)
	fontID := 3 + 2*n
	cmapID := fontID + 1
	size := fontID + 1
	if font.ToUnicode != "" {
		size = cmapID + 1
	}

	kids := make([]byte, 0, 8*n)
	for i := range pages {
		if i > 0 {
			kids = append(kids, ' ')
		}
		kids = fmt.Appendf(kids, "%d 0 R", 3+2*i)
	}

	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n))
	for i, content := range pages {
		pageID, contentID := 3+2*i, 4+2*i
		obj(pageID, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>",
			contentID, fontID))
		stream(contentID, content)
	}

	fontDict := "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding"
	if font.ToUnicode != "" {
		fontDict += fmt.Sprintf(" /ToUnicode %d 0 R", cmapID)
	}
	obj(fontID, fontDict+" >>")
	if font.ToUnicode != "" {
		stream(cmapID, font.ToUnicode)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", size)
	for id := 1; id < size; id++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[id])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", size, xref)
	return buf.Bytes()
}

// CMap returns a one-byte ToUnicode CMap program mapping each code to the
// rune at the same position in runes, starting at code 0x01.
func CMap(runes []rune) string {
	var b bytes.Buffer
	b.WriteString("/CIDInit /ProcSet findresource begin\n12 dict begin\nbegincmap\n")
	b.WriteString("/CMapName /Test-UCS def\n/CMapType 2 def\n")
	b.WriteString("1 begincodespacerange\n<00> <FF>\nendcodespacerange\n")
	fmt.Fprintf(&b, "%d beginbfchar\n", len(runes))
	for i, r := range runes {
		fmt.Fprintf(&b, "<%02X> <%04X>\n", i+1, r)
	}
	b.WriteString("endbfchar\nendcmap\nCMapName currentdict /CMap defineresource pop\nend\nend\n")
	return b.String()
}
