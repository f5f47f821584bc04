package pdftext

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// font decodes the strings shown with one font resource.
type font struct {
	// composite fonts (Type0) use multi-byte codes, two bytes by default.
	composite bool
	toUnicode *cmap
	table     [256]rune
}

func newSimpleFont(encoding string) *font {
	f := &font{}
	f.applyEncoding(encoding)
	return f
}

func (f *font) applyEncoding(encoding string) {
	cm := charmap.Windows1252
	if encoding == "MacRomanEncoding" {
		cm = charmap.Macintosh
	}
	for i := range f.table {
		f.table[i] = cm.DecodeByte(byte(i))
	}
}

// applyDifferences overrides codes from a /Differences array: an integer
// sets the next code, each following glyph name maps one code.
func (f *font) applyDifferences(diffs []any) {
	code := 0
	for _, d := range diffs {
		switch v := d.(type) {
		case int:
			code = v
		case string:
			if r, ok := glyphRune(v); ok && code >= 0 && code < len(f.table) {
				f.table[code] = r
			}
			code++
		}
	}
}

var glyphNames = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
	"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
	"parenleft": '(', "parenright": ')', "asterisk": '*', "plus": '+',
	"comma": ',', "hyphen": '-', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"colon": ':', "semicolon": ';', "less": '<', "equal": '=',
	"greater": '>', "question": '?', "at": '@', "bracketleft": '[',
	"backslash": '\\', "bracketright": ']', "underscore": '_',
	"bullet": '•', "endash": '–', "emdash": '—', "won": '₩',
}

// glyphRune resolves a glyph name: single letters, uniXXXX, uXXXX[XX] and
// a handful of common names.
func glyphRune(glyph string) (rune, bool) {
	if r, ok := glyphNames[glyph]; ok {
		return r, true
	}
	if utf8.RuneCountInString(glyph) == 1 {
		r, _ := utf8.DecodeRuneInString(glyph)
		return r, true
	}
	if hex, ok := strings.CutPrefix(glyph, "uni"); ok && len(hex) >= 4 {
		if v, err := strconv.ParseUint(hex[:4], 16, 32); err == nil {
			return rune(v), true
		}
	}
	if hex, ok := strings.CutPrefix(glyph, "u"); ok && len(hex) >= 4 && len(hex) <= 6 {
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return rune(v), true
		}
	}
	return 0, false
}

// decode turns a shown string into text.
func (f *font) decode(data []byte) string {
	if f == nil {
		return latin(data)
	}
	var sb strings.Builder
	width := 1
	if f.composite {
		width = 2
	}
	for i := 0; i < len(data); {
		if f.toUnicode == nil {
			if f.composite {
				return sb.String()
			}
			sb.WriteRune(f.table[data[i]])
			i++
			continue
		}
		n := f.toUnicode.codeWidth(data[i:], width)
		var code uint32
		for _, b := range data[i : i+n] {
			code = code<<8 | uint32(b)
		}
		if s, ok := f.toUnicode.lookup(code, n); ok {
			sb.WriteString(s)
		} else if !f.composite && n == 1 {
			sb.WriteRune(f.table[data[i]])
		}
		i += n
	}
	return sb.String()
}

// latin decodes bytes as Windows-1252 when the font is unknown.
func latin(data []byte) string {
	var sb strings.Builder
	for _, b := range data {
		sb.WriteRune(charmap.Windows1252.DecodeByte(b))
	}
	return sb.String()
}
