package pdftext

import (
	"strings"
	"unicode/utf16"
)

// cmap is a parsed ToUnicode CMap.
type cmap struct {
	spaces []codespace
	chars  map[codeKey]string
	ranges []bfrange
}

type codespace struct {
	n         int
	low, high uint32
}

// codeKey identifies a code by value and byte width; <41> and <0041> are
// different codes.
type codeKey struct {
	n    int
	code uint32
}

type bfrange struct {
	n         int
	low, high uint32
	start     []rune
	list      []string
}

// parseCMap reads the codespace, bfchar and bfrange sections of a CMap
// program. Unknown operators are ignored.
func parseCMap(data []byte) *cmap {
	cm := &cmap{chars: map[codeKey]string{}}
	toks := cmapTokens(data)

	for i := 0; i < len(toks); i++ {
		switch toks[i] {
		case "begincodespacerange":
			for i++; i+1 < len(toks) && toks[i] != "endcodespacerange"; i += 2 {
				lo, n := hexCode(toks[i])
				hi, _ := hexCode(toks[i+1])
				if n > 0 {
					cm.spaces = append(cm.spaces, codespace{n: n, low: lo, high: hi})
				}
			}
		case "beginbfchar":
			for i++; i+1 < len(toks) && toks[i] != "endbfchar"; i += 2 {
				code, n := hexCode(toks[i])
				if n > 0 {
					cm.chars[codeKey{n, code}] = hexUTF16(toks[i+1])
				}
			}
		case "beginbfrange":
			for i++; i+2 < len(toks) && toks[i] != "endbfrange"; {
				lo, n := hexCode(toks[i])
				hi, _ := hexCode(toks[i+1])
				r := bfrange{n: n, low: lo, high: hi}
				i += 2
				if toks[i] == "[" {
					for i++; i < len(toks) && toks[i] != "]"; i++ {
						r.list = append(r.list, hexUTF16(toks[i]))
					}
					i++
				} else {
					r.start = []rune(hexUTF16(toks[i]))
					i++
				}
				if n > 0 && hi >= lo {
					cm.ranges = append(cm.ranges, r)
				}
			}
		}
	}
	return cm
}

// cmapTokens splits a CMap program into hex strings (with brackets),
// array brackets and bare words.
func cmapTokens(data []byte) []string {
	var toks []string
	s := string(data)
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case isSpace(c):
			i++
		case c == '%':
			for i < len(s) && s[i] != '\n' && s[i] != '\r' {
				i++
			}
		case c == '<' && i+1 < len(s) && s[i+1] == '<', c == '>' && i+1 < len(s) && s[i+1] == '>':
			toks = append(toks, s[i:i+2])
			i += 2
		case c == '<':
			end := strings.IndexByte(s[i:], '>')
			if end < 0 {
				return toks
			}
			toks = append(toks, s[i:i+end+1])
			i += end + 1
		case c == '[' || c == ']':
			toks = append(toks, string(c))
			i++
		case c == '(':
			end := strings.IndexByte(s[i:], ')')
			if end < 0 {
				return toks
			}
			toks = append(toks, s[i:i+end+1])
			i += end + 1
		default:
			start := i
			for i < len(s) && !isSpace(s[i]) && !isDelim(s[i]) {
				i++
			}
			if i == start {
				i++
				continue
			}
			toks = append(toks, s[start:i])
		}
	}
	return toks
}

// hexCode parses "<0041>" into its value and byte width.
func hexCode(tok string) (uint32, int) {
	if len(tok) < 2 || tok[0] != '<' || tok[len(tok)-1] != '>' {
		return 0, 0
	}
	digits := strings.Join(strings.Fields(tok[1:len(tok)-1]), "")
	if len(digits) == 0 || len(digits) > 8 {
		return 0, 0
	}
	var v uint32
	for i := 0; i < len(digits); i++ {
		v = v<<4 | uint32(hexVal(digits[i]))
	}
	return v, (len(digits) + 1) / 2
}

// hexUTF16 decodes "<D55C>" as UTF-16BE.
func hexUTF16(tok string) string {
	if len(tok) < 2 || tok[0] != '<' {
		return ""
	}
	raw := []byte(strings.Join(strings.Fields(strings.Trim(tok, "<>")), ""))
	for len(raw)%4 != 0 {
		raw = append(raw, '0')
	}
	units := make([]uint16, 0, len(raw)/4)
	for i := 0; i+3 < len(raw); i += 4 {
		units = append(units, uint16(hexVal(raw[i]))<<12|uint16(hexVal(raw[i+1]))<<8|
			uint16(hexVal(raw[i+2]))<<4|uint16(hexVal(raw[i+3])))
	}
	return string(utf16.Decode(units))
}

// codeWidth returns the byte width of the code starting at data[0] per
// the codespace ranges, or fallback when none matches.
func (cm *cmap) codeWidth(data []byte, fallback int) int {
	for _, sp := range cm.spaces {
		if sp.n > len(data) {
			continue
		}
		var v uint32
		for _, b := range data[:sp.n] {
			v = v<<8 | uint32(b)
		}
		if v >= sp.low && v <= sp.high {
			return sp.n
		}
	}
	if fallback > len(data) {
		return len(data)
	}
	return fallback
}

// lookup maps one code to text.
func (cm *cmap) lookup(code uint32, n int) (string, bool) {
	if s, ok := cm.chars[codeKey{n, code}]; ok {
		return s, true
	}
	for _, r := range cm.ranges {
		if r.n != n || code < r.low || code > r.high {
			continue
		}
		off := int(code - r.low)
		if r.list != nil {
			if off < len(r.list) {
				return r.list[off], true
			}
			return "", false
		}
		if len(r.start) == 0 {
			return "", false
		}
		out := append([]rune(nil), r.start...)
		out[len(out)-1] += rune(off)
		return string(out), true
	}
	return "", false
}
