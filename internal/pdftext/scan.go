package pdftext

import (
	"bytes"
	"strconv"
)

// name is a PDF name operand without the leading slash.
type name string

// scanner tokenizes a content stream into operands and operators.
type scanner struct {
	data  []byte
	pos   int
	depth int
}

const maxNesting = 32

func newScanner(data []byte) *scanner {
	return &scanner{data: data}
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// skip moves past whitespace and comments.
func (s *scanner) skip() {
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if c == '%' {
			for s.pos < len(s.data) && s.data[s.pos] != '\n' && s.data[s.pos] != '\r' {
				s.pos++
			}
			continue
		}
		if !isSpace(c) {
			return
		}
		s.pos++
	}
}

// next returns the next operand, or the next operator as op. ok is false
// at the end of the stream.
func (s *scanner) next() (val any, op string, ok bool) {
	s.skip()
	if s.pos >= len(s.data) {
		return nil, "", false
	}
	c := s.data[s.pos]
	switch {
	case c == '(':
		return s.literal(), "", true
	case c == '<' && s.peekAt(1) == '<':
		s.dict()
		return nil, "", true
	case c == '<':
		return s.hex(), "", true
	case c == '/':
		return s.name(), "", true
	case c == '[':
		return s.array(), "", true
	case c == ']' || c == '>' || c == ')' || c == '{' || c == '}':
		s.pos++
		return nil, "", true
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return s.number(), "", true
	}
	return nil, s.keyword(), true
}

func (s *scanner) peekAt(n int) byte {
	if s.pos+n < len(s.data) {
		return s.data[s.pos+n]
	}
	return 0
}

func (s *scanner) keyword() string {
	start := s.pos
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) && !isDelim(s.data[s.pos]) {
		s.pos++
	}
	if s.pos == start {
		s.pos++
	}
	return string(s.data[start:s.pos])
}

func (s *scanner) number() float64 {
	start := s.pos
	s.pos++
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		if (c < '0' || c > '9') && c != '.' {
			break
		}
		s.pos++
	}
	f, _ := strconv.ParseFloat(string(s.data[start:s.pos]), 64)
	return f
}

func (s *scanner) name() name {
	s.pos++
	start := s.pos
	for s.pos < len(s.data) && !isSpace(s.data[s.pos]) && !isDelim(s.data[s.pos]) {
		s.pos++
	}
	raw := s.data[start:s.pos]
	if bytes.IndexByte(raw, '#') < 0 {
		return name(raw)
	}
	var buf bytes.Buffer
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) {
			buf.WriteByte(hexVal(raw[i+1])<<4 | hexVal(raw[i+2]))
			i += 2
			continue
		}
		buf.WriteByte(raw[i])
	}
	return name(buf.String())
}

func (s *scanner) literal() []byte {
	s.pos++
	var buf bytes.Buffer
	depth := 1
	for s.pos < len(s.data) {
		c := s.data[s.pos]
		s.pos++
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return buf.Bytes()
			}
		case '\\':
			if s.pos >= len(s.data) {
				return buf.Bytes()
			}
			esc := s.data[s.pos]
			s.pos++
			switch esc {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '\r':
				if s.pos < len(s.data) && s.data[s.pos] == '\n' {
					s.pos++
				}
			case '\n':
			default:
				if esc < '0' || esc > '7' {
					buf.WriteByte(esc)
					continue
				}
				oct := int(esc - '0')
				for i := 0; i < 2 && s.pos < len(s.data); i++ {
					d := s.data[s.pos]
					if d < '0' || d > '7' {
						break
					}
					oct = oct*8 + int(d-'0')
					s.pos++
				}
				buf.WriteByte(byte(oct))
			}
			continue
		}
		buf.WriteByte(c)
	}
	return buf.Bytes()
}

func (s *scanner) hex() []byte {
	s.pos++
	var digits []byte
	for s.pos < len(s.data) && s.data[s.pos] != '>' {
		if c := s.data[s.pos]; !isSpace(c) {
			digits = append(digits, c)
		}
		s.pos++
	}
	s.pos++
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = hexVal(digits[2*i])<<4 | hexVal(digits[2*i+1])
	}
	return out
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}

func (s *scanner) array() []any {
	s.pos++
	s.depth++
	defer func() { s.depth-- }()

	var arr []any
	for {
		s.skip()
		if s.pos >= len(s.data) {
			return arr
		}
		if s.data[s.pos] == ']' {
			s.pos++
			return arr
		}
		if s.depth > maxNesting {
			s.pos++
			continue
		}
		val, op, _ := s.next()
		if op != "" {
			continue
		}
		arr = append(arr, val)
	}
}

// dict skips an inline dictionary such as marked-content properties.
func (s *scanner) dict() {
	s.pos += 2
	depth := 1
	for s.pos < len(s.data) && depth > 0 {
		switch {
		case s.data[s.pos] == '(':
			s.literal()
			continue
		case s.data[s.pos] == '<' && s.peekAt(1) == '<':
			depth++
			s.pos += 2
			continue
		case s.data[s.pos] == '>' && s.peekAt(1) == '>':
			depth--
			s.pos += 2
			continue
		}
		s.pos++
	}
}

// skipInlineImage moves past the data of an inline image, up to and
// including the EI operator.
func (s *scanner) skipInlineImage() {
	idx := bytes.Index(s.data[s.pos:], []byte("ID"))
	if idx < 0 {
		s.pos = len(s.data)
		return
	}
	s.pos += idx + 2
	for s.pos < len(s.data) {
		idx := bytes.Index(s.data[s.pos:], []byte("EI"))
		if idx < 0 {
			s.pos = len(s.data)
			return
		}
		end := s.pos + idx
		s.pos = end + 2
		if end > 0 && isSpace(s.data[end-1]) && (s.pos >= len(s.data) || isSpace(s.data[s.pos])) {
			return
		}
	}
}
