package pdftext

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m×n: m applied first, then n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func translate(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

// span is a run of text placed in device space.
type span struct {
	x, y float64
	size float64
	text string
}

// gstate holds the parts of the graphics state that affect text placement.
type gstate struct {
	ctm         matrix
	font        *font
	fontSize    float64
	charSpacing float64
	wordSpacing float64
	hscale      float64
	leading     float64
	rise        float64
}

// form is a form XObject ready to be interpreted.
type form struct {
	content []byte
	matrix  matrix
	res     *resources
}

// resources resolves the named fonts and XObjects of a content stream.
type resources struct {
	fonts map[string]*font
	forms func(name string) (*form, bool)
}

type interp struct {
	res    *resources
	gs     gstate
	stack  []gstate
	tm     matrix
	tlm    matrix
	spans  []span
	forms  int
	inText bool
}

const maxForms = 64

func newInterp(res *resources) *interp {
	return &interp{
		res: res,
		gs:  gstate{ctm: identity, fontSize: 12, hscale: 1},
	}
}

// run interprets one content stream.
func (in *interp) run(content []byte) {
	sc := newScanner(content)
	var args []any
	for {
		val, op, ok := sc.next()
		if !ok {
			return
		}
		if op == "" {
			args = append(args, val)
			continue
		}
		if op == "BI" {
			sc.skipInlineImage()
		} else {
			in.do(op, args)
		}
		args = args[:0]
	}
}

func num(args []any, i int) float64 {
	if i < len(args) {
		if f, ok := args[i].(float64); ok {
			return f
		}
	}
	return 0
}

func (in *interp) nextLine(tx, ty float64) {
	in.tlm = translate(tx, ty).mul(in.tlm)
	in.tm = in.tlm
}

func (in *interp) do(op string, args []any) {
	switch op {
	case "q":
		in.stack = append(in.stack, in.gs)
	case "Q":
		if n := len(in.stack); n > 0 {
			in.gs = in.stack[n-1]
			in.stack = in.stack[:n-1]
		}
	case "cm":
		if len(args) >= 6 {
			m := matrix{num(args, 0), num(args, 1), num(args, 2), num(args, 3), num(args, 4), num(args, 5)}
			in.gs.ctm = m.mul(in.gs.ctm)
		}

	case "BT":
		in.inText = true
		in.tm, in.tlm = identity, identity
	case "ET":
		in.inText = false

	case "Tf":
		if len(args) >= 2 {
			if n, ok := args[0].(name); ok {
				in.gs.font = in.res.fonts[string(n)]
			}
			in.gs.fontSize = num(args, 1)
		}
	case "Tc":
		in.gs.charSpacing = num(args, 0)
	case "Tw":
		in.gs.wordSpacing = num(args, 0)
	case "Tz":
		in.gs.hscale = num(args, 0) / 100
	case "TL":
		in.gs.leading = num(args, 0)
	case "Ts":
		in.gs.rise = num(args, 0)

	case "Td":
		in.nextLine(num(args, 0), num(args, 1))
	case "TD":
		in.gs.leading = -num(args, 1)
		in.nextLine(num(args, 0), num(args, 1))
	case "Tm":
		if len(args) >= 6 {
			in.tlm = matrix{num(args, 0), num(args, 1), num(args, 2), num(args, 3), num(args, 4), num(args, 5)}
			in.tm = in.tlm
		}
	case "T*":
		in.nextLine(0, -in.gs.leading)

	case "Tj":
		if len(args) >= 1 {
			in.show(args[0])
		}
	case "'":
		in.nextLine(0, -in.gs.leading)
		if len(args) >= 1 {
			in.show(args[0])
		}
	case `"`:
		if len(args) >= 3 {
			in.gs.wordSpacing = num(args, 0)
			in.gs.charSpacing = num(args, 1)
			in.nextLine(0, -in.gs.leading)
			in.show(args[2])
		}
	case "TJ":
		if len(args) >= 1 {
			if arr, ok := args[0].([]any); ok {
				in.showArray(arr)
			}
		}

	case "Do":
		if len(args) >= 1 {
			if n, ok := args[0].(name); ok {
				in.doForm(string(n))
			}
		}
	}
}

// show places one string at the current text position and advances it.
func (in *interp) show(arg any) {
	raw, ok := arg.([]byte)
	if !ok || !in.inText {
		return
	}
	text := in.gs.font.decode(raw)
	in.emit(text)
}

// showArray handles TJ: strings interleaved with positioning adjustments
// in thousandths of a text space unit. Large negative adjustments read as
// word gaps.
func (in *interp) showArray(arr []any) {
	if !in.inText {
		return
	}
	var sb strings.Builder
	for _, el := range arr {
		switch v := el.(type) {
		case []byte:
			sb.WriteString(in.gs.font.decode(v))
		case float64:
			if v < -100 {
				sb.WriteByte(' ')
			}
		}
	}
	in.emit(sb.String())
}

func (in *interp) emit(text string) {
	if text == "" {
		return
	}
	trm := matrix{in.gs.hscale, 0, 0, 1, 0, in.gs.rise}.mul(in.tm).mul(in.gs.ctm)
	size := in.gs.fontSize * math.Hypot(trm[2], trm[3])
	in.spans = append(in.spans, span{x: trm[4], y: trm[5], size: size, text: text})

	n := float64(len([]rune(text)))
	advance := (n*in.gs.fontSize*0.5 + n*in.gs.charSpacing +
		float64(strings.Count(text, " "))*in.gs.wordSpacing) * in.gs.hscale
	in.tm = translate(advance, 0).mul(in.tm)
}

func (in *interp) doForm(n string) {
	if in.res.forms == nil || in.forms >= maxForms {
		return
	}
	f, ok := in.res.forms(n)
	if !ok {
		return
	}
	in.forms++

	saved, savedRes := in.gs, in.res
	savedStack := len(in.stack)
	in.gs.ctm = f.matrix.mul(in.gs.ctm)
	if f.res != nil {
		in.res = f.res
	}
	in.run(f.content)
	in.gs, in.res = saved, savedRes
	in.stack = in.stack[:min(savedStack, len(in.stack))]
}

// text assembles the collected spans into lines, top to bottom and left
// to right, separating spans with a space when there is a visible gap.
func (in *interp) text() string {
	return spansToText(in.spans)
}

func spansToText(spans []span) string {
	if len(spans) == 0 {
		return ""
	}

	type line struct {
		y     float64
		spans []span
	}
	var lines []line

	tol := averageSize(spans) * 0.5
	if tol < 2 {
		tol = 2
	}
	for _, sp := range spans {
		placed := false
		for i := range lines {
			if math.Abs(lines[i].y-sp.y) < tol {
				lines[i].spans = append(lines[i].spans, sp)
				placed = true
				break
			}
		}
		if !placed {
			lines = append(lines, line{y: sp.y, spans: []span{sp}})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	var sb strings.Builder
	for li, l := range lines {
		sort.SliceStable(l.spans, func(i, j int) bool { return l.spans[i].x < l.spans[j].x })
		if li > 0 {
			sb.WriteByte('\n')
		}
		for si, sp := range l.spans {
			if si > 0 {
				prev := l.spans[si-1]
				gap := sp.x - (prev.x + float64(len([]rune(prev.text)))*prev.size*0.5)
				avg := (sp.size + prev.size) / 2
				if avg < 1 {
					avg = 12
				}
				if gap > avg*0.3 {
					sb.WriteByte(' ')
				}
			}
			sb.WriteString(cleanText(sp.text))
		}
	}
	return strings.TrimSpace(sb.String())
}

func averageSize(spans []span) float64 {
	sum := 0.0
	for _, s := range spans {
		sum += s.size
	}
	return sum / float64(len(spans))
}

// cleanText collapses whitespace runs and drops control characters.
func cleanText(s string) string {
	var sb strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				sb.WriteByte(' ')
			}
			prevSpace = true
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		prevSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}
