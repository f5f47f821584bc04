package render

import (
	"fmt"
	"strings"
)

// PaperSize is a sheet size in centimeters.
type PaperSize struct {
	Width  float64
	Height float64
}

// Standard paper sizes.
var (
	A3     = PaperSize{Width: 29.7, Height: 42.0}
	A4     = PaperSize{Width: 21.0, Height: 29.7}
	A5     = PaperSize{Width: 14.8, Height: 21.0}
	B5     = PaperSize{Width: 17.6, Height: 25.0}
	Letter = PaperSize{Width: 21.59, Height: 27.94}
	Legal  = PaperSize{Width: 21.59, Height: 35.56}
)

var paperSizes = map[string]PaperSize{
	"a3":     A3,
	"a4":     A4,
	"a5":     A5,
	"b5":     B5,
	"letter": Letter,
	"legal":  Legal,
}

// ParsePaper looks up a paper size by name ("A4", "letter", ...).
// An empty name selects A4.
func ParsePaper(name string) (PaperSize, error) {
	if name == "" {
		return A4, nil
	}
	p, ok := paperSizes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return PaperSize{}, fmt.Errorf("render: unknown paper size %q", name)
	}
	return p, nil
}

// Margin holds page margins in centimeters.
type Margin struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// UniformMargin returns a Margin with the same value on all sides.
func UniformMargin(cm float64) Margin {
	return Margin{Top: cm, Right: cm, Bottom: cm, Left: cm}
}

// CaptureOptions describes the full-page capture requested from a Target.
type CaptureOptions struct {
	Paper     PaperSize
	Landscape bool
	Margin    Margin
	// Scale of the page rendering, 0.1 to 2.0.
	Scale float64
	// Background enables printing of background colors and images.
	Background bool
}

// DefaultCaptureOptions returns A4 portrait, 1 cm margins, scale 1 and
// background graphics on.
func DefaultCaptureOptions() CaptureOptions {
	return CaptureOptions{
		Paper:      A4,
		Margin:     UniformMargin(1.0),
		Scale:      1.0,
		Background: true,
	}
}

// Resolved fills zero-valued size, margin and scale with the defaults.
// Background is taken as given.
func (c CaptureOptions) Resolved() CaptureOptions {
	d := DefaultCaptureOptions()
	if c.Paper == (PaperSize{}) {
		c.Paper = d.Paper
	}
	if c.Margin == (Margin{}) {
		c.Margin = d.Margin
	}
	if c.Scale <= 0 {
		c.Scale = d.Scale
	}
	return c
}

func cmToInches(cm float64) float64 {
	return cm / 2.54
}

// PaperInches returns the sheet width and height in inches, swapped for
// landscape.
func (c CaptureOptions) PaperInches() (width, height float64) {
	r := c.Resolved()
	w, h := cmToInches(r.Paper.Width), cmToInches(r.Paper.Height)
	if r.Landscape {
		return h, w
	}
	return w, h
}

// MarginInches returns the margins in inches.
func (c CaptureOptions) MarginInches() (top, right, bottom, left float64) {
	r := c.Resolved()
	return cmToInches(r.Margin.Top),
		cmToInches(r.Margin.Right),
		cmToInches(r.Margin.Bottom),
		cmToInches(r.Margin.Left)
}
