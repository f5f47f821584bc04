// Package extract locates the issuing company name and the effective
// (drafting) date in a rendered invoice.
//
// Invoices are not produced from one fixed template, so both fields are found
// with an ordered list of layout-tolerant strategies. The first strategy that
// yields a non-empty value wins; later strategies are never consulted.
//
// Company name:
//
//  1. structural: the first table cell holding a company-name label, then the
//     first non-empty cell after it in the same row (markup only)
//  2. pattern: the shortest span between a company-name label and the next
//     person-name label in the flattened text
//  3. line: bisect the first line carrying both labels (flat text only)
//
// Effective date:
//
//  1. structural: the first cell labelled as a drafting date, then its
//     following cells or the next row (markup only)
//  2. pattern: year, month and day joined by '/', '.', '-' or 년/월/일
//
// Both fields are advisory. A miss is an empty string, never an error.
package extract

import (
	"bytes"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
)

// Kind tells the extractor what the content is.
type Kind int

const (
	// Markup is an HTML document.
	Markup Kind = iota
	// FlatText is plain text, one visual line per '\n', as extracted from a PDF.
	FlatText
)

func (k Kind) String() string {
	switch k {
	case Markup:
		return "markup"
	case FlatText:
		return "flat_text"
	}
	return "unknown"
}

// Result holds the extracted fields. An empty field means "not found".
type Result struct {
	CompanyName   string `json:"company_name,omitempty"`
	EffectiveDate string `json:"effective_date,omitempty"` // YYYYMMDD
}

// HasCompany reports whether a company name was found.
func (r Result) HasCompany() bool { return r.CompanyName != "" }

// HasDate reports whether an effective date was found.
func (r Result) HasDate() bool { return r.EffectiveDate != "" }

// Complete reports whether both fields were found.
func (r Result) Complete() bool { return r.HasCompany() && r.HasDate() }

// Empty reports whether neither field was found.
func (r Result) Empty() bool { return !r.HasCompany() && !r.HasDate() }

// Fill returns r with its missing fields taken from other.
// Fields already present in r are kept.
func (r Result) Fill(other Result) Result {
	if !r.HasCompany() {
		r.CompanyName = other.CompanyName
	}
	if !r.HasDate() {
		r.EffectiveDate = other.EffectiveDate
	}
	return r
}

// Config configures an Extractor.
type Config struct {
	// MaxNameLen is the longest company name, in runes, the pattern strategy
	// accepts. Longer spans are treated as a miss. Default: 60.
	MaxNameLen int

	// Logger for debug messages.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.MaxNameLen <= 0 {
		c.MaxNameLen = 60
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Extractor runs the field strategies. It is stateless and safe for
// concurrent use.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{cfg: cfg, logger: cfg.Logger}
}

// Extract runs all applicable strategies over content. It never fails:
// unparsable or empty content yields an empty Result.
func (e *Extractor) Extract(content string, kind Kind) Result {
	if strings.TrimSpace(content) == "" {
		e.logger.Debug("extract: empty content", "kind", kind)
		return Result{}
	}

	src, err := newSource(content, kind)
	if err != nil {
		e.logger.Debug("extract: parse failed", "kind", kind, "error", err)
		return Result{}
	}

	var res Result
	if name, by, ok := e.first(companyStrategies, src); ok {
		res.CompanyName = name
		e.logger.Debug("extract: company name", "strategy", by, "kind", kind)
	}
	if date, by, ok := e.first(dateStrategies, src); ok {
		res.EffectiveDate = date
		e.logger.Debug("extract: effective date", "strategy", by, "kind", kind)
	}
	return res
}

// Extract runs the default Extractor.
func Extract(content string, kind Kind) Result {
	return defaultExtractor.Extract(content, kind)
}

var defaultExtractor = New(Config{})

// strategy is one entry of a prioritized strategy list.
type strategy struct {
	name string
	find func(e *Extractor, src *source) (string, bool)
}

func (e *Extractor) first(list []strategy, src *source) (string, string, bool) {
	for _, s := range list {
		if v, ok := s.find(e, src); ok {
			return v, s.name, true
		}
	}
	return "", "", false
}

// source is the content prepared once for all strategies.
type source struct {
	kind Kind
	// rows holds the text of each table cell, grouped by row in document
	// order. Nil for flat text.
	rows [][]string
	// text is the flattened text. For markup it is one line; for flat text
	// it keeps the original line breaks.
	text string
}

func newSource(content string, kind Kind) (*source, error) {
	if kind == FlatText {
		return &source{kind: kind, text: content}, nil
	}
	doc, err := html.Parse(bytes.NewReader([]byte(content)))
	if err != nil {
		return nil, err
	}
	return &source{
		kind: kind,
		rows: tableRows(doc),
		text: flatten(doc),
	}, nil
}

// lines returns the non-blank lines of the flattened text.
func (s *source) lines() []string {
	var out []string
	for _, l := range strings.Split(s.text, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}
