package extract

import (
	"regexp"
	"strings"
)

var dateStrategies = []strategy{
	{name: "structural", find: structuralDate},
	{name: "pattern", find: patternDate},
}

var digitRunRe = regexp.MustCompile(`\d+`)

// structuralDate finds the first drafting-date label cell and reads the
// date from the cells after it, or failing that from the next row.
func structuralDate(_ *Extractor, src *source) (string, bool) {
	for r, row := range src.rows {
		for i, cell := range row {
			if !hasLabel(cell, draftingLabels) || !hasLabel(cell, dateLabels) {
				continue
			}
			if d, ok := dateFromCells(row[i+1:]); ok {
				return d, true
			}
			if r+1 < len(src.rows) {
				if d, ok := dateFromCells(src.rows[r+1]); ok {
					return d, true
				}
			}
			return "", false
		}
	}
	return "", false
}

// dateFromCells reads a date from value cells. The first non-empty cell
// may lead with an 8-digit YYYYMMDD run; otherwise the first 4-digit year
// followed by two runs of one or two digits is taken.
func dateFromCells(cells []string) (string, bool) {
	for _, cell := range cells {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		if loc := digitRunRe.FindStringIndex(cell); loc != nil && loc[0] == 0 && loc[1] == 8 {
			return cell[:8], true
		}
		break
	}
	runs := digitRunRe.FindAllString(strings.Join(cells, " "), -1)
	for i, run := range runs {
		if len(run) == 4 && i+2 < len(runs) && len(runs[i+1]) <= 2 && len(runs[i+2]) <= 2 {
			return normalizeDate(run, runs[i+1], runs[i+2]), true
		}
	}
	return "", false
}

// datePatternRe matches year, month and day separated by '/', '.', '-' or
// the Korean unit suffixes, with optional whitespace around separators.
var datePatternRe = regexp.MustCompile(
	`(?:^|\D)(\d{4})\s*(?:[./-]|년)\s*(\d{1,2})\s*(?:[./-]|월)\s*(\d{1,2})(?:\D|$)`)

func patternDate(_ *Extractor, src *source) (string, bool) {
	m := datePatternRe.FindStringSubmatch(src.text)
	if m == nil {
		return "", false
	}
	return normalizeDate(m[1], m[2], m[3]), true
}

// normalizeDate zero-pads the triple to YYYYMMDD. Values are not checked
// against the calendar: month 13 passes through.
func normalizeDate(year, month, day string) string {
	return year + pad2(month) + pad2(day)
}

func pad2(s string) string {
	if len(s) < 2 {
		return "0" + s
	}
	return s
}
