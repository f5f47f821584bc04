package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var companyStrategies = []strategy{
	{name: "structural", find: structuralCompany},
	{name: "pattern", find: patternCompany},
	{name: "line", find: lineCompany},
}

// structuralCompany reads the value cell that follows the first
// company-name label cell in the same row. Reaching a person-name or
// identifier label before any value means the row holds no name.
func structuralCompany(_ *Extractor, src *source) (string, bool) {
	for _, row := range src.rows {
		for i, cell := range row {
			if !hasLabel(cell, companyLabels) {
				continue
			}
			for _, next := range row[i+1:] {
				if strings.TrimSpace(next) == "" {
					continue
				}
				if hasLabel(next, personLabels) || hasLabel(next, identifierLabels) {
					return "", false
				}
				name := cleanName(next)
				return name, name != ""
			}
			return "", false
		}
	}
	return "", false
}

// companySpanRe captures the shortest span between a company-name label and
// the next person-name label.
var companySpanRe = regexp.MustCompile(`(?s)` + companyLabelRe.String() +
	`[\s:：()（）\[\]]*(.+?)\s*` + personLabelRe.String())

func patternCompany(e *Extractor, src *source) (string, bool) {
	m := companySpanRe.FindStringSubmatch(src.text)
	if m == nil {
		return "", false
	}
	if utf8.RuneCountInString(strings.TrimSpace(m[1])) > e.cfg.MaxNameLen {
		return "", false
	}
	name := cleanName(m[1])
	return name, name != ""
}

// lineCompany bisects the first line holding both labels: the text before
// the person-name label, then after the company-name label.
func lineCompany(_ *Extractor, src *source) (string, bool) {
	if src.kind != FlatText {
		return "", false
	}
	for _, line := range src.lines() {
		if !companyLabelRe.MatchString(line) || !personLabelRe.MatchString(line) {
			continue
		}
		before := line[:personLabelRe.FindStringIndex(line)[0]]
		loc := companyLabelRe.FindStringIndex(before)
		if loc == nil {
			return "", false
		}
		name := cleanName(before[loc[1]:])
		return name, name != ""
	}
	return "", false
}
