package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Label token sets. Matching ignores whitespace inside a token, so "상 호"
// and "상호" are the same label.
var (
	companyLabels    = []string{"법인명", "상호"}
	personLabels     = []string{"대표자", "성명"}
	identifierLabels = []string{"사업자등록번호", "사업자번호", "등록번호"}
	draftingLabels   = []string{"작성"}
	dateLabels       = []string{"일자", "년월일", "작성일"}
)

var (
	companyLabelRe = labelPattern(companyLabels)
	personLabelRe  = labelPattern(personLabels)

	// leadingLabelRe matches company labels left at the front of a value.
	leadingLabelRe = regexp.MustCompile(`^(?:[\s:：()（）]*` + companyLabelRe.String() + `)+`)
)

// labelPattern compiles tokens into one alternation that tolerates
// whitespace between the runes of each token.
func labelPattern(tokens []string) *regexp.Regexp {
	alts := make([]string, len(tokens))
	for i, tok := range tokens {
		var parts []string
		for _, r := range tok {
			parts = append(parts, regexp.QuoteMeta(string(r)))
		}
		alts[i] = strings.Join(parts, `\s*`)
	}
	return regexp.MustCompile(`(?:` + strings.Join(alts, "|") + `)`)
}

// compact removes all whitespace so cell text can be compared to tokens.
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// hasLabel reports whether text contains any of the tokens.
func hasLabel(text string, tokens []string) bool {
	c := compact(text)
	for _, tok := range tokens {
		if strings.Contains(c, tok) {
			return true
		}
	}
	return false
}

var parenReplacer = strings.NewReplacer("(", "", ")", "", "（", "", "）", "")

// cleanName applies the post-processing shared by all company strategies:
// a leading label and parentheses are removed, whitespace is collapsed and
// surrounding punctuation is trimmed. An empty return is a miss.
func cleanName(s string) string {
	s = leadingLabelRe.ReplaceAllString(s, "")
	s = parenReplacer.Replace(s)
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(":：·,;[]", r)
	})
}
