// Package naming turns extracted invoice fields into an output filename.
package naming

import (
	"fmt"
	"strings"
	"time"

	"github.com/porticus-lab/invoice-pdf/extract"
)

// DateFallback selects what stands in for a missing effective date.
type DateFallback string

const (
	// FallbackToday uses the clock's current date.
	FallbackToday DateFallback = "today"
	// FallbackSequence uses the clock's current date plus the 1-based
	// sequence index, so undated documents of one batch never share a name.
	FallbackSequence DateFallback = "sequence"
)

// Defaults used by a zero Synthesizer.
const (
	DefaultPrefix      = "세금계산서"
	DefaultPlaceholder = "Unknown"
)

// illegal holds the characters not allowed in a file name on common
// filesystems.
var illegal = strings.NewReplacer(
	`\`, "_", "/", "_", "*", "_", "?", "_", ":", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// Synthesizer builds "<prefix>_<company>_<date>.pdf" names.
//
// The zero value is ready to use: default prefix and placeholder, the
// FallbackToday policy and the wall clock.
type Synthesizer struct {
	Prefix      string
	Placeholder string
	Fallback    DateFallback
	// Clock supplies the fallback date. Defaults to time.Now.
	Clock func() time.Time
}

func (s Synthesizer) withDefaults() Synthesizer {
	if s.Prefix == "" {
		s.Prefix = DefaultPrefix
	}
	if s.Placeholder == "" {
		s.Placeholder = DefaultPlaceholder
	}
	if s.Fallback == "" {
		s.Fallback = FallbackToday
	}
	if s.Clock == nil {
		s.Clock = time.Now
	}
	return s
}

// Synthesize returns the filename for result. seq is the document's 0-based
// position in its batch. The output depends only on its inputs and the
// clock, so a frozen clock gives identical names on repeated calls.
func (s Synthesizer) Synthesize(result extract.Result, seq int) string {
	s = s.withDefaults()

	name := strings.TrimSpace(result.CompanyName)
	if name == "" {
		name = s.Placeholder
	}
	name = SafeName(name)

	date := result.EffectiveDate
	if date == "" {
		date = s.Clock().Format("20060102")
		if s.Fallback == FallbackSequence {
			date = fmt.Sprintf("%s-%03d", date, seq+1)
		}
	}
	return s.Prefix + "_" + name + "_" + date + ".pdf"
}

// Synthesize builds a filename with the default Synthesizer and the given
// fallback clock.
func Synthesize(result extract.Result, seq int, clock func() time.Time) string {
	return Synthesizer{Clock: clock}.Synthesize(result, seq)
}

// SafeName replaces every filesystem-illegal character with '_'.
func SafeName(s string) string {
	return illegal.Replace(s)
}

// ParseFallback validates a configured fallback policy name.
func ParseFallback(s string) (DateFallback, error) {
	switch DateFallback(strings.ToLower(strings.TrimSpace(s))) {
	case "", FallbackToday:
		return FallbackToday, nil
	case FallbackSequence:
		return FallbackSequence, nil
	}
	return "", fmt.Errorf("naming: unknown date fallback %q", s)
}
