// Package coerce normalizes textual columns and decides when a textual
// column is really numeric.
package coerce

import (
	"regexp"
	"strings"

	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
)

// DefaultSuccessRatio is the share of present cells that must parse for a
// column to be accepted as numeric.
const DefaultSuccessRatio = 0.85

// space matches Unicode whitespace, including NBSP and NEL, which RE2's \s
// does not.
const space = `[\s\p{Z}\x{85}]`

var (
	whitespaceRun = regexp.MustCompile(space + `+`)
	annotation    = regexp.MustCompile(space + `*\[[^\]]+\]` + space + `*$`)

	currency    = regexp.MustCompile(`[,$€£¥]`)
	parenthesis = regexp.MustCompile(`\(([^)]+)\)`)

	// identifier-like column names that must never become numeric
	excludePattern = regexp.MustCompile(`(?i)\b(id|code|zip|postal|phone|ssn)\b`)
)

// sentinels are the lowercase tokens read as missing after normalization.
var sentinels = map[string]struct{}{
	"":     {},
	"nan":  {},
	"na":   {},
	"n/a":  {},
	"null": {},
	"none": {},
	"-":    {},
}

// Excluded reports whether a column name marks an identifier column.
func Excluded(name string) bool { return excludePattern.MatchString(name) }

// NormalizeString collapses whitespace, drops a trailing bracketed
// annotation and maps sentinel tokens to missing. ok is false when the
// result is missing.
func NormalizeString(s string) (out string, ok bool) {
	out = strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
	out = annotation.ReplaceAllString(out, "")
	if _, missing := sentinels[strings.ToLower(out)]; missing {
		return "", false
	}
	return out, true
}

// NormalizeStrings applies NormalizeString to every present cell of a
// textual column. changed reports whether any present cell got a different
// value or became missing. Numeric columns are returned unchanged.
func NormalizeStrings(col dataset.Column) (dataset.Column, bool) {
	if col.Kind == dataset.KindNumeric {
		return col, false
	}
	out := col.Clone()
	changed := false
	for i, c := range col.Cells {
		if !c.Valid {
			continue
		}
		s, ok := NormalizeString(c.Str)
		if !ok {
			out.Cells[i] = dataset.Missing()
			changed = true
			continue
		}
		if s != c.Str {
			out.Cells[i] = dataset.Text(s)
			changed = true
		}
	}
	return out, changed
}

// CleanNumericText strips currency symbols and thousands separators, turns
// an accounting "(X)" into "-X" and removes percent signs and whitespace.
func CleanNumericText(s string) string {
	s = currency.ReplaceAllString(s, "")
	s = parenthesis.ReplaceAllString(s, "-$1")
	s = strings.ReplaceAll(s, "%", "")
	return whitespaceRun.ReplaceAllString(s, "")
}

// Trial is the outcome of a numeric parse attempt.
type Trial struct {
	Column  dataset.Column
	Parsed  int
	Present int
}

// Ratio is Parsed over Present; zero when nothing was present.
func (t Trial) Ratio() float64 {
	if t.Present == 0 {
		return 0
	}
	return float64(t.Parsed) / float64(t.Present)
}

// ParseNumeric parses every present cell of a textual column. Cells that do
// not parse become missing in the trial column.
func ParseNumeric(col dataset.Column) Trial {
	out := dataset.Column{
		Name:    col.Name,
		Kind:    dataset.KindNumeric,
		Integer: true,
		Cells:   make([]dataset.Cell, len(col.Cells)),
	}
	tr := Trial{}
	for i, c := range col.Cells {
		if !c.Valid {
			continue
		}
		tr.Present++
		f, isInt, ok := dataset.ParseNumber(CleanNumericText(c.Str))
		if !ok {
			continue
		}
		tr.Parsed++
		out.Integer = out.Integer && isInt
		out.Cells[i] = dataset.Number(f)
	}
	if tr.Parsed == 0 {
		out.Integer = false
	}
	tr.Column = out
	return tr
}

// TryParseNumeric returns the numeric form of col when at least minRatio of
// its present cells parse. A column with no present cells is declined.
// Numeric columns are returned as-is and reported as not converted.
func TryParseNumeric(col dataset.Column, minRatio float64) (dataset.Column, bool) {
	if col.Kind == dataset.KindNumeric {
		return col, false
	}
	tr := ParseNumeric(col)
	if tr.Present == 0 || tr.Ratio() < minRatio {
		return col, false
	}
	return tr.Column, true
}
