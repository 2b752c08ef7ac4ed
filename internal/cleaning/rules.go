package cleaning

import (
	"regexp"
	"strings"

	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
)

// Rule is a column fixup applied only when Applies holds.
type Rule struct {
	Name    string
	Applies func(ds *dataset.Dataset) bool
	Apply   func(ds *dataset.Dataset) (*dataset.Dataset, []LogEntry, error)
}

// Column names the fixup rules key on.
const (
	EmailColumn   = "Email"
	PhoneColumn   = "Phone"
	CountryColumn = "Country"
	AgeColumn     = "Age"
)

var countryAliases = map[string]string{
	"US":            "USA",
	"U.S.A":         "USA",
	"United States": "USA",
}

var nonDigit = regexp.MustCompile(`\D`)

// DefaultRules returns the fixups in application order: Email, Phone,
// Country, Age.
func DefaultRules(opt Options) []Rule {
	return []Rule{
		{Name: "email", Applies: hasKind(EmailColumn, dataset.KindString), Apply: fixEmail},
		{Name: "phone", Applies: hasColumn(PhoneColumn), Apply: fixPhone},
		{Name: "country", Applies: hasKind(CountryColumn, dataset.KindString), Apply: fixCountry},
		{Name: "age", Applies: hasKind(AgeColumn, dataset.KindNumeric), Apply: ageFilter(opt.AgeLimit)},
	}
}

func hasColumn(name string) func(*dataset.Dataset) bool {
	return func(ds *dataset.Dataset) bool {
		_, ok := ds.Column(name)
		return ok
	}
}

func hasKind(name string, kind dataset.Kind) func(*dataset.Dataset) bool {
	return func(ds *dataset.Dataset) bool {
		c, ok := ds.Column(name)
		return ok && c.Kind == kind
	}
}

// mapText rewrites every present cell of a textual column. A false ok from
// fn turns the cell missing.
func mapText(col dataset.Column, fn func(string) (string, bool)) (dataset.Column, bool) {
	out := col.Clone()
	out.Kind = dataset.KindString
	out.Integer = false
	changed := col.Kind != dataset.KindString && col.Kind != dataset.KindUnknown
	for i := range col.Cells {
		if !col.Cells[i].Valid {
			continue
		}
		s, ok := fn(col.Format(i))
		if !ok {
			out.Cells[i] = dataset.Missing()
			changed = true
			continue
		}
		if s != col.Cells[i].Str || col.Kind == dataset.KindNumeric {
			changed = true
		}
		out.Cells[i] = dataset.Text(s)
	}
	return out, changed
}

func replaceIfChanged(ds *dataset.Dataset, col dataset.Column, changed bool, e LogEntry) (*dataset.Dataset, []LogEntry, error) {
	if !changed {
		return ds, nil, nil
	}
	out, err := ds.WithColumn(col)
	if err != nil {
		return ds, nil, err
	}
	return out, []LogEntry{e}, nil
}

func fixEmail(ds *dataset.Dataset) (*dataset.Dataset, []LogEntry, error) {
	col, _ := ds.Column(EmailColumn)
	out, changed := mapText(col, func(s string) (string, bool) {
		return strings.TrimSpace(strings.ToLower(s)), true
	})
	return replaceIfChanged(ds, out, changed,
		entry(StepFixup, EmailColumn, "Standardized email format (lowercase + trimmed)"))
}

// fixPhone keeps digits only. A value without digits becomes missing so a
// second pass leaves the column alone.
func fixPhone(ds *dataset.Dataset) (*dataset.Dataset, []LogEntry, error) {
	col, _ := ds.Column(PhoneColumn)
	out, changed := mapText(col, func(s string) (string, bool) {
		d := nonDigit.ReplaceAllString(s, "")
		return d, d != ""
	})
	return replaceIfChanged(ds, out, changed,
		entry(StepFixup, PhoneColumn, "Normalized phone numbers to digits only"))
}

func fixCountry(ds *dataset.Dataset) (*dataset.Dataset, []LogEntry, error) {
	col, _ := ds.Column(CountryColumn)
	out, changed := mapText(col, func(s string) (string, bool) {
		if v, ok := countryAliases[s]; ok {
			return v, true
		}
		return s, true
	})
	return replaceIfChanged(ds, out, changed,
		entry(StepFixup, CountryColumn, "Standardized country values"))
}

// ageFilter drops rows whose Age exceeds limit. Rows with a missing Age
// are kept.
func ageFilter(limit float64) func(*dataset.Dataset) (*dataset.Dataset, []LogEntry, error) {
	return func(ds *dataset.Dataset) (*dataset.Dataset, []LogEntry, error) {
		col, _ := ds.Column(AgeColumn)
		keep := make([]bool, ds.Rows())
		removed := 0
		for i, c := range col.Cells {
			keep[i] = !(c.Valid && c.Num > limit)
			if !keep[i] {
				removed++
			}
		}
		if removed == 0 {
			return ds, nil, nil
		}
		return ds.FilterRows(keep), []LogEntry{
			entry(StepFixup, AgeColumn, "Removed %d rows with unrealistic age values (>%s)", removed, dataset.FormatNumber(limit)),
		}, nil
	}
}
