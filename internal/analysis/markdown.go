package analysis

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

// Markdown renders a compact profile for terminals and reports. Notes are
// appended under [NOTES].
func (p *Profile) Markdown(name string, notes ...string) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", name))
	}
	b.WriteString(fmt.Sprintf("Rows: %s\n", humanize.Comma(int64(p.TotalRows))))
	if p.DuplicateRows > 0 {
		b.WriteString(fmt.Sprintf("Duplicate rows: %s\n", humanize.Comma(int64(p.DuplicateRows))))
	}
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(p.Columns)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %s, missing %.2f%%, unique %s)",
			safeName(c.Name), c.Dtype,
			humanize.Comma(int64(c.NonMissingCount)), c.MissingPercent,
			humanize.Comma(int64(c.UniqueValues))))
		if c.Outliers != nil {
			b.WriteString(fmt.Sprintf("; outliers: %d", *c.Outliers))
		}
		b.WriteString("\n")
	}
	if len(notes) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, n := range notes {
			b.WriteString("- ")
			b.WriteString(n)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
