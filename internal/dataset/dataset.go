package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the logical type of a column.
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindNumeric
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumeric:
		return "numeric"
	default:
		return "unknown"
	}
}

// Cell holds one value. The zero Cell is missing.
type Cell struct {
	Str   string
	Num   float64
	Valid bool
}

// Missing returns the missing marker.
func Missing() Cell { return Cell{} }

// Text returns a non-missing string cell.
func Text(s string) Cell { return Cell{Str: s, Valid: true} }

// Number returns a non-missing numeric cell.
func Number(f float64) Cell { return Cell{Num: f, Valid: true} }

// Column is a named, typed sequence of cells. Integer is only meaningful for
// numeric columns and means every present value is whole.
type Column struct {
	Name    string
	Kind    Kind
	Integer bool
	Cells   []Cell
}

// Dtype reports the storage type name used in profiles.
func (c Column) Dtype() string {
	switch c.Kind {
	case KindNumeric:
		if c.Integer {
			return "int64"
		}
		return "float64"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

func (c Column) Len() int { return len(c.Cells) }

// MissingCount returns how many cells are missing.
func (c Column) MissingCount() int {
	n := 0
	for _, v := range c.Cells {
		if !v.Valid {
			n++
		}
	}
	return n
}

// Floats returns the present numeric values in row order.
func (c Column) Floats() []float64 {
	if c.Kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, len(c.Cells))
	for _, v := range c.Cells {
		if v.Valid {
			out = append(out, v.Num)
		}
	}
	return out
}

// Format renders a cell of this column as text. Missing renders as "".
func (c Column) Format(i int) string {
	v := c.Cells[i]
	if !v.Valid {
		return ""
	}
	if c.Kind == KindNumeric {
		return FormatNumber(v.Num)
	}
	return v.Str
}

// Key returns a value identity used for duplicate and cardinality checks.
// Missing cells share one key.
func (c Column) Key(i int) string {
	v := c.Cells[i]
	if !v.Valid {
		return "\x00"
	}
	if c.Kind == KindNumeric {
		n := v.Num
		if n == 0 {
			n = 0 // fold -0
		}
		return "n" + strconv.FormatFloat(n, 'g', -1, 64)
	}
	return "s" + v.Str
}

// Clone returns a deep copy of the column.
func (c Column) Clone() Column {
	out := c
	out.Cells = make([]Cell, len(c.Cells))
	copy(out.Cells, c.Cells)
	return out
}

// FormatNumber renders a float with the shortest representation that
// round-trips; whole numbers carry no decimal point.
func FormatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ParseNumber parses a plain decimal number. It reports whether the literal
// was an integer. NaN, hex and underscore forms are rejected.
func ParseNumber(s string) (f float64, isInt bool, ok bool) {
	if s == "" || strings.ContainsAny(s, "_xXpP") {
		return 0, false, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return float64(i), true, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false, false
	}
	return f, false, true
}

// Dataset is an ordered set of equally long columns. Methods never modify
// the receiver; transformations return a new Dataset that may share cell
// slices with the old one, so callers must treat Cells as read-only.
type Dataset struct {
	cols []Column
	rows int
}

// New builds a Dataset, checking that all columns have the same length.
func New(cols []Column) (*Dataset, error) {
	d := &Dataset{cols: make([]Column, len(cols))}
	copy(d.cols, cols)
	for i, c := range cols {
		if i == 0 {
			d.rows = c.Len()
			continue
		}
		if c.Len() != d.rows {
			return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), d.rows)
		}
	}
	return d, nil
}

// MustNew is New for literals in tests and fixtures.
func MustNew(cols ...Column) *Dataset {
	d, err := New(cols)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Dataset) Rows() int  { return d.rows }
func (d *Dataset) Width() int { return len(d.cols) }

// Columns returns the columns in order.
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.cols))
	copy(out, d.cols)
	return out
}

// At returns the i-th column.
func (d *Dataset) At(i int) Column { return d.cols[i] }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column or -1.
func (d *Dataset) Index(name string) int {
	for i, c := range d.cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (Column, bool) {
	if i := d.Index(name); i >= 0 {
		return d.cols[i], true
	}
	return Column{}, false
}

// WithColumn returns a copy with the same-named column replaced, or the
// column appended when no such name exists.
func (d *Dataset) WithColumn(c Column) (*Dataset, error) {
	if len(d.cols) > 0 && c.Len() != d.rows {
		return nil, fmt.Errorf("column %q has %d rows, want %d", c.Name, c.Len(), d.rows)
	}
	out := &Dataset{cols: make([]Column, len(d.cols)), rows: c.Len()}
	copy(out.cols, d.cols)
	if i := d.Index(c.Name); i >= 0 {
		out.cols[i] = c
	} else {
		out.cols = append(out.cols, c)
	}
	return out, nil
}

// FilterRows keeps the rows whose keep flag is true, in order, across every
// column.
func (d *Dataset) FilterRows(keep []bool) *Dataset {
	n := 0
	for i := 0; i < d.rows && i < len(keep); i++ {
		if keep[i] {
			n++
		}
	}
	out := &Dataset{cols: make([]Column, len(d.cols)), rows: n}
	for j, c := range d.cols {
		nc := c
		nc.Cells = make([]Cell, 0, n)
		for i, v := range c.Cells {
			if i < len(keep) && keep[i] {
				nc.Cells = append(nc.Cells, v)
			}
		}
		out.cols[j] = nc
	}
	return out
}

// DuplicateMask flags every row equal, across all columns, to an earlier
// row. Missing equals missing.
func (d *Dataset) DuplicateMask() []bool {
	mask := make([]bool, d.rows)
	seen := make(map[string]struct{}, d.rows)
	var b strings.Builder
	for i := 0; i < d.rows; i++ {
		b.Reset()
		for _, c := range d.cols {
			k := c.Key(i)
			b.WriteString(strconv.Itoa(len(k)))
			b.WriteByte(':')
			b.WriteString(k)
		}
		key := b.String()
		if _, ok := seen[key]; ok {
			mask[i] = true
			continue
		}
		seen[key] = struct{}{}
	}
	return mask
}

// DuplicateCount returns the number of rows flagged by DuplicateMask.
func (d *Dataset) DuplicateCount() int {
	n := 0
	for _, dup := range d.DuplicateMask() {
		if dup {
			n++
		}
	}
	return n
}
