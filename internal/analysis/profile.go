// Package analysis builds column-level statistical profiles of a dataset.
package analysis

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"

	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
)

// Profile is a read-only statistical snapshot of a dataset.
type Profile struct {
	TotalRows     int             `json:"total_rows"`
	DuplicateRows int             `json:"duplicate_rows"`
	Columns       []ColumnProfile `json:"columns"`
}

// ColumnProfile summarizes one column. Outliers is set only for numeric
// columns.
type ColumnProfile struct {
	Name            string  `json:"-"`
	Dtype           string  `json:"dtype"`
	MissingCount    int     `json:"missing_count"`
	NonMissingCount int     `json:"non_missing_count"`
	MissingPercent  float64 `json:"missing_percent"`
	UniqueValues    int     `json:"unique_values"`
	Outliers        *int    `json:"outliers,omitempty"`
}

// Numeric reports whether the column was profiled as numeric.
func (c ColumnProfile) Numeric() bool { return c.Outliers != nil }

// Column returns the profile of the named column.
func (p *Profile) Column(name string) (ColumnProfile, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnProfile{}, false
}

// Build profiles ds. With zero rows every missing percent is reported as 0.
func Build(ds *dataset.Dataset) *Profile {
	p := &Profile{
		TotalRows:     ds.Rows(),
		DuplicateRows: ds.DuplicateCount(),
		Columns:       make([]ColumnProfile, 0, ds.Width()),
	}
	for _, col := range ds.Columns() {
		p.Columns = append(p.Columns, profileColumn(col, ds.Rows()))
	}
	return p
}

func profileColumn(col dataset.Column, rows int) ColumnProfile {
	cp := ColumnProfile{Name: col.Name, Dtype: col.Dtype()}
	distinct := make(map[string]struct{})
	for i, c := range col.Cells {
		if !c.Valid {
			cp.MissingCount++
			continue
		}
		cp.NonMissingCount++
		distinct[col.Key(i)] = struct{}{}
	}
	cp.UniqueValues = len(distinct)
	if rows > 0 {
		cp.MissingPercent = round2(100 * float64(cp.MissingCount) / float64(rows))
	}
	if col.Kind == dataset.KindNumeric {
		n := CountOutliers(col.Floats())
		cp.Outliers = &n
	}
	return cp
}

// MarshalJSON writes columns as an object keyed by name, in column order.
func (p Profile) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"total_rows":`)
	buf.WriteString(strconv.Itoa(p.TotalRows))
	buf.WriteString(`,"duplicate_rows":`)
	buf.WriteString(strconv.Itoa(p.DuplicateRows))
	buf.WriteString(`,"columns":{`)
	for i, c := range p.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts the object form written by MarshalJSON. Column
// order follows the document.
func (p *Profile) UnmarshalJSON(b []byte) error {
	var raw struct {
		TotalRows     int             `json:"total_rows"`
		DuplicateRows int             `json:"duplicate_rows"`
		Columns       json.RawMessage `json:"columns"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.TotalRows = raw.TotalRows
	p.DuplicateRows = raw.DuplicateRows
	p.Columns = nil
	if len(raw.Columns) == 0 || string(raw.Columns) == "null" {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw.Columns))
	if _, err := dec.Token(); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var c ColumnProfile
		if err := dec.Decode(&c); err != nil {
			return err
		}
		c.Name = name
		p.Columns = append(p.Columns, c)
	}
	return nil
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
