package dataset

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
)

// WriteCSV writes the header and every row. Missing cells are empty fields.
func WriteCSV(w io.Writer, ds *Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, ds.Width())
	for i := 0; i < ds.Rows(); i++ {
		for j, c := range ds.cols {
			rec[j] = c.Format(i)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Row is one record keyed by column name. It marshals as a JSON object
// whose keys keep the dataset's column order.
type Row struct {
	Names  []string
	Values []any
}

// Get returns the value for name and whether the column exists.
func (r Row) Get(name string) (any, bool) {
	for i, n := range r.Names {
		if n == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.Names {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(r.Values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Preview returns up to n leading rows as JSON-ready records. Missing and
// non-finite values become nil; whole numbers in integer columns become
// int64.
func Preview(ds *Dataset, n int) []Row {
	if n < 0 || n > ds.Rows() {
		n = ds.Rows()
	}
	names := ds.Names()
	rows := make([]Row, 0, n)
	for i := 0; i < n; i++ {
		vals := make([]any, ds.Width())
		for j, c := range ds.cols {
			vals[j] = cellValue(c, i)
		}
		rows = append(rows, Row{Names: names, Values: vals})
	}
	return rows
}

func cellValue(c Column, i int) any {
	v := c.Cells[i]
	if !v.Valid {
		return nil
	}
	if c.Kind != KindNumeric {
		return v.Str
	}
	if math.IsNaN(v.Num) || math.IsInf(v.Num, 0) {
		return nil
	}
	if c.Integer && v.Num == math.Trunc(v.Num) && math.Abs(v.Num) < 1<<53 {
		return int64(v.Num)
	}
	return v.Num
}
