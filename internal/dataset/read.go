package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrEmptyInput is returned when the input has no header row.
	ErrEmptyInput = errors.New("empty input: no header row")
	// ErrRaggedRow is returned when a record has more fields than the header.
	ErrRaggedRow = errors.New("record has more fields than header")
)

// DefaultNAValues are the cell texts read as missing.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// ReadOptions controls CSV ingestion.
type ReadOptions struct {
	// Delimiter for fields. If 0, ',' is used.
	Delimiter rune
	// NAValues replaces DefaultNAValues when non-nil.
	NAValues []string
	// StringColumns, if set, forces matching columns to stay textual even
	// when every value looks numeric. Forced columns get no outlier count,
	// so on files with numeric ID, zip or phone columns the profile and
	// quality score differ from reading those columns as integers.
	StringColumns func(name string) bool
}

// ReadFile opens path and reads it with ReadCSV. A .tsv extension selects
// tab as delimiter unless one is set.
func ReadFile(path string, opt ReadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	return ReadCSV(f, opt)
}

// ReadCSV parses CSV text with a header row and infers column types.
func ReadCSV(r io.Reader, opt ReadOptions) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyInput
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	names := headerNames(header)
	ncol := len(names)

	na := opt.NAValues
	if na == nil {
		na = DefaultNAValues
	}
	naSet := make(map[string]struct{}, len(na))
	for _, v := range na {
		naSet[v] = struct{}{}
	}

	raw := make([][]Cell, ncol)
	line := 1
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", line+1, err)
		}
		line++
		if len(rec) > ncol {
			return nil, fmt.Errorf("row %d: %w (%d > %d)", line, ErrRaggedRow, len(rec), ncol)
		}
		for j := 0; j < ncol; j++ {
			if j >= len(rec) {
				raw[j] = append(raw[j], Missing())
				continue
			}
			if _, isNA := naSet[rec[j]]; isNA {
				raw[j] = append(raw[j], Missing())
				continue
			}
			raw[j] = append(raw[j], Text(rec[j]))
		}
	}

	cols := make([]Column, ncol)
	for j, name := range names {
		forceString := opt.StringColumns != nil && opt.StringColumns(name)
		cols[j] = inferColumn(name, raw[j], forceString)
	}
	return New(cols)
}

// inferColumn types a column of raw text. A column is numeric when it has
// at least one value and every value parses as a plain number.
func inferColumn(name string, cells []Cell, forceString bool) Column {
	if cells == nil {
		cells = []Cell{}
	}
	present := 0
	for _, c := range cells {
		if c.Valid {
			present++
		}
	}
	if present == 0 {
		return Column{Name: name, Kind: KindUnknown, Cells: cells}
	}
	if forceString {
		return Column{Name: name, Kind: KindString, Cells: cells}
	}
	nums := make([]Cell, len(cells))
	integer := true
	for i, c := range cells {
		if !c.Valid {
			continue
		}
		f, isInt, ok := ParseNumber(strings.TrimSpace(c.Str))
		if !ok {
			return Column{Name: name, Kind: KindString, Cells: cells}
		}
		integer = integer && isInt
		nums[i] = Number(f)
	}
	return Column{Name: name, Kind: KindNumeric, Integer: integer, Cells: nums}
}

// headerNames trims names, fills blanks and suffixes repeats with ".N".
func headerNames(header []string) []string {
	out := make([]string, len(header))
	used := map[string]bool{}
	next := map[string]int{}
	for i, h := range header {
		base := strings.TrimSpace(h)
		if i == 0 {
			base = strings.TrimPrefix(base, "\ufeff")
		}
		if base == "" {
			base = "Unnamed: " + strconv.Itoa(i)
		}
		name := base
		for used[name] {
			next[base]++
			name = base + "." + strconv.Itoa(next[base])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
