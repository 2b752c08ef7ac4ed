// Package cleaning applies an ordered set of repairs to a dataset and keeps
// a log of every repair that changed data.
package cleaning

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/Kumkum-Mishra/CleanForge/internal/analysis"
	"github.com/Kumkum-Mishra/CleanForge/internal/coerce"
	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
)

// Options tunes the cleaner.
type Options struct {
	// SuccessRatio is the parse share needed to turn text into numbers.
	SuccessRatio float64
	// AgeLimit is the largest Age kept by the age fixup.
	AgeLimit float64
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{SuccessRatio: coerce.DefaultSuccessRatio, AgeLimit: 100}
}

// Result is a cleaned dataset with its log.
type Result struct {
	Dataset    *dataset.Dataset
	Log        []LogEntry
	RowsBefore int
	RowsAfter  int
}

// Cleaner runs the cleaning pipeline. It holds no per-run state and is
// safe for concurrent use.
type Cleaner struct {
	opt    Options
	rules  []Rule
	logger *zap.Logger
}

// New returns a Cleaner with the default fixup rules. Zero option fields
// take their defaults.
func New(opt Options, logger *zap.Logger) *Cleaner {
	def := DefaultOptions()
	if opt.SuccessRatio <= 0 {
		opt.SuccessRatio = def.SuccessRatio
	}
	if opt.AgeLimit <= 0 {
		opt.AgeLimit = def.AgeLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{opt: opt, rules: DefaultRules(opt), logger: logger.Named("cleaner")}
}

// WithRules returns a copy of c that applies rules instead of the defaults.
func (c *Cleaner) WithRules(rules []Rule) *Cleaner {
	cp := *c
	cp.rules = rules
	return &cp
}

// Clean runs deduplication, text normalization and numeric coercion,
// column fixups, median imputation and outlier capping, in that order.
func (c *Cleaner) Clean(ds *dataset.Dataset) (*Result, error) {
	if ds == nil {
		return nil, errors.New("clean: nil dataset")
	}
	res := &Result{RowsBefore: ds.Rows()}

	ds, log := Dedupe(ds)
	res.Log = append(res.Log, log...)

	ds, log, err := c.coerceColumns(ds)
	if err != nil {
		return nil, err
	}
	res.Log = append(res.Log, log...)

	for _, r := range c.rules {
		if r.Applies != nil && !r.Applies(ds) {
			c.logger.Debug("fixup skipped", zap.String("rule", r.Name))
			continue
		}
		next, log, err := r.Apply(ds)
		if err != nil {
			return nil, fmt.Errorf("fixup %s: %w", r.Name, err)
		}
		ds = next
		res.Log = append(res.Log, log...)
	}

	ds, log, err = c.impute(ds)
	if err != nil {
		return nil, err
	}
	res.Log = append(res.Log, log...)

	ds, log, err = c.capOutliers(ds)
	if err != nil {
		return nil, err
	}
	res.Log = append(res.Log, log...)

	res.Dataset = ds
	res.RowsAfter = ds.Rows()
	c.logger.Info("dataset cleaned",
		zap.Int("rows_before", res.RowsBefore),
		zap.Int("rows_after", res.RowsAfter),
		zap.Int("actions", len(res.Log)))
	return res, nil
}

// Dedupe drops rows that repeat an earlier row.
func Dedupe(ds *dataset.Dataset) (*dataset.Dataset, []LogEntry) {
	mask := ds.DuplicateMask()
	keep := make([]bool, len(mask))
	removed := 0
	for i, dup := range mask {
		keep[i] = !dup
		if dup {
			removed++
		}
	}
	if removed == 0 {
		return ds, nil
	}
	return ds.FilterRows(keep), []LogEntry{entry(StepDedupe, "", "Removed %d duplicate rows", removed)}
}

func (c *Cleaner) coerceColumns(ds *dataset.Dataset) (*dataset.Dataset, []LogEntry, error) {
	var log []LogEntry
	for _, col := range ds.Columns() {
		if col.Kind == dataset.KindNumeric {
			continue
		}
		norm, changed := coerce.NormalizeStrings(col)
		if changed {
			log = append(log, entry(StepNormalize, col.Name, "Normalized text in %s", col.Name))
		}
		if coerce.Excluded(col.Name) {
			c.logger.Debug("numeric coercion skipped for identifier column", zap.String("column", col.Name))
		} else if num, ok := coerce.TryParseNumeric(norm, c.opt.SuccessRatio); ok {
			norm = num
			changed = true
			log = append(log, entry(StepCoerce, col.Name, "Converted numeric-like strings in %s", col.Name))
		}
		if !changed {
			continue
		}
		next, err := ds.WithColumn(norm)
		if err != nil {
			return nil, nil, fmt.Errorf("coerce %s: %w", col.Name, err)
		}
		ds = next
	}
	return ds, log, nil
}

func isWhole(f float64) bool { return f == math.Trunc(f) && !math.IsInf(f, 0) }

func (c *Cleaner) impute(ds *dataset.Dataset) (*dataset.Dataset, []LogEntry, error) {
	var log []LogEntry
	for _, col := range ds.Columns() {
		if col.Kind != dataset.KindNumeric {
			continue
		}
		missing := col.MissingCount()
		if missing == 0 {
			continue
		}
		median := analysis.Median(col.Floats())
		if math.IsNaN(median) {
			c.logger.Debug("median undefined, column not filled", zap.String("column", col.Name))
			continue
		}
		out := col.Clone()
		if out.Integer && !isWhole(median) {
			out.Integer = false
			log = append(log, entry(StepImpute, col.Name, "Converted %s to float for median fill", col.Name))
		}
		for i, v := range out.Cells {
			if !v.Valid {
				out.Cells[i] = dataset.Number(median)
			}
		}
		log = append(log, entry(StepImpute, col.Name, "Filled %d missing values in %s with median %s",
			missing, col.Name, dataset.FormatNumber(median)))
		next, err := ds.WithColumn(out)
		if err != nil {
			return nil, nil, fmt.Errorf("impute %s: %w", col.Name, err)
		}
		ds = next
	}
	return ds, log, nil
}

func (c *Cleaner) capOutliers(ds *dataset.Dataset) (*dataset.Dataset, []LogEntry, error) {
	var log []LogEntry
	for _, col := range ds.Columns() {
		if col.Kind != dataset.KindNumeric {
			continue
		}
		vals := col.Floats()
		if len(vals) == 0 {
			continue
		}
		b := analysis.TukeyBounds(vals)
		if b.Degenerate() {
			c.logger.Debug("IQR degenerate, capping skipped", zap.String("column", col.Name), zap.Float64("iqr", b.IQR()))
			continue
		}
		out := col.Clone()
		capped := 0
		for i, v := range out.Cells {
			if v.Valid && b.Outside(v.Num) {
				out.Cells[i] = dataset.Number(b.Clip(v.Num))
				capped++
			}
		}
		if capped == 0 {
			continue
		}
		if out.Integer && !(isWhole(b.Lower) && isWhole(b.Upper)) {
			out.Integer = false
			log = append(log, entry(StepCap, col.Name, "Converted %s to float for outlier capping", col.Name))
		}
		log = append(log, entry(StepCap, col.Name, "Capped %d outliers in %s", capped, col.Name))
		next, err := ds.WithColumn(out)
		if err != nil {
			return nil, nil, fmt.Errorf("cap %s: %w", col.Name, err)
		}
		ds = next
	}
	return ds, log, nil
}
