// Package pipeline runs profiling, scoring, cleaning and semantic analysis
// over one dataset and shapes the results the CLI and HTTP server return.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kumkum-Mishra/CleanForge/internal/analysis"
	"github.com/Kumkum-Mishra/CleanForge/internal/cleaning"
	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
	"github.com/Kumkum-Mishra/CleanForge/internal/scoring"
	"github.com/Kumkum-Mishra/CleanForge/internal/semantic"
)

// DefaultPreviewRows is how many cleaned rows a CleanReport carries.
const DefaultPreviewRows = 10

// ProfileReport is the profile endpoint's payload.
type ProfileReport struct {
	QualityScore float64           `json:"quality_score"`
	Breakdown    scoring.Breakdown `json:"-"`
	Profile      *analysis.Profile `json:"profile"`
}

// SemanticReport wraps the semantic analyzer's result.
type SemanticReport struct {
	SemanticAnalysis semantic.Result `json:"semantic_analysis"`
}

// AnalyzeReport combines profile, score and semantic analysis.
type AnalyzeReport struct {
	QualityScore     float64           `json:"quality_score"`
	Profile          *analysis.Profile `json:"profile"`
	SemanticAnalysis semantic.Result   `json:"semantic_analysis"`
}

// CleanReport describes one cleaning run. Quality fields are null when the
// corresponding dataset cannot be scored.
type CleanReport struct {
	RowsBefore     int                 `json:"rows_before"`
	RowsAfter      int                 `json:"rows_after"`
	QualityBefore  *float64            `json:"quality_before"`
	QualityAfter   *float64            `json:"quality_after"`
	Improvement    *float64            `json:"improvement"`
	CleaningLog    []string            `json:"cleaning_log"`
	CleanedPreview []dataset.Row       `json:"cleaned_preview"`
	Entries        []cleaning.LogEntry `json:"-"`
	Cleaned        *dataset.Dataset    `json:"-"`
}

// Runner holds the collaborators for every pipeline entry point.
type Runner struct {
	Cleaner          *cleaning.Cleaner
	SemanticAnalyzer *semantic.Analyzer
	PreviewRows      int
	Logger           *zap.Logger
}

func (r *Runner) logger(op string) *zap.Logger {
	l := r.Logger
	if l == nil {
		l = zap.NewNop()
	}
	return l.With(zap.String("run_id", uuid.NewString()), zap.String("op", op))
}

// Profile profiles and scores ds. Zero rows or columns yield
// scoring.ErrInvalidInput.
func (r *Runner) Profile(ds *dataset.Dataset) (*ProfileReport, error) {
	log := r.logger("profile")
	p := analysis.Build(ds)
	b, err := scoring.Score(p)
	if err != nil {
		return nil, err
	}
	log.Info("profiled dataset",
		zap.Int("rows", p.TotalRows),
		zap.Int("columns", len(p.Columns)),
		zap.Float64("quality_score", b.Score))
	return &ProfileReport{QualityScore: b.Score, Breakdown: b, Profile: p}, nil
}

// Semantic runs the semantic analyzer. It never fails.
func (r *Runner) Semantic(ctx context.Context, ds *dataset.Dataset) SemanticReport {
	return SemanticReport{SemanticAnalysis: r.analyzer(ctx, ds)}
}

func (r *Runner) analyzer(ctx context.Context, ds *dataset.Dataset) semantic.Result {
	if r.SemanticAnalyzer == nil {
		return semantic.Result{Err: "semantic analysis is not configured"}
	}
	a := *r.SemanticAnalyzer
	a.Logger = r.logger("semantic")
	return a.Analyze(ctx, ds)
}

// Analyze runs Profile then Semantic.
func (r *Runner) Analyze(ctx context.Context, ds *dataset.Dataset) (*AnalyzeReport, error) {
	pr, err := r.Profile(ds)
	if err != nil {
		return nil, err
	}
	return &AnalyzeReport{
		QualityScore:     pr.QualityScore,
		Profile:          pr.Profile,
		SemanticAnalysis: r.analyzer(ctx, ds),
	}, nil
}

// Clean scores ds, cleans it and scores the result.
func (r *Runner) Clean(ds *dataset.Dataset) (*CleanReport, error) {
	if ds == nil {
		return nil, errors.New("nil dataset")
	}
	log := r.logger("clean")
	before, err := scoreOf(ds)
	if err != nil && !errors.Is(err, scoring.ErrInvalidInput) {
		return nil, err
	}
	c := r.Cleaner
	if c == nil {
		c = cleaning.New(cleaning.DefaultOptions(), nil)
	}
	res, err := c.Clean(ds)
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	after, err := scoreOf(res.Dataset)
	if err != nil && !errors.Is(err, scoring.ErrInvalidInput) {
		return nil, err
	}
	n := r.PreviewRows
	if n <= 0 {
		n = DefaultPreviewRows
	}
	rep := &CleanReport{
		RowsBefore:     res.RowsBefore,
		RowsAfter:      res.RowsAfter,
		QualityBefore:  before,
		QualityAfter:   after,
		CleaningLog:    cleaning.Messages(res.Log),
		CleanedPreview: dataset.Preview(res.Dataset, n),
		Entries:        res.Log,
		Cleaned:        res.Dataset,
	}
	if before != nil && after != nil {
		imp := math.Round((*after-*before)*100) / 100
		rep.Improvement = &imp
	}
	fields := []zap.Field{
		zap.Int("rows_before", rep.RowsBefore),
		zap.Int("rows_after", rep.RowsAfter),
		zap.Int("log_entries", len(rep.CleaningLog)),
	}
	if rep.Improvement != nil {
		fields = append(fields, zap.Float64("improvement", *rep.Improvement))
	}
	log.Info("cleaned dataset", fields...)
	return rep, nil
}

func scoreOf(ds *dataset.Dataset) (*float64, error) {
	s, err := scoring.QualityScore(analysis.Build(ds))
	if err != nil {
		return nil, err
	}
	return &s, nil
}
