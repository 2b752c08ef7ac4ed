// Package scoring turns a profile into a single 0-100 quality score.
package scoring

import (
	"errors"
	"math"

	"github.com/Kumkum-Mishra/CleanForge/internal/analysis"
)

// ErrInvalidInput is returned for profiles with no rows or no columns.
var ErrInvalidInput = errors.New("invalid input: dataset has no rows or no columns")

// Weights and damping exponents of the score.
const (
	CompletenessWeight = 0.45
	DuplicateWeight    = 0.25
	OutlierWeight      = 0.30

	completenessExp = 0.6
	duplicateExp    = 0.8
	outlierExp      = 0.7
)

// Breakdown holds the sub-scores and the final score, each rounded to two
// decimals.
type Breakdown struct {
	Completeness float64 `json:"completeness_score"`
	Duplicate    float64 `json:"duplicate_score"`
	Outlier      float64 `json:"outlier_score"`
	Score        float64 `json:"quality_score"`
}

// Score computes the quality breakdown of p. A profile without numeric
// columns gets a full outlier sub-score.
func Score(p *analysis.Profile) (Breakdown, error) {
	if p == nil || p.TotalRows <= 0 || len(p.Columns) == 0 {
		return Breakdown{}, ErrInvalidInput
	}

	var missingSum float64
	for _, c := range p.Columns {
		missingSum += c.MissingPercent
	}
	missingRatio := clamp01(missingSum / float64(len(p.Columns)) / 100)
	completeness := 100 * math.Pow(1-missingRatio, completenessExp)

	dupRatio := clamp01(float64(p.DuplicateRows) / float64(p.TotalRows))
	duplicate := 100 * math.Pow(1-dupRatio, duplicateExp)

	var ratioSum float64
	var numeric int
	for _, c := range p.Columns {
		if !c.Numeric() || c.NonMissingCount == 0 {
			continue
		}
		ratioSum += float64(*c.Outliers) / float64(c.NonMissingCount)
		numeric++
	}
	outlier := 100.0
	if numeric > 0 {
		outlier = 100 * math.Pow(1-clamp01(ratioSum/float64(numeric)), outlierExp)
	}

	score := CompletenessWeight*completeness + DuplicateWeight*duplicate + OutlierWeight*outlier
	return Breakdown{
		Completeness: round2(completeness),
		Duplicate:    round2(duplicate),
		Outlier:      round2(outlier),
		Score:        round2(clamp(score, 0, 100)),
	}, nil
}

// QualityScore returns only the final score.
func QualityScore(p *analysis.Profile) (float64, error) {
	b, err := Score(p)
	if err != nil {
		return 0, err
	}
	return b.Score, nil
}

func clamp01(x float64) float64 { return clamp(x, 0, 1) }

func clamp(x, lo, hi float64) float64 {
	if math.IsNaN(x) {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }
