package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kumkum-Mishra/CleanForge/internal/analysis"
)

func intp(n int) *int { return &n }

func TestScoreAllMissingCategorical(t *testing.T) {
	p := &analysis.Profile{
		TotalRows: 10,
		Columns: []analysis.ColumnProfile{
			{Name: "c", Dtype: "unknown", MissingCount: 10, MissingPercent: 100},
		},
	}
	b, err := Score(p)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.Completeness)
	assert.Equal(t, 100.0, b.Duplicate)
	assert.Equal(t, 100.0, b.Outlier)
	assert.Equal(t, 55.0, b.Score)
}

func TestScoreDuplicates(t *testing.T) {
	p := &analysis.Profile{
		TotalRows:     10,
		DuplicateRows: 2,
		Columns:       []analysis.ColumnProfile{{Name: "a", Dtype: "string", NonMissingCount: 10}},
	}
	b, err := Score(p)
	require.NoError(t, err)
	assert.InDelta(t, 100*math.Pow(0.8, 0.8), b.Duplicate, 0.005)
	assert.Equal(t, 83.65, b.Duplicate)
	assert.InDelta(t, 0.45*100+0.25*83.6511+0.30*100, b.Score, 0.01)
}

func TestScoreOutliersAveragedOverNumericColumns(t *testing.T) {
	p := &analysis.Profile{
		TotalRows: 10,
		Columns: []analysis.ColumnProfile{
			{Name: "x", Dtype: "float64", NonMissingCount: 10, Outliers: intp(2)},
			{Name: "y", Dtype: "int64", NonMissingCount: 10, Outliers: intp(0)},
			{Name: "empty", Dtype: "float64", NonMissingCount: 0, MissingCount: 10, MissingPercent: 100, Outliers: intp(0)},
			{Name: "s", Dtype: "string", NonMissingCount: 10},
		},
	}
	b, err := Score(p)
	require.NoError(t, err)
	// ratio = (0.2 + 0) / 2
	assert.InDelta(t, 100*math.Pow(0.9, 0.7), b.Outlier, 0.005)
	assert.InDelta(t, 100*math.Pow(0.75, 0.6), b.Completeness, 0.005)
}

func TestScoreInvalidInput(t *testing.T) {
	_, err := Score(nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = Score(&analysis.Profile{TotalRows: 0, Columns: []analysis.ColumnProfile{{Name: "a"}}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = QualityScore(&analysis.Profile{TotalRows: 5})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestScoreBounded(t *testing.T) {
	cases := []*analysis.Profile{
		{TotalRows: 1, Columns: []analysis.ColumnProfile{{Name: "a", NonMissingCount: 1}}},
		{TotalRows: 3, DuplicateRows: 3, Columns: []analysis.ColumnProfile{{Name: "a", MissingPercent: 150, NonMissingCount: 1, Outliers: intp(5)}}},
		{TotalRows: 4, DuplicateRows: 1, Columns: []analysis.ColumnProfile{{Name: "a", MissingPercent: 25, NonMissingCount: 3, Outliers: intp(1)}}},
	}
	for _, p := range cases {
		s, err := QualityScore(p)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 100.0)
	}
	s, _ := QualityScore(cases[0])
	assert.Equal(t, 100.0, s)
	s, _ = QualityScore(cases[1])
	assert.Equal(t, 0.0, s)
}
