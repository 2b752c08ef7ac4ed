package analysis

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
)

func nums(vals ...float64) dataset.Column {
	c := dataset.Column{Name: "n", Kind: dataset.KindNumeric}
	for _, v := range vals {
		if math.IsNaN(v) {
			c.Cells = append(c.Cells, dataset.Missing())
			continue
		}
		c.Cells = append(c.Cells, dataset.Number(v))
	}
	return c
}

func TestQuantileLinearInterpolation(t *testing.T) {
	s := []float64{1, 2, 3, 4}
	assert.InDelta(t, 1.75, Quantile(s, 0.25), 1e-12)
	assert.InDelta(t, 2.5, Quantile(s, 0.5), 1e-12)
	assert.InDelta(t, 3.25, Quantile(s, 0.75), 1e-12)
	assert.Equal(t, 1.0, Quantile(s, 0))
	assert.Equal(t, 4.0, Quantile(s, 1))
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
	assert.Equal(t, 3.0, Median([]float64{5, 1, 3}))
}

func TestTukeyBoundsAndCount(t *testing.T) {
	vals := []float64{10, 12, 11, 13, 12, 100}
	b := TukeyBounds(vals)
	// sorted: 10 11 12 12 13 100 -> q1=11.25 q3=12.75
	assert.InDelta(t, 11.25, b.Q1, 1e-12)
	assert.InDelta(t, 12.75, b.Q3, 1e-12)
	assert.InDelta(t, 9.0, b.Lower, 1e-12)
	assert.InDelta(t, 15.0, b.Upper, 1e-12)
	assert.Equal(t, 1, CountOutliers(vals))
	assert.Equal(t, 15.0, b.Clip(100))
	assert.Equal(t, 9.0, b.Clip(-5))
	assert.Equal(t, 12.0, b.Clip(12))
}

func TestCountOutliersDegenerate(t *testing.T) {
	assert.Equal(t, 0, CountOutliers(nil))
	assert.Equal(t, 0, CountOutliers([]float64{7}))
	assert.Equal(t, 0, CountOutliers([]float64{5, 5, 5, 5}))
	assert.True(t, TukeyBounds([]float64{5, 5, 5}).Degenerate())
	assert.True(t, TukeyBounds([]float64{math.Inf(1), 1, 2}).Degenerate())
}

func TestBuildProfile(t *testing.T) {
	age := nums(20, 30, math.NaN(), 30, 200)
	age.Name = "Age"
	age.Integer = true
	city := dataset.Column{Name: "City", Kind: dataset.KindString, Cells: []dataset.Cell{
		dataset.Text("Rome"), dataset.Text("Oslo"), dataset.Text("Rome"), dataset.Text("Oslo"), dataset.Missing(),
	}}
	ds := dataset.MustNew(age, city)
	p := Build(ds)

	assert.Equal(t, 5, p.TotalRows)
	assert.Equal(t, 1, p.DuplicateRows, "row 4 repeats row 2")

	a, ok := p.Column("Age")
	require.True(t, ok)
	assert.Equal(t, "int64", a.Dtype)
	assert.Equal(t, 1, a.MissingCount)
	assert.Equal(t, 4, a.NonMissingCount)
	assert.Equal(t, 20.0, a.MissingPercent)
	assert.Equal(t, 3, a.UniqueValues)
	require.NotNil(t, a.Outliers)
	assert.Equal(t, 1, *a.Outliers)

	c, _ := p.Column("City")
	assert.Nil(t, c.Outliers)
	assert.Equal(t, 2, c.UniqueValues)

	for _, col := range p.Columns {
		assert.Equal(t, p.TotalRows, col.MissingCount+col.NonMissingCount)
	}
}

func TestBuildProfileCountsLaterDuplicates(t *testing.T) {
	col := dataset.Column{Name: "k", Kind: dataset.KindString}
	for i := 0; i < 10; i++ {
		v := string(rune('a' + i))
		if i == 9 {
			v = "a"
		}
		col.Cells = append(col.Cells, dataset.Text(v))
	}
	ds := dataset.MustNew(col)
	p := Build(ds)
	assert.Equal(t, 1, p.DuplicateRows)
}

func TestProfileMissingPercentRounding(t *testing.T) {
	c := nums(1, math.NaN(), 2)
	p := Build(dataset.MustNew(c))
	assert.Equal(t, 33.33, p.Columns[0].MissingPercent)
}

func TestProfileJSONKeepsColumnOrder(t *testing.T) {
	z := nums(1, 2)
	z.Name = "zeta"
	a := dataset.Column{Name: "alpha", Kind: dataset.KindString, Cells: []dataset.Cell{dataset.Text("x"), dataset.Missing()}}
	p := Build(dataset.MustNew(z, a))

	b, err := json.Marshal(p)
	require.NoError(t, err)
	s := string(b)
	assert.True(t, strings.Index(s, `"zeta"`) < strings.Index(s, `"alpha"`))
	assert.Contains(t, s, `"alpha":{"dtype":"string","missing_count":1,"non_missing_count":1,"missing_percent":50,"unique_values":1}`)
	assert.Contains(t, s, `"outliers":0`)

	var back Profile
	require.NoError(t, json.Unmarshal(b, &back))
	require.Len(t, back.Columns, 2)
	assert.Equal(t, "zeta", back.Columns[0].Name)
	assert.Equal(t, "alpha", back.Columns[1].Name)
	assert.True(t, back.Columns[0].Numeric())
	assert.False(t, back.Columns[1].Numeric())
}

func TestProfileMarkdown(t *testing.T) {
	c := nums(1, 2, 3)
	c.Name = "score"
	md := Build(dataset.MustNew(c)).Markdown("data.csv", "quality score: 100")
	assert.Contains(t, md, "[DATASET SUMMARY]")
	assert.Contains(t, md, "File: data.csv")
	assert.Contains(t, md, "Rows: 3")
	assert.Contains(t, md, "- score: float64 (non-null 3, missing 0.00%, unique 3); outliers: 0")
	assert.Contains(t, md, "[NOTES]\n- quality score: 100")
}
