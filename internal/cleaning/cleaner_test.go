package cleaning

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Kumkum-Mishra/CleanForge/internal/analysis"
	"github.com/Kumkum-Mishra/CleanForge/internal/coerce"
	"github.com/Kumkum-Mishra/CleanForge/internal/dataset"
)

const customersCSV = `Name,Email,Phone,Country,Age,Price
Alice, Foo@Bar.COM ,(555) 123-4567,US,30,"$1,200"
Bob,bob@x.com,555.987.6543,Germany,45,(300)
Alice, Foo@Bar.COM ,(555) 123-4567,US,30,"$1,200"
Carol,carol@x.com,n/a,U.S.A,150,450
Dan,dan@x.com,555 000 1111,United States,,n/a
Eve,eve@x.com,5551112222,France,28,500
Finn,finn@x.com,5552223333,Spain,33,520
Gus,gus@x.com,5553334444,Italy,31,480
Hal,hal@x.com,5554445555,Peru,29,510
`

func readCSV(t *testing.T, s string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.ReadCSV(strings.NewReader(s), dataset.ReadOptions{StringColumns: coerce.Excluded})
	require.NoError(t, err)
	return ds
}

func textCol(name string, vals ...string) dataset.Column {
	c := dataset.Column{Name: name, Kind: dataset.KindString}
	for _, v := range vals {
		c.Cells = append(c.Cells, dataset.Text(v))
	}
	return c
}

func numCol(name string, integer bool, vals ...any) dataset.Column {
	c := dataset.Column{Name: name, Kind: dataset.KindNumeric, Integer: integer}
	for _, v := range vals {
		switch x := v.(type) {
		case nil:
			c.Cells = append(c.Cells, dataset.Missing())
		case int:
			c.Cells = append(c.Cells, dataset.Number(float64(x)))
		case float64:
			c.Cells = append(c.Cells, dataset.Number(x))
		}
	}
	return c
}

func TestCleanFullPipeline(t *testing.T) {
	ds := readCSV(t, customersCSV)
	c := New(DefaultOptions(), zaptest.NewLogger(t))

	res, err := c.Clean(ds)
	require.NoError(t, err)
	assert.Equal(t, 9, res.RowsBefore)
	assert.Equal(t, 7, res.RowsAfter)
	assert.Equal(t, []string{
		"Removed 1 duplicate rows",
		"Normalized text in Email",
		"Converted numeric-like strings in Price",
		"Standardized email format (lowercase + trimmed)",
		"Normalized phone numbers to digits only",
		"Standardized country values",
		"Removed 1 rows with unrealistic age values (>100)",
		"Converted Age to float for median fill",
		"Filled 1 missing values in Age with median 30.5",
		"Filled 1 missing values in Price with median 505",
		"Capped 1 outliers in Age",
		"Converted Price to float for outlier capping",
		"Capped 2 outliers in Price",
	}, Messages(res.Log))

	out := res.Dataset
	email, _ := out.Column("Email")
	assert.Equal(t, "foo@bar.com", email.Cells[0].Str)
	phone, _ := out.Column("Phone")
	assert.Equal(t, "5551234567", phone.Cells[0].Str)
	assert.Equal(t, "5550001111", phone.Cells[2].Str)
	country, _ := out.Column("Country")
	assert.Equal(t, []string{"USA", "Germany", "USA", "France", "Spain", "Italy", "Peru"}, columnText(country))

	age, _ := out.Column("Age")
	assert.Equal(t, "float64", age.Dtype())
	assert.Equal(t, 35.75, age.Cells[1].Num)
	assert.Equal(t, 30.5, age.Cells[2].Num)

	price, _ := out.Column("Price")
	assert.Equal(t, "float64", price.Dtype())
	assert.Equal(t, 552.5, price.Cells[0].Num)
	assert.Equal(t, 452.5, price.Cells[1].Num)
	assert.Equal(t, 505.0, price.Cells[2].Num)

	// source untouched
	srcEmail, _ := ds.Column("Email")
	assert.Equal(t, " Foo@Bar.COM ", srcEmail.Cells[0].Str)
	assert.Equal(t, 9, ds.Rows())
}

func TestCleanIsIdempotent(t *testing.T) {
	c := New(DefaultOptions(), nil)
	first, err := c.Clean(readCSV(t, customersCSV))
	require.NoError(t, err)
	second, err := c.Clean(first.Dataset)
	require.NoError(t, err)
	assert.Empty(t, second.Log)
	assert.Equal(t, first.RowsAfter, second.RowsAfter)
}

// Capping a tiny column moves its quartiles, so a second pass can find a
// new outlier. Repeated runs only converge on larger samples.
func TestCleanRecapsWhenQuartilesShift(t *testing.T) {
	c := New(DefaultOptions(), nil)
	first, err := c.Clean(dataset.MustNew(numCol("Score", true, 0, 100, 101, 102)))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Converted Score to float for outlier capping",
		"Capped 1 outliers in Score",
	}, Messages(first.Log))
	score, _ := first.Dataset.Column("Score")
	assert.Equal(t, 35.625, score.Cells[0].Num)

	second, err := c.Clean(first.Dataset)
	require.NoError(t, err)
	assert.Equal(t, []string{"Capped 1 outliers in Score"}, Messages(second.Log))
	score, _ = second.Dataset.Column("Score")
	assert.Equal(t, 57.890625, score.Cells[0].Num)
}

func TestCleanNormalizesUnicodeSpaces(t *testing.T) {
	ds := dataset.MustNew(
		textCol("Name", "a\u00a0\u00a0b", "c", "d"),
		textCol("Price", "1\u00a0200", "2\u00a0300", "300"),
	)
	res, err := New(DefaultOptions(), nil).Clean(ds)
	require.NoError(t, err)

	name, _ := res.Dataset.Column("Name")
	assert.Equal(t, "a b", name.Cells[0].Str)
	price, _ := res.Dataset.Column("Price")
	require.Equal(t, dataset.KindNumeric, price.Kind)
	assert.Equal(t, []float64{1200, 2300, 300}, price.Floats())
	assert.Contains(t, Messages(res.Log), "Normalized text in Name")
	assert.Contains(t, Messages(res.Log), "Converted numeric-like strings in Price")
}

func TestCleanCappingNeverAddsOutliers(t *testing.T) {
	c := New(DefaultOptions(), nil)
	res, err := c.Clean(readCSV(t, customersCSV))
	require.NoError(t, err)
	p := analysis.Build(res.Dataset)
	for _, name := range []string{"Age", "Price"} {
		col, ok := p.Column(name)
		require.True(t, ok)
		require.NotNil(t, col.Outliers)
		assert.Equal(t, 0, *col.Outliers, name)
	}
}

func TestCleanCleanDatasetLogsNothing(t *testing.T) {
	ds := dataset.MustNew(
		textCol("City", "Rome", "Oslo", "Lima"),
		numCol("Score", true, 1, 2, 3),
	)
	res, err := New(DefaultOptions(), nil).Clean(ds)
	require.NoError(t, err)
	assert.Empty(t, res.Log)
	assert.Equal(t, 3, res.RowsAfter)
}

func TestCleanNilDataset(t *testing.T) {
	_, err := New(DefaultOptions(), nil).Clean(nil)
	assert.Error(t, err)
}

func TestCoerceSkipsIdentifierColumns(t *testing.T) {
	ds := dataset.MustNew(
		textCol("customer id", "001", "002", "003"),
		textCol("Amount", "1", "2", "3 "),
	)
	res, err := New(DefaultOptions(), nil).Clean(ds)
	require.NoError(t, err)
	id, _ := res.Dataset.Column("customer id")
	assert.Equal(t, dataset.KindString, id.Kind)
	assert.Equal(t, "001", id.Cells[0].Str)
	amount, _ := res.Dataset.Column("Amount")
	assert.Equal(t, dataset.KindNumeric, amount.Kind)
	assert.Equal(t, []string{"Normalized text in Amount", "Converted numeric-like strings in Amount"}, Messages(res.Log))
}

func TestImputeIntegerWholeMedianKeepsInteger(t *testing.T) {
	ds := dataset.MustNew(numCol("n", true, 1, nil, 3, 5))
	res, err := New(DefaultOptions(), nil).Clean(ds)
	require.NoError(t, err)
	n, _ := res.Dataset.Column("n")
	assert.True(t, n.Integer)
	assert.Equal(t, 3.0, n.Cells[1].Num)
	assert.Equal(t, []string{"Filled 1 missing values in n with median 3"}, Messages(res.Log))
}

func TestImputeSkipsAllMissingColumn(t *testing.T) {
	ds := dataset.MustNew(
		numCol("n", false, nil, nil),
		textCol("k", "a", "b"),
	)
	res, err := New(DefaultOptions(), nil).Clean(ds)
	require.NoError(t, err)
	assert.Empty(t, res.Log)
}

func TestCapSkipsZeroIQR(t *testing.T) {
	ds := dataset.MustNew(numCol("n", true, 5, 5, 5, 5, 5, 100))
	res, err := New(DefaultOptions(), nil).Clean(ds)
	require.NoError(t, err)
	assert.Empty(t, res.Log)
	n, _ := res.Dataset.Column("n")
	assert.Equal(t, 100.0, n.Cells[5].Num)
}

func TestCapIntegralBoundsKeepInteger(t *testing.T) {
	// sorted 1 2 3 4 5 100: q1=2.25 q3=4.75, bounds -1.5..8.5
	ds := dataset.MustNew(numCol("n", true, 1, 2, 3, 4, 5, 100))
	res, err := New(DefaultOptions(), nil).Clean(ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"Converted n to float for outlier capping", "Capped 1 outliers in n"}, Messages(res.Log))

	// sorted 0 2 4 6 8 100: q1=2.5 q3=7.5, iqr 5, bounds -5..15
	ds = dataset.MustNew(numCol("n", true, 0, 2, 4, 6, 8, 100))
	res, err = New(DefaultOptions(), nil).Clean(ds)
	require.NoError(t, err)
	assert.Equal(t, []string{"Capped 1 outliers in n"}, Messages(res.Log))
	n, _ := res.Dataset.Column("n")
	assert.True(t, n.Integer)
	assert.Equal(t, 15.0, n.Cells[5].Num)
}

func TestCustomRules(t *testing.T) {
	called := false
	c := New(DefaultOptions(), nil).WithRules([]Rule{{
		Name:    "noop",
		Applies: func(*dataset.Dataset) bool { return true },
		Apply: func(ds *dataset.Dataset) (*dataset.Dataset, []LogEntry, error) {
			called = true
			return ds, nil, nil
		},
	}})
	_, err := c.Clean(dataset.MustNew(textCol("Email", "A@B.C")))
	require.NoError(t, err)
	assert.True(t, called)
}

func columnText(c dataset.Column) []string {
	out := make([]string, c.Len())
	for i := range c.Cells {
		out[i] = c.Format(i)
	}
	return out
}
