package profiling

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aether-insight/aether-go/analysis/dataset"
)

func TestCorrelations(t *testing.T) {
	ds, err := dataset.New(
		dataset.NewNumeric("x", []float64{1, 2, 3, 4, 5}),
		dataset.NewNumeric("y", []float64{2, 4, 6, 8, 10}),
		dataset.NewNumeric("z", []float64{5, 3, 8, 1, 9}),
	)
	require.NoError(t, err)

	m := Correlations(ds)
	require.Equal(t, []string{"x", "y", "z"}, m.Columns)
	require.NotNil(t, m.Values[0][1])
	assert.InDelta(t, 1.0, *m.Values[0][1], 1e-9)
	assert.InDelta(t, 1.0, *m.Values[0][0], 1e-9)
}

func TestCorrelationUndefinedForConstantColumn(t *testing.T) {
	ds, err := dataset.New(
		dataset.NewNumeric("x", []float64{1, 2, 3}),
		dataset.NewNumeric("c", []float64{7, 7, 7}),
	)
	require.NoError(t, err)
	m := Correlations(ds)
	assert.Nil(t, m.Values[0][1])
}

func TestMissingReportSortsWorstFirst(t *testing.T) {
	ds, err := dataset.New(
		dataset.NewNumeric("a", []float64{1, math.NaN(), math.NaN()}),
		dataset.NewNumeric("b", []float64{1, 2, math.NaN()}),
		dataset.NewNumeric("c", []float64{1, 2, 3}),
	)
	require.NoError(t, err)

	report := MissingReport(ds)
	require.Len(t, report, 2)
	assert.Equal(t, "a", report[0].Name)
	assert.Equal(t, 2, report[0].Count)
	assert.InDelta(t, 66.67, report[0].Percentage, 1e-9)
}

func TestQuickInsights(t *testing.T) {
	ds, err := dataset.New(
		dataset.NewNumeric("x", []float64{1, 2, 3, 4, 5}),
		dataset.NewNumeric("y", []float64{2, 4, 6, 8, 10}),
		dataset.NewNumeric("const", []float64{1, 1, 1, 1, 1}),
	)
	require.NoError(t, err)

	lines := QuickInsights(ds)
	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "5 rows and 3 columns")
	assert.Contains(t, joined, "constant")
	assert.Contains(t, joined, "highly correlated")
}

func TestQuickInsightsEmpty(t *testing.T) {
	assert.Equal(t, []string{"Dataset is empty"}, QuickInsights(&dataset.Dataset{}))
}
