package profiling

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aether-insight/aether-go/analysis/dataset"
)

func TestSuggestOrdering(t *testing.T) {
	ds, err := dataset.New(
		dataset.NewNumeric("a", []float64{1, 1, math.NaN(), 4}),
		dataset.NewText("b", []string{"x", "x", "y", "z"}),
	)
	require.NoError(t, err)

	suggestions := Suggest(ds, Profile(ds))
	require.NotEmpty(t, suggestions)

	rank := map[string]int{ImpactHigh: 0, ImpactMedium: 1, ImpactLow: 2}
	for i := 1; i < len(suggestions); i++ {
		assert.LessOrEqual(t, rank[suggestions[i-1].Impact], rank[suggestions[i].Impact])
	}
	assert.Equal(t, OpRemoveDuplicates, suggestions[0].Operation)
}

func TestSuggestCleanDatasetOnlyTextPolish(t *testing.T) {
	ds, err := dataset.New(
		dataset.NewNumeric("a", []float64{1, 2, 3}),
		dataset.NewText("b", []string{"x", "y", "z"}),
	)
	require.NoError(t, err)

	suggestions := Suggest(ds, Profile(ds))
	require.Len(t, suggestions, 1)
	assert.Equal(t, OpStandardizeText, suggestions[0].Operation)
}

func TestSuggestSparseAndHighMissing(t *testing.T) {
	mostlyMissing := []float64{1, math.NaN(), math.NaN(), math.NaN(), math.NaN(),
		math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()}
	ds, err := dataset.New(dataset.NewNumeric("sparse", mostlyMissing))
	require.NoError(t, err)

	suggestions := Suggest(ds, Profile(ds))
	ops := make(map[string]Suggestion)
	for _, s := range suggestions {
		ops[s.Operation] = s
	}
	require.Contains(t, ops, OpRemoveSparseColumns)
	assert.Equal(t, []string{"sparse"}, ops[OpRemoveSparseColumns].Columns)
	require.Contains(t, ops, OpHandleMissing)
	// 11 of 12 cells missing pushes the missing-value impact to high.
	assert.Equal(t, ImpactHigh, ops[OpHandleMissing].Impact)
}

func TestApplyNotApprovedIsIdentity(t *testing.T) {
	ds := sampleDataset(t)
	out, applied := Apply(ds, false, []string{OpRemoveDuplicates, OpHandleMissing})
	assert.Same(t, ds, out)
	assert.Empty(t, applied)
}

func TestApplyRemoveDuplicates(t *testing.T) {
	ds := sampleDataset(t)
	out, applied := Apply(ds, true, []string{OpRemoveDuplicates})
	require.Len(t, applied, 1)

	assert.Equal(t, 4, out.NumRows())
	assert.Equal(t, 0, out.DuplicateCount())
	// Original untouched.
	assert.Equal(t, 5, ds.NumRows())
}

func TestApplySkipsUnrequestedOperations(t *testing.T) {
	ds := sampleDataset(t)
	out, _ := Apply(ds, true, []string{OpTrimWhitespace})
	assert.Equal(t, 1, out.DuplicateCount())
	assert.Equal(t, 1, out.MissingCells())
}

func TestHandleMissingNumericMedian(t *testing.T) {
	ds, err := dataset.New(dataset.NewNumeric("v", []float64{1, 2, 2, 3, math.NaN()}))
	require.NoError(t, err)
	out, _ := Apply(ds, true, []string{OpHandleMissing})
	c := out.Column("v")
	assert.Equal(t, 0, c.MissingCount())
	assert.Equal(t, 2.0, c.Floats[4])
}

func TestHandleMissingTextMode(t *testing.T) {
	ds, err := dataset.New(dataset.NewText("v", []string{"x", "x", "y", ""}))
	require.NoError(t, err)
	out, _ := Apply(ds, true, []string{OpHandleMissing})
	assert.Equal(t, "x", out.Column("v").Strings[3])
}

func TestHandleMissingTemporalFill(t *testing.T) {
	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day3 := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	ds, err := dataset.New(dataset.NewTemporal("d", []time.Time{{}, day1, {}, day3}))
	require.NoError(t, err)

	out, _ := Apply(ds, true, []string{OpHandleMissing})
	c := out.Column("d")
	assert.Equal(t, 0, c.MissingCount())
	// Leading gap backfills, interior gap forward-fills.
	assert.Equal(t, day1, c.Times[0])
	assert.Equal(t, day1, c.Times[2])
}

func TestHandleMissingSkipsSparseColumns(t *testing.T) {
	mostlyMissing := make([]float64, 20)
	for i := range mostlyMissing {
		mostlyMissing[i] = math.NaN()
	}
	mostlyMissing[0] = 7
	ds, err := dataset.New(dataset.NewNumeric("sparse", mostlyMissing))
	require.NoError(t, err)

	out, _ := Apply(ds, true, []string{OpHandleMissing})
	assert.Equal(t, 19, out.Column("sparse").MissingCount())

	out, _ = Apply(ds, true, []string{OpRemoveSparseColumns})
	assert.False(t, out.HasColumn("sparse"))
}

func TestApplyRemoveEmptyRows(t *testing.T) {
	ds, err := dataset.New(
		dataset.NewNumeric("a", []float64{1, math.NaN(), 3}),
		dataset.NewText("b", []string{"x", "", "z"}),
	)
	require.NoError(t, err)
	out, _ := Apply(ds, true, []string{OpRemoveEmptyRows})
	assert.Equal(t, 2, out.NumRows())
}

func TestApplyStandardizeText(t *testing.T) {
	ds, err := dataset.New(dataset.NewText("v", []string{"  hello   world ", "ok"}))
	require.NoError(t, err)
	out, _ := Apply(ds, true, []string{OpStandardizeText})
	assert.Equal(t, "hello world", out.Column("v").Strings[0])
}

func TestApplyFixDataTypes(t *testing.T) {
	ds, err := dataset.New(dataset.NewText("v", []string{"1", "2", "3", "4", "oops"}))
	require.NoError(t, err)
	out, _ := Apply(ds, true, []string{OpFixDataTypes})
	c := out.Column("v")
	assert.Equal(t, dataset.KindNumeric, c.Kind)
	assert.True(t, c.Missing[4])
	assert.Equal(t, []float64{1, 2, 3, 4}, c.FloatValues())
}

func TestApplyFixDataTypesLeavesRealText(t *testing.T) {
	ds, err := dataset.New(dataset.NewText("v", []string{"a", "b", "1"}))
	require.NoError(t, err)
	out, _ := Apply(ds, true, []string{OpFixDataTypes})
	assert.Equal(t, dataset.KindText, out.Column("v").Kind)
}

func TestApplyThenReprofile(t *testing.T) {
	ds := sampleDataset(t)
	out, _ := Apply(ds, true, []string{OpRemoveDuplicates, OpHandleMissing})
	p := Profile(out)
	assert.Equal(t, 0, p.DuplicateRows)
	assert.Equal(t, 4, p.RowCount)
}
