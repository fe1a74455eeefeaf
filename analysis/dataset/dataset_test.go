package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRecordsInfersKinds(t *testing.T) {
	records := []map[string]any{
		{"age": 34.0, "name": "alice", "active": true, "joined": "2023-01-15", "score": "1.5"},
		{"age": 28.0, "name": "bob", "active": false, "joined": "2023-02-20", "score": "2.5"},
		{"age": nil, "name": "carol", "active": true, "joined": "2023-03-25", "score": "3.5"},
	}
	ds, err := FromRecords(records)
	require.NoError(t, err)
	require.Equal(t, 3, ds.NumRows())
	require.Equal(t, 5, ds.NumCols())

	assert.Equal(t, KindNumeric, ds.Column("age").Kind)
	assert.Equal(t, KindText, ds.Column("name").Kind)
	assert.Equal(t, KindBool, ds.Column("active").Kind)
	assert.Equal(t, KindTemporal, ds.Column("joined").Kind)
	// Numeric strings re-type to numeric at the 90% threshold.
	assert.Equal(t, KindNumeric, ds.Column("score").Kind)

	assert.Equal(t, 1, ds.Column("age").MissingCount())
	assert.Equal(t, []float64{34, 28}, ds.Column("age").FloatValues())
}

func TestFromRecordsMixedTextStaysText(t *testing.T) {
	records := []map[string]any{
		{"v": "1"}, {"v": "2"}, {"v": "x"}, {"v": "y"}, {"v": "z"},
	}
	ds, err := FromRecords(records)
	require.NoError(t, err)
	assert.Equal(t, KindText, ds.Column("v").Kind)
}

func TestFromRecordsRaggedRows(t *testing.T) {
	records := []map[string]any{
		{"a": 1.0, "b": "x"},
		{"a": 2.0},
	}
	ds, err := FromRecords(records)
	require.NoError(t, err)
	require.Equal(t, 2, ds.NumRows())
	assert.True(t, ds.Column("b").Missing[1])
}

func TestDuplicateMask(t *testing.T) {
	ds, err := New(
		NewNumeric("col1", []float64{1, 2, 2, 3}),
		NewText("col2", []string{"a", "b", "b", "c"}),
	)
	require.NoError(t, err)

	mask := ds.DuplicateMask()
	assert.Equal(t, []bool{false, false, true, false}, mask)
	assert.Equal(t, 1, ds.DuplicateCount())

	kept := ds.SelectRows(invert(mask))
	assert.Equal(t, 3, kept.NumRows())
	assert.Equal(t, 0, kept.DuplicateCount())
}

func invert(mask []bool) []bool {
	out := make([]bool, len(mask))
	for i, m := range mask {
		out[i] = !m
	}
	return out
}

func TestEmptyRowMask(t *testing.T) {
	a := NewNumeric("a", []float64{1, nan(), 3})
	b := NewText("b", []string{"x", "", "z"})
	ds, err := New(a, b)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false}, ds.EmptyRowMask())
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestAsNumericThresholds(t *testing.T) {
	t.Run("clean parse", func(t *testing.T) {
		c := NewText("v", []string{"1", "2.5", "3"})
		num, res := AsNumeric(&c)
		assert.Equal(t, ParseOK, res.Status)
		assert.True(t, res.AtLeast(0.9))
		assert.Equal(t, []float64{1, 2.5, 3}, num.FloatValues())
	})

	t.Run("partial parse keeps ratio", func(t *testing.T) {
		c := NewText("v", []string{"1", "2", "3", "4", "oops"})
		num, res := AsNumeric(&c)
		assert.Equal(t, ParsePartial, res.Status)
		assert.InDelta(t, 0.8, res.Ratio, 1e-9)
		assert.True(t, res.AtLeast(0.8))
		assert.False(t, res.AtLeast(0.9))
		assert.True(t, num.Missing[4])
	})

	t.Run("mostly text fails", func(t *testing.T) {
		c := NewText("v", []string{"a", "b", "1"})
		_, res := AsNumeric(&c)
		assert.Equal(t, ParseFailed, res.Status)
		assert.False(t, res.AtLeast(0.8))
	})
}

func TestAsTemporal(t *testing.T) {
	c := NewText("d", []string{"2024-01-01", "2024-06-15", "not a date", "2024-12-31"})
	tmp, res := AsTemporal(&c)
	assert.Equal(t, ParsePartial, res.Status)
	assert.InDelta(t, 0.75, res.Ratio, 1e-9)
	assert.True(t, tmp.Missing[2])
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), tmp.Times[1])
}

func TestValidateRejectsBadShapes(t *testing.T) {
	_, err := New(NewNumeric("a", []float64{1, 2}), NewNumeric("a", []float64{3, 4}))
	assert.ErrorContains(t, err, "duplicate column name")

	_, err = New(NewNumeric("a", []float64{1, 2}), NewNumeric("b", []float64{3}))
	assert.ErrorContains(t, err, "rows")
}

func TestRecordsJSONSafety(t *testing.T) {
	ds, err := New(NewNumeric("v", []float64{1, nan()}))
	require.NoError(t, err)
	rows := ds.Records()
	require.Len(t, rows, 2)
	assert.Equal(t, 1.0, rows[0]["v"])
	assert.Nil(t, rows[1]["v"])
}

func TestFinitePtr(t *testing.T) {
	assert.Nil(t, FinitePtr(nan()))
	require.NotNil(t, FinitePtr(2.5))
	assert.Equal(t, 2.5, *FinitePtr(2.5))
}

func TestQuantileLinearInterpolation(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 1000}
	q1, ok := Quantile(sorted, 0.25)
	require.True(t, ok)
	assert.Equal(t, 2.0, q1)
	q3, ok := Quantile(sorted, 0.75)
	require.True(t, ok)
	assert.Equal(t, 4.0, q3)

	med, ok := Median([]float64{4, 1, 3, 2})
	require.True(t, ok)
	assert.Equal(t, 2.5, med)

	_, ok = Quantile(nil, 0.5)
	assert.False(t, ok)
}

func TestModeString(t *testing.T) {
	m, ok := ModeString([]string{"b", "a", "b", "a", "b"})
	require.True(t, ok)
	assert.Equal(t, "b", m)

	// Ties resolve to first appearance.
	m, _ = ModeString([]string{"x", "y", "x", "y"})
	assert.Equal(t, "x", m)

	_, ok = ModeString(nil)
	assert.False(t, ok)
}
