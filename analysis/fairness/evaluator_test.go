package fairness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aether-insight/aether-go/analysis/dataset"
)

// groupedDataset builds 40 labelled rows split evenly between two groups.
func groupedDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	labels := make([]string, 40)
	groups := make([]string, 40)
	for i := 0; i < 40; i++ {
		labels[i] = "yes"
		if i%2 == 1 {
			labels[i] = "no"
		}
		groups[i] = "A"
		if i >= 20 {
			groups[i] = "B"
		}
	}
	ds, err := dataset.New(
		dataset.NewText("outcome", labels),
		dataset.NewText("region", groups),
	)
	require.NoError(t, err)
	return ds
}

func TestEvaluateClassificationDetectsBias(t *testing.T) {
	ds := groupedDataset(t)
	outcome := ds.Column("outcome")

	// Group A: 19 of 20 correct. Group B: 13 of 20. Overall 32/40 = 0.80.
	predicted := make([]string, 40)
	for i := 0; i < 40; i++ {
		predicted[i] = outcome.Strings[i]
	}
	flip := func(i int) {
		if predicted[i] == "yes" {
			predicted[i] = "no"
		} else {
			predicted[i] = "yes"
		}
	}
	flip(0)
	for i := 20; i < 27; i++ {
		flip(i)
	}

	report, err := EvaluateClassification(ds, "outcome", "region", predicted)
	require.NoError(t, err)

	require.NotNil(t, report.Accuracy)
	assert.InDelta(t, 0.80, *report.Accuracy, 1e-9)
	require.Len(t, report.Groups, 2)

	groupA := report.Groups[0]
	assert.Equal(t, "A", groupA.Group)
	assert.Equal(t, 20, groupA.Rows)
	assert.InDelta(t, 0.95, *groupA.Accuracy, 1e-9)
	assert.InDelta(t, 0.15, *groupA.AccuracyDifference, 1e-9)

	groupB := report.Groups[1]
	assert.InDelta(t, 0.65, *groupB.Accuracy, 1e-9)
	assert.InDelta(t, -0.15, *groupB.AccuracyDifference, 1e-9)

	assert.InDelta(t, 0.15, report.MaxDifference, 1e-9)
	assert.True(t, report.BiasDetected)
	assert.Equal(t, SeverityMedium, report.Severity)
}

func TestEvaluateClassificationHighSeverity(t *testing.T) {
	ds := groupedDataset(t)
	outcome := ds.Column("outcome")

	// Group A perfect, group B mostly wrong: |diff| well past 0.20.
	predicted := make([]string, 40)
	for i := 0; i < 40; i++ {
		predicted[i] = outcome.Strings[i]
		if i >= 20 && i < 32 {
			if predicted[i] == "yes" {
				predicted[i] = "no"
			} else {
				predicted[i] = "yes"
			}
		}
	}

	report, err := EvaluateClassification(ds, "outcome", "region", predicted)
	require.NoError(t, err)
	assert.True(t, report.BiasDetected)
	assert.Equal(t, SeverityHigh, report.Severity)
}

func TestEvaluateClassificationNoBiasWhenBalanced(t *testing.T) {
	ds := groupedDataset(t)
	outcome := ds.Column("outcome")

	// One miss per group keeps every delta inside the threshold.
	predicted := make([]string, 40)
	for i := 0; i < 40; i++ {
		predicted[i] = outcome.Strings[i]
	}
	predicted[0] = "no"
	predicted[21] = "yes"

	report, err := EvaluateClassification(ds, "outcome", "region", predicted)
	require.NoError(t, err)
	assert.False(t, report.BiasDetected)
	assert.Empty(t, report.Severity)
}

func TestEvaluateClassificationSingleGroup(t *testing.T) {
	ds, err := dataset.New(
		dataset.NewText("outcome", []string{"yes", "no", "yes", "no"}),
		dataset.NewText("region", []string{"A", "A", "A", "A"}),
	)
	require.NoError(t, err)

	report, err := EvaluateClassification(ds, "outcome", "region", []string{"yes", "yes", "yes", "yes"})
	require.NoError(t, err)
	require.Len(t, report.Groups, 1)
	assert.False(t, report.BiasDetected)
	assert.Zero(t, report.MaxDifference)
}

func TestEvaluateClassificationAlignsToPredictionPrefix(t *testing.T) {
	ds := groupedDataset(t)
	outcome := ds.Column("outcome")

	// Only the first 10 rows carry predictions; all correct.
	predicted := make([]string, 10)
	for i := range predicted {
		predicted[i] = outcome.Strings[i]
	}

	report, err := EvaluateClassification(ds, "outcome", "region", predicted)
	require.NoError(t, err)
	assert.Equal(t, 10, report.OverallRows)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, "A", report.Groups[0].Group)
	assert.InDelta(t, 1.0, *report.Accuracy, 1e-9)
}

func TestEvaluateClassificationSkipsMissingGroupRows(t *testing.T) {
	groups := dataset.NewText("region", []string{"A", "", "A", "B"})
	ds, err := dataset.New(
		dataset.NewText("outcome", []string{"yes", "yes", "no", "no"}),
		groups,
	)
	require.NoError(t, err)

	report, err := EvaluateClassification(ds, "outcome", "region", []string{"yes", "yes", "no", "no"})
	require.NoError(t, err)
	assert.Equal(t, 3, report.OverallRows)
	require.Len(t, report.Groups, 2)
	assert.Equal(t, 2, report.Groups[0].Rows)
	assert.Equal(t, 1, report.Groups[1].Rows)
}

func TestEvaluateRegressionDetectsBias(t *testing.T) {
	truth := make([]float64, 20)
	groups := make([]string, 20)
	predicted := make([]float64, 20)
	for i := 0; i < 20; i++ {
		truth[i] = 10.0
		predicted[i] = 10.0
		groups[i] = "A"
		if i >= 10 {
			groups[i] = "B"
			predicted[i] = 12.0
		}
	}
	ds, err := dataset.New(
		dataset.NewNumeric("price", truth),
		dataset.NewText("region", groups),
	)
	require.NoError(t, err)

	report, err := EvaluateRegression(ds, "price", "region", predicted)
	require.NoError(t, err)

	// Overall RMSE = sqrt(40/20) = sqrt(2); group A is exact, group B is
	// off by 2. The relative delta is 1.0, past the high threshold.
	require.NotNil(t, report.RMSE)
	assert.InDelta(t, math.Sqrt2, *report.RMSE, 1e-9)
	require.Len(t, report.Groups, 2)
	assert.InDelta(t, 0.0, *report.Groups[0].RMSE, 1e-9)
	assert.InDelta(t, 2.0, *report.Groups[1].RMSE, 1e-9)
	assert.True(t, report.BiasDetected)
	assert.Equal(t, SeverityHigh, report.Severity)
}

func TestEvaluateRegressionNoBiasWhenUniform(t *testing.T) {
	truth := make([]float64, 20)
	groups := make([]string, 20)
	predicted := make([]float64, 20)
	for i := 0; i < 20; i++ {
		truth[i] = float64(i)
		predicted[i] = float64(i) + 1.0
		groups[i] = "A"
		if i%2 == 1 {
			groups[i] = "B"
		}
	}
	ds, err := dataset.New(
		dataset.NewNumeric("price", truth),
		dataset.NewText("region", groups),
	)
	require.NoError(t, err)

	report, err := EvaluateRegression(ds, "price", "region", predicted)
	require.NoError(t, err)
	assert.False(t, report.BiasDetected)
}

func TestEvaluateValidation(t *testing.T) {
	ds := groupedDataset(t)

	_, err := EvaluateClassification(ds, "absent", "region", []string{"yes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target column")

	_, err = EvaluateClassification(ds, "outcome", "absent", []string{"yes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group column")

	_, err = EvaluateClassification(ds, "outcome", "region", make([]string, 41))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "predictions")

	_, err = EvaluateRegression(ds, "outcome", "region", []float64{1.0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not numeric")
}
