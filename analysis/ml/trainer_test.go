package ml

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aether-insight/aether-go/analysis/dataset"
)

func TestDetectProblemType(t *testing.T) {
	t.Run("text target classifies", func(t *testing.T) {
		c := dataset.NewText("y", []string{"A", "B", "A", "B", "A"})
		assert.Equal(t, TaskClassification, DetectProblemType(&c))
	})

	t.Run("distinct floats regress", func(t *testing.T) {
		c := dataset.NewNumeric("y", []float64{10.5, 20.3, 30.1, 40.2, 50.8})
		assert.Equal(t, TaskRegression, DetectProblemType(&c))
	})

	t.Run("integer codes classify", func(t *testing.T) {
		c := dataset.NewNumeric("y", []float64{0, 1, 2, 0, 1, 2, 0, 1})
		assert.Equal(t, TaskClassification, DetectProblemType(&c))
	})

	t.Run("low distinct ratio classifies", func(t *testing.T) {
		values := make([]float64, 300)
		for i := range values {
			values[i] = []float64{1.5, 2.5, 3.5}[i%3]
		}
		c := dataset.NewNumeric("y", values)
		assert.Equal(t, TaskClassification, DetectProblemType(&c))
	})

	t.Run("many distinct values regress", func(t *testing.T) {
		values := make([]float64, 100)
		for i := range values {
			values[i] = float64(i) * 1.1
		}
		c := dataset.NewNumeric("y", values)
		assert.Equal(t, TaskRegression, DetectProblemType(&c))
	})

	t.Run("boolean target classifies", func(t *testing.T) {
		c := dataset.NewBool("y", []bool{true, false, true})
		assert.Equal(t, TaskClassification, DetectProblemType(&c))
	})
}

func TestTrainClassification(t *testing.T) {
	ds := classificationDataset(t, 60)
	result, err := Train(ds, "grade", TrainOptions{
		Models: []string{"logistic_regression", "decision_tree", "random_forest"},
		Seed:   1,
	})
	require.NoError(t, err)

	assert.Equal(t, TaskClassification, result.ProblemType)
	assert.NotContains(t, result.FeatureNames, "grade")
	require.Len(t, result.Results, 3)
	for _, mr := range result.Results {
		assert.Equal(t, StatusTrained, mr.Status)
		require.NotNil(t, mr.Classification)
		// Fully separable signal: every model should do well.
		assert.Greater(t, mr.Classification.Accuracy, 0.8, mr.Name)
	}

	require.NotEmpty(t, result.BestModel)
	best := result.BestResult()
	require.NotNil(t, best)
	for _, mr := range result.Results {
		assert.GreaterOrEqual(t, best.Classification.Accuracy, mr.Classification.Accuracy)
	}
}

func TestTrainBinaryModelsCarryROC(t *testing.T) {
	ds := classificationDataset(t, 60)
	result, err := Train(ds, "grade", TrainOptions{
		Models: []string{"logistic_regression"},
		Seed:   1,
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 1)
	m := result.Results[0].Classification
	require.NotNil(t, m.AUC)
	assert.Greater(t, *m.AUC, 0.9)
	assert.NotEmpty(t, m.ROC)
}

func TestTrainRegression(t *testing.T) {
	ds := regressionDataset(t, 60)
	result, err := Train(ds, "price", TrainOptions{
		Models: []string{"linear_regression", "decision_tree", "random_forest", "gradient_boosting"},
		Seed:   1,
	})
	require.NoError(t, err)

	assert.Equal(t, TaskRegression, result.ProblemType)
	require.Len(t, result.Results, 4)

	best := result.BestResult()
	require.NotNil(t, best)
	for _, mr := range result.Results {
		if mr.Status == StatusTrained {
			assert.LessOrEqual(t, best.Regression.RMSE, mr.Regression.RMSE)
		}
	}
	// A noiseless linear target is solved exactly by least squares.
	assert.Equal(t, "linear_regression", result.BestModel)
}

func TestTrainReportsFeatureImportance(t *testing.T) {
	ds := regressionDataset(t, 60)
	result, err := Train(ds, "price", TrainOptions{
		Models: []string{"linear_regression", "decision_tree", "random_forest", "gradient_boosting"},
		Seed:   1,
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 4)

	for _, mr := range result.Results {
		require.NotEmpty(t, mr.Importances, mr.Name)
		sum := 0.0
		for i, fi := range mr.Importances {
			sum += fi.Importance
			if i > 0 {
				assert.LessOrEqual(t, fi.Importance, mr.Importances[i-1].Importance, mr.Name)
			}
		}
		assert.InDelta(t, 1.0, sum, 1e-9, mr.Name)
		// x1 carries a larger coefficient over a far wider range than x2,
		// so it dominates for every estimator.
		assert.Equal(t, "x1", mr.Importances[0].Feature, mr.Name)
	}
}

func TestTrainClassificationFeatureImportance(t *testing.T) {
	ds := classificationDataset(t, 60)
	result, err := Train(ds, "grade", TrainOptions{
		Models: []string{"logistic_regression", "decision_tree"},
		Seed:   1,
	})
	require.NoError(t, err)

	for _, mr := range result.Results {
		require.NotEmpty(t, mr.Importances, mr.Name)
		// The label is determined by signal alone; region is noise.
		assert.Equal(t, "signal", mr.Importances[0].Feature, mr.Name)
	}
}

func TestFeatureImportancesNormalizedAndCapped(t *testing.T) {
	coef := make([]float64, 14)
	names := make([]string, 14)
	for i := range coef {
		coef[i] = float64(i + 1)
		names[i] = fmt.Sprintf("f%02d", i)
	}
	out := featureImportances(&LinearRegression{coef: coef}, names)
	require.Len(t, out, maxReportedImportances)
	assert.Equal(t, "f13", out[0].Feature)
	assert.InDelta(t, 14.0/105.0, out[0].Importance, 1e-9)
}

func TestTrainSkipsUnknownModels(t *testing.T) {
	ds := classificationDataset(t, 40)
	result, err := Train(ds, "grade", TrainOptions{
		Models: []string{"quantum_annealer", "decision_tree", "linear_regression"},
		Seed:   1,
	})
	require.NoError(t, err)
	// Unknown names and task-mismatched names are skipped, not errors.
	require.Len(t, result.Results, 1)
	assert.Equal(t, "decision_tree", result.Results[0].Name)
}

func TestTrainRecordsModelFailure(t *testing.T) {
	// Single-class target: logistic regression cannot fit, the tree can.
	rows := 24
	f := make([]float64, rows)
	label := make([]string, rows)
	for i := range f {
		f[i] = float64(i)
		label[i] = "only"
	}
	ds, err := dataset.New(
		dataset.NewNumeric("f", f),
		dataset.NewText("grade", label),
	)
	require.NoError(t, err)

	result, err := Train(ds, "grade", TrainOptions{
		Models: []string{"logistic_regression", "decision_tree"},
		Seed:   1,
	})
	require.NoError(t, err)
	require.Len(t, result.Results, 2)

	byName := map[string]ModelResult{}
	for _, mr := range result.Results {
		byName[mr.Name] = mr
	}
	assert.Equal(t, StatusError, byName["logistic_regression"].Status)
	assert.NotEmpty(t, byName["logistic_regression"].Error)
	assert.Equal(t, StatusTrained, byName["decision_tree"].Status)
	assert.Equal(t, "decision_tree", result.BestModel)
}

func TestTrainTargetMissing(t *testing.T) {
	ds := classificationDataset(t, 20)
	_, err := Train(ds, "label", TrainOptions{Models: []string{"decision_tree"}})
	var notFound *ColumnNotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestRecommendModels(t *testing.T) {
	classification := RecommendModels(TaskClassification)
	names := make([]string, 0, len(classification))
	for _, r := range classification {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "logistic_regression")
	assert.NotContains(t, names, "linear_regression")

	regression := RecommendModels(TaskRegression)
	assert.Equal(t, "linear_regression", regression[0].Name)
}
