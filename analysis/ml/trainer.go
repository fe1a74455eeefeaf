package ml

import (
	"fmt"
	"sort"

	"github.com/aether-insight/aether-go/analysis/dataset"
	"github.com/aether-insight/aether-go/utils"
)

// Model result statuses.
const (
	StatusTrained = "trained"
	StatusError   = "error"
)

// DetectProblemType decides classification versus regression from the target
// column. Non-numeric targets classify. Numeric targets classify when they
// look like class codes: integer-valued with at most 10 distinct values, or a
// distinct-value ratio under 5%. Fractional targets with many distinct values
// regress.
func DetectProblemType(c *dataset.Column) Task {
	if c.Kind != dataset.KindNumeric {
		return TaskClassification
	}
	distinct := c.DistinctCount()
	if distinct <= 10 && integerValued(c) {
		return TaskClassification
	}
	if c.Len() > 0 && float64(distinct)/float64(c.Len()) < 0.05 {
		return TaskClassification
	}
	return TaskRegression
}

func integerValued(c *dataset.Column) bool {
	for i := 0; i < c.Len(); i++ {
		if !c.Missing[i] && c.Floats[i] != float64(int64(c.Floats[i])) {
			return false
		}
	}
	return true
}

// TrainOptions configures a training request.
type TrainOptions struct {
	Models       []string
	TestFraction float64
	Seed         int64
}

// FeatureImportance is one feature's share of a model's total importance.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// ModelResult is the outcome for one requested model. A model that fails to
// fit or predict is recorded with an error status instead of aborting the
// batch.
type ModelResult struct {
	Name           string                 `json:"name"`
	Status         string                 `json:"status"`
	Error          string                 `json:"error,omitempty"`
	Classification *ClassificationMetrics `json:"classification_metrics,omitempty"`
	Regression     *RegressionMetrics     `json:"regression_metrics,omitempty"`
	Importances    []FeatureImportance    `json:"feature_importance,omitempty"`

	predictions []float64
	model       Model
}

// Predictions returns the model's test-set predictions (class codes for
// classification).
func (r *ModelResult) Predictions() []float64 { return r.predictions }

// Model returns the fitted model handle, or nil when training failed.
func (r *ModelResult) Model() Model { return r.model }

// TrainResult bundles every model outcome with the winning model name.
type TrainResult struct {
	ProblemType  Task              `json:"problem_type"`
	FeatureNames []string          `json:"feature_names"`
	Dropped      map[string]string `json:"dropped_features,omitempty"`
	TrainRows    int               `json:"train_rows"`
	TestRows     int               `json:"test_rows"`
	Results      []ModelResult     `json:"results"`
	BestModel    string            `json:"best_model,omitempty"`

	prepared *PreparedData
}

// Prepared returns the train/test split the models were fitted on.
func (t *TrainResult) Prepared() *PreparedData { return t.prepared }

// BestResult returns the winning model's result, or nil when every model
// failed.
func (t *TrainResult) BestResult() *ModelResult {
	for i := range t.Results {
		if t.Results[i].Name == t.BestModel && t.Results[i].Status == StatusTrained {
			return &t.Results[i]
		}
	}
	return nil
}

// Train prepares the dataset and fits each recognized requested model,
// scoring on the held-out split. Best model: highest accuracy for
// classification, lowest RMSE for regression, first-encountered on ties.
func Train(ds *dataset.Dataset, targetColumn string, opts TrainOptions) (*TrainResult, error) {
	target := ds.Column(targetColumn)
	if target == nil {
		return nil, &ColumnNotFoundError{Column: targetColumn}
	}
	if opts.TestFraction == 0 {
		opts.TestFraction = 0.2
	}

	log := utils.GetLogger()
	task := DetectProblemType(target)

	prepared, err := Prepare(ds, targetColumn, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("prepare training data: %w", err)
	}

	result := &TrainResult{
		ProblemType:  task,
		FeatureNames: prepared.FeatureNames,
		Dropped:      prepared.DroppedFeatures,
		TrainRows:    len(prepared.XTrain),
		TestRows:     len(prepared.XTest),
		prepared:     prepared,
	}

	bestScore := 0.0
	haveBest := false
	for _, name := range opts.Models {
		model := buildModel(name, task, opts.Seed)
		if model == nil {
			log.Debug("skipping unrecognized model", utils.Component("ml"), utils.String("model", name))
			continue
		}

		mr := trainOne(model, task, prepared)
		result.Results = append(result.Results, mr)
		if mr.Status != StatusTrained {
			log.Warn("model training failed", utils.Component("ml"),
				utils.String("model", name), utils.String("reason", mr.Error))
			continue
		}

		score := 0.0
		if task == TaskClassification {
			score = mr.Classification.Accuracy
			if !haveBest || score > bestScore {
				bestScore, haveBest = score, true
				result.BestModel = mr.Name
			}
		} else {
			score = mr.Regression.RMSE
			if !haveBest || score < bestScore {
				bestScore, haveBest = score, true
				result.BestModel = mr.Name
			}
		}
	}

	log.Info("training complete", utils.Component("ml"),
		utils.String("target", targetColumn), utils.String("problem_type", string(task)),
		utils.Int("models", len(result.Results)), utils.String("best", result.BestModel))
	return result, nil
}

// buildModel maps a model name to an estimator for the task. Names that do
// not apply to the task are unrecognized and skipped.
func buildModel(name string, task Task, seed int64) Model {
	if task == TaskClassification {
		switch name {
		case "logistic_regression":
			return NewLogisticRegression()
		case "decision_tree":
			return NewDecisionTree(TaskClassification)
		case "random_forest":
			return NewRandomForest(TaskClassification, seed)
		}
		return nil
	}
	switch name {
	case "linear_regression":
		return NewLinearRegression()
	case "decision_tree":
		return NewDecisionTree(TaskRegression)
	case "random_forest":
		return NewRandomForest(TaskRegression, seed)
	case "gradient_boosting":
		return NewGradientBoosting(seed)
	}
	return nil
}

func trainOne(model Model, task Task, prepared *PreparedData) ModelResult {
	mr := ModelResult{Name: model.Name(), Status: StatusTrained}
	if err := model.Fit(prepared.XTrain, prepared.YTrain); err != nil {
		mr.Status = StatusError
		mr.Error = err.Error()
		return mr
	}

	mr.model = model
	mr.predictions = model.Predict(prepared.XTest)
	mr.Importances = featureImportances(model, prepared.FeatureNames)

	if task == TaskRegression {
		mr.Regression = EvaluateRegression(prepared.YTest, mr.predictions)
		return mr
	}

	mr.Classification = EvaluateClassification(prepared.YTest, mr.predictions, prepared.TargetLabelFor)
	attachROC(&mr, model, prepared)
	return mr
}

// maxReportedImportances caps how many features a model result reports.
const maxReportedImportances = 10

// featureImportances normalizes a model's raw importance scores to sum to
// one and keeps the largest entries, most important first.
func featureImportances(model Model, names []string) []FeatureImportance {
	reporter, ok := model.(interface{ FeatureImportances() []float64 })
	if !ok {
		return nil
	}
	raw := reporter.FeatureImportances()
	if len(raw) != len(names) {
		return nil
	}
	total := 0.0
	for _, v := range raw {
		total += v
	}
	if total <= 0 {
		return nil
	}

	out := make([]FeatureImportance, len(raw))
	for j, v := range raw {
		out[j] = FeatureImportance{Feature: names[j], Importance: v / total}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	if len(out) > maxReportedImportances {
		out = out[:maxReportedImportances]
	}
	return out
}

// attachROC adds AUC and ROC points for binary targets when the model emits
// probabilities.
func attachROC(mr *ModelResult, model Model, prepared *PreparedData) {
	pm, ok := model.(ProbabilityModel)
	if !ok {
		return
	}
	classes := pm.Classes()
	if len(classes) != 2 {
		return
	}
	positive := classes[1]

	probs := pm.PredictProba(prepared.XTest)
	scores := make([]float64, len(probs))
	binTrue := make([]float64, len(prepared.YTest))
	for i := range probs {
		scores[i] = probs[i][1]
		if prepared.YTest[i] == positive {
			binTrue[i] = 1
		}
	}
	mr.Classification.ROC, mr.Classification.AUC = BinaryROC(binTrue, scores)
}
