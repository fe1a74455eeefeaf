package ml

// ModelRecommendation names a model worth trying for a problem type.
type ModelRecommendation struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// RecommendModels lists the candidate models for a problem type, roughly
// ordered from simplest baseline to strongest default.
func RecommendModels(task Task) []ModelRecommendation {
	if task == TaskClassification {
		return []ModelRecommendation{
			{Name: "logistic_regression", Reason: "fast linear baseline with probability output"},
			{Name: "decision_tree", Reason: "interpretable splits, handles nonlinear boundaries"},
			{Name: "random_forest", Reason: "strong default, robust to noisy features"},
		}
	}
	return []ModelRecommendation{
		{Name: "linear_regression", Reason: "fast baseline, coefficients are directly readable"},
		{Name: "decision_tree", Reason: "captures nonlinear relationships without scaling assumptions"},
		{Name: "random_forest", Reason: "strong default, reduces single-tree variance"},
		{Name: "gradient_boosting", Reason: "usually the most accurate on tabular data, slower to fit"},
	}
}
