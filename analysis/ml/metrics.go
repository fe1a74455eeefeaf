package ml

import (
	"math"
	"sort"
	"strconv"

	"github.com/aether-insight/aether-go/analysis/dataset"
)

// ClassMetrics holds per-class precision, recall and F1.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// ROCPoint is one point of a binary ROC curve.
type ROCPoint struct {
	FPR       float64 `json:"fpr"`
	TPR       float64 `json:"tpr"`
	Threshold float64 `json:"threshold"`
}

// ClassificationMetrics is the metric bundle for classification models.
// Weighted averages are support-weighted across classes.
type ClassificationMetrics struct {
	Accuracy          float64                   `json:"accuracy"`
	PrecisionWeighted float64                   `json:"precision_weighted"`
	RecallWeighted    float64                   `json:"recall_weighted"`
	F1Weighted        float64                   `json:"f1_weighted"`
	PerClass          map[string]ClassMetrics   `json:"per_class"`
	ConfusionMatrix   map[string]map[string]int `json:"confusion_matrix"`
	AUC               *float64                  `json:"auc,omitempty"`
	ROC               []ROCPoint                `json:"roc,omitempty"`
}

// RegressionMetrics is the metric bundle for regression models. R2 is nil
// when the target has zero variance.
type RegressionMetrics struct {
	MAE  float64  `json:"mae"`
	MSE  float64  `json:"mse"`
	RMSE float64  `json:"rmse"`
	R2   *float64 `json:"r2"`
}

func formatClass(code float64) string {
	return strconv.FormatFloat(code, 'g', -1, 64)
}

// EvaluateClassification scores predictions against truth. labelFor renders a
// class code as its display label.
func EvaluateClassification(yTrue, yPred []float64, labelFor func(float64) string) *ClassificationMetrics {
	m := &ClassificationMetrics{
		PerClass:        make(map[string]ClassMetrics),
		ConfusionMatrix: make(map[string]map[string]int),
	}
	n := len(yTrue)
	if n == 0 {
		return m
	}

	classes := distinctClasses(append(append([]float64(nil), yTrue...), yPred...))

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	m.Accuracy = float64(correct) / float64(n)

	for _, actual := range classes {
		row := make(map[string]int, len(classes))
		for _, predicted := range classes {
			count := 0
			for i := range yTrue {
				if yTrue[i] == actual && yPred[i] == predicted {
					count++
				}
			}
			row[labelFor(predicted)] = count
		}
		m.ConfusionMatrix[labelFor(actual)] = row
	}

	for _, class := range classes {
		tp, fp, fn := 0, 0, 0
		for i := range yTrue {
			switch {
			case yTrue[i] == class && yPred[i] == class:
				tp++
			case yTrue[i] != class && yPred[i] == class:
				fp++
			case yTrue[i] == class && yPred[i] != class:
				fn++
			}
		}
		precision, recall, f1 := 0.0, 0.0, 0.0
		if tp+fp > 0 {
			precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			recall = float64(tp) / float64(tp+fn)
		}
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		support := tp + fn
		m.PerClass[labelFor(class)] = ClassMetrics{Precision: precision, Recall: recall, F1: f1, Support: support}

		weight := float64(support) / float64(n)
		m.PrecisionWeighted += weight * precision
		m.RecallWeighted += weight * recall
		m.F1Weighted += weight * f1
	}
	return m
}

// BinaryROC computes the ROC curve and AUC from positive-class scores.
// yTrue must be 0/1 codes. Returns nil when either class is absent.
func BinaryROC(yTrue, scores []float64) ([]ROCPoint, *float64) {
	pos, neg := 0, 0
	for _, v := range yTrue {
		if v == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return nil, nil
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	points := []ROCPoint{{FPR: 0, TPR: 0, Threshold: math.Inf(1)}}
	tp, fp := 0, 0
	auc := 0.0
	prevFPR, prevTPR := 0.0, 0.0
	for k := 0; k < len(order); {
		// Advance over tied scores together.
		threshold := scores[order[k]]
		for k < len(order) && scores[order[k]] == threshold {
			if yTrue[order[k]] == 1 {
				tp++
			} else {
				fp++
			}
			k++
		}
		fpr := float64(fp) / float64(neg)
		tpr := float64(tp) / float64(pos)
		auc += (fpr - prevFPR) * (tpr + prevTPR) / 2
		points = append(points, ROCPoint{FPR: fpr, TPR: tpr, Threshold: threshold})
		prevFPR, prevTPR = fpr, tpr
	}
	return points, dataset.FinitePtr(auc)
}

// EvaluateRegression scores predictions against truth.
func EvaluateRegression(yTrue, yPred []float64) *RegressionMetrics {
	m := &RegressionMetrics{}
	n := len(yTrue)
	if n == 0 {
		return m
	}

	mean := 0.0
	for _, v := range yTrue {
		mean += v
	}
	mean /= float64(n)

	var absSum, sqSum, totSum float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		absSum += math.Abs(d)
		sqSum += d * d
		t := yTrue[i] - mean
		totSum += t * t
	}
	m.MAE = absSum / float64(n)
	m.MSE = sqSum / float64(n)
	m.RMSE = math.Sqrt(m.MSE)
	if totSum > 0 {
		m.R2 = dataset.FinitePtr(1 - sqSum/totSum)
	}
	return m
}
