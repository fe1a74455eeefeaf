// Package fairness partitions test predictions by a grouping column and
// measures per-group performance deltas against the overall metric, applying
// fixed bias-detection thresholds.
package fairness

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/aether-insight/aether-go/analysis/dataset"
	"github.com/aether-insight/aether-go/analysis/ml"
	"github.com/aether-insight/aether-go/utils"
)

// Bias severity tiers.
const (
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Classification bias triggers when some group's accuracy differs from the
// overall accuracy by more than biasThreshold; regression uses the relative
// RMSE delta. The high tier doubles each threshold.
const (
	classificationBiasThreshold = 0.10
	classificationHighThreshold = 0.20
	regressionBiasThreshold     = 0.20
	regressionHighThreshold     = 0.40
)

// GroupMetrics is one group's performance and its delta from the overall
// metric.
type GroupMetrics struct {
	Group string `json:"group"`
	Rows  int    `json:"rows"`

	Accuracy           *float64 `json:"accuracy,omitempty"`
	F1Weighted         *float64 `json:"f1_weighted,omitempty"`
	AccuracyDifference *float64 `json:"accuracy_difference,omitempty"`

	RMSE           *float64 `json:"rmse,omitempty"`
	RMSEDifference *float64 `json:"rmse_difference,omitempty"`
}

// Report is the fairness evaluation result.
type Report struct {
	GroupColumn   string         `json:"group_column"`
	ProblemType   string         `json:"problem_type"`
	OverallRows   int            `json:"overall_rows"`
	Accuracy      *float64       `json:"accuracy,omitempty"`
	F1Weighted    *float64       `json:"f1_weighted,omitempty"`
	RMSE          *float64       `json:"rmse,omitempty"`
	R2            *float64       `json:"r2,omitempty"`
	Groups        []GroupMetrics `json:"groups"`
	MaxDifference float64        `json:"max_difference"`
	BiasDetected  bool           `json:"bias_detected"`
	Severity      string         `json:"severity,omitempty"`
}

func validate(ds *dataset.Dataset, targetColumn, groupColumn string, predictionCount int) error {
	if ds.Column(targetColumn) == nil {
		return fmt.Errorf("target column %q not found in dataset", targetColumn)
	}
	if ds.Column(groupColumn) == nil {
		return fmt.Errorf("group column %q not found in dataset", groupColumn)
	}
	if predictionCount > ds.NumRows() {
		return fmt.Errorf("got %d predictions for %d rows", predictionCount, ds.NumRows())
	}
	return nil
}

// cellLabel renders a column value as a comparable string.
func cellLabel(c *dataset.Column, i int) string {
	switch c.Kind {
	case dataset.KindNumeric:
		return strconv.FormatFloat(c.Floats[i], 'g', -1, 64)
	case dataset.KindText:
		return c.Strings[i]
	case dataset.KindBool:
		return strconv.FormatBool(c.Bools[i])
	case dataset.KindTemporal:
		return c.Times[i].Format(time.RFC3339)
	}
	return ""
}

// EvaluateClassification compares predicted labels against the target column
// across groups. Predictions align with the dataset's first len(predicted)
// rows; rows with a missing target or group value are skipped.
func EvaluateClassification(ds *dataset.Dataset, targetColumn, groupColumn string, predicted []string) (*Report, error) {
	if err := validate(ds, targetColumn, groupColumn, len(predicted)); err != nil {
		return nil, err
	}
	target := ds.Column(targetColumn)
	group := ds.Column(groupColumn)

	// Label-encode truth and predictions against a shared vocabulary.
	codes := make(map[string]float64)
	encode := func(label string) float64 {
		if code, ok := codes[label]; ok {
			return code
		}
		code := float64(len(codes))
		codes[label] = code
		return code
	}
	labels := func(code float64) string {
		for label, c := range codes {
			if c == code {
				return label
			}
		}
		return strconv.FormatFloat(code, 'g', -1, 64)
	}

	var yTrue, yPred []float64
	var groupOf []string
	for i := 0; i < len(predicted); i++ {
		if target.Missing[i] || group.Missing[i] {
			continue
		}
		yTrue = append(yTrue, encode(cellLabel(target, i)))
		yPred = append(yPred, encode(predicted[i]))
		groupOf = append(groupOf, cellLabel(group, i))
	}
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("no evaluable rows for target %q and group %q", targetColumn, groupColumn)
	}

	overall := ml.EvaluateClassification(yTrue, yPred, labels)
	report := &Report{
		GroupColumn: groupColumn,
		ProblemType: string(ml.TaskClassification),
		OverallRows: len(yTrue),
		Accuracy:    dataset.FinitePtr(overall.Accuracy),
		F1Weighted:  dataset.FinitePtr(overall.F1Weighted),
	}

	for _, name := range groupNames(groupOf) {
		var gTrue, gPred []float64
		for i, g := range groupOf {
			if g != name {
				continue
			}
			gTrue = append(gTrue, yTrue[i])
			gPred = append(gPred, yPred[i])
		}
		if len(gTrue) == 0 {
			continue
		}
		gm := ml.EvaluateClassification(gTrue, gPred, labels)
		diff := gm.Accuracy - overall.Accuracy
		report.Groups = append(report.Groups, GroupMetrics{
			Group:              name,
			Rows:               len(gTrue),
			Accuracy:           dataset.FinitePtr(gm.Accuracy),
			F1Weighted:         dataset.FinitePtr(gm.F1Weighted),
			AccuracyDifference: dataset.FinitePtr(diff),
		})
		if math.Abs(diff) > report.MaxDifference {
			report.MaxDifference = math.Abs(diff)
		}
	}

	if report.MaxDifference > classificationBiasThreshold {
		report.BiasDetected = true
		report.Severity = SeverityMedium
		if report.MaxDifference > classificationHighThreshold {
			report.Severity = SeverityHigh
		}
	}

	logReport(report)
	return report, nil
}

// EvaluateRegression compares predicted values against the target column
// across groups, flagging bias on relative RMSE deltas.
func EvaluateRegression(ds *dataset.Dataset, targetColumn, groupColumn string, predicted []float64) (*Report, error) {
	if err := validate(ds, targetColumn, groupColumn, len(predicted)); err != nil {
		return nil, err
	}
	target := ds.Column(targetColumn)
	if target.Kind != dataset.KindNumeric {
		return nil, fmt.Errorf("target column %q is not numeric", targetColumn)
	}
	group := ds.Column(groupColumn)

	var yTrue, yPred []float64
	var groupOf []string
	for i := 0; i < len(predicted); i++ {
		if target.Missing[i] || group.Missing[i] {
			continue
		}
		yTrue = append(yTrue, target.Floats[i])
		yPred = append(yPred, predicted[i])
		groupOf = append(groupOf, cellLabel(group, i))
	}
	if len(yTrue) == 0 {
		return nil, fmt.Errorf("no evaluable rows for target %q and group %q", targetColumn, groupColumn)
	}

	overall := ml.EvaluateRegression(yTrue, yPred)
	report := &Report{
		GroupColumn: groupColumn,
		ProblemType: string(ml.TaskRegression),
		OverallRows: len(yTrue),
		RMSE:        dataset.FinitePtr(overall.RMSE),
		R2:          overall.R2,
	}

	for _, name := range groupNames(groupOf) {
		var gTrue, gPred []float64
		for i, g := range groupOf {
			if g != name {
				continue
			}
			gTrue = append(gTrue, yTrue[i])
			gPred = append(gPred, yPred[i])
		}
		if len(gTrue) == 0 {
			continue
		}
		gm := ml.EvaluateRegression(gTrue, gPred)
		diff := gm.RMSE - overall.RMSE
		report.Groups = append(report.Groups, GroupMetrics{
			Group:          name,
			Rows:           len(gTrue),
			RMSE:           dataset.FinitePtr(gm.RMSE),
			RMSEDifference: dataset.FinitePtr(diff),
		})
		if math.Abs(diff) > report.MaxDifference {
			report.MaxDifference = math.Abs(diff)
		}
	}

	// Relative delta is undefined against a zero overall RMSE; a perfect
	// overall fit with imperfect groups cannot happen anyway.
	if overall.RMSE > 0 {
		relative := report.MaxDifference / overall.RMSE
		if relative > regressionBiasThreshold {
			report.BiasDetected = true
			report.Severity = SeverityMedium
			if relative > regressionHighThreshold {
				report.Severity = SeverityHigh
			}
		}
	}

	logReport(report)
	return report, nil
}

func groupNames(groupOf []string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, g := range groupOf {
		if _, ok := seen[g]; !ok {
			seen[g] = struct{}{}
			names = append(names, g)
		}
	}
	sort.Strings(names)
	return names
}

func logReport(r *Report) {
	utils.GetLogger().Info("fairness evaluation complete", utils.Component("fairness"),
		utils.String("group_column", r.GroupColumn),
		utils.Int("groups", len(r.Groups)),
		utils.Bool("bias_detected", r.BiasDetected),
		utils.Float("max_difference", r.MaxDifference))
}
