package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aether-insight/aether-go/analysis/fairness"
	"github.com/aether-insight/aether-go/analysis/ml"
	"github.com/aether-insight/aether-go/storage"
)

// FairnessRequest carries predictions to audit against a grouping column.
// Classification audits take predicted labels, regression audits predicted
// values; predictions align with the dataset's leading rows.
type FairnessRequest struct {
	TargetColumn    string    `json:"target_column"`
	GroupColumn     string    `json:"group_column"`
	ProblemType     string    `json:"problem_type"`
	PredictedLabels []string  `json:"predicted_labels,omitempty"`
	PredictedValues []float64 `json:"predicted_values,omitempty"`
}

// handleFairness evaluates per-group performance and stores the report.
func (s *Server) handleFairness(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req FairnessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestResponse(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.TargetColumn == "" || req.GroupColumn == "" {
		writeBadRequestResponse(w, "target_column and group_column must be provided")
		return
	}

	_, ds, err := s.store.GetDataset(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var report *fairness.Report
	switch ml.Task(req.ProblemType) {
	case ml.TaskClassification:
		if len(req.PredictedLabels) == 0 {
			writeBadRequestResponse(w, "predicted_labels must be provided for classification")
			return
		}
		report, err = fairness.EvaluateClassification(ds, req.TargetColumn, req.GroupColumn, req.PredictedLabels)
	case ml.TaskRegression:
		if len(req.PredictedValues) == 0 {
			writeBadRequestResponse(w, "predicted_values must be provided for regression")
			return
		}
		report, err = fairness.EvaluateRegression(ds, req.TargetColumn, req.GroupColumn, req.PredictedValues)
	default:
		writeBadRequestResponse(w, "problem_type must be classification or regression")
		return
	}
	if err != nil {
		writeBadRequestResponse(w, err.Error())
		return
	}

	record, err := s.store.SaveRun(r.Context(), id, storage.RunFairness, report)
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"run_id": record.ID,
		"report": report,
	})
}
