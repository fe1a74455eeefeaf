package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aether-insight/aether-go/analysis/ml"
	"github.com/aether-insight/aether-go/storage"
)

// TrainRequest selects the target and training knobs.
type TrainRequest struct {
	TargetColumn string   `json:"target_column"`
	Models       []string `json:"models,omitempty"`
	TestFraction float64  `json:"test_fraction,omitempty"`
	Seed         int64    `json:"seed,omitempty"`
}

// handleTrain trains the requested models and stores the comparison.
func (s *Server) handleTrain(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req TrainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestResponse(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if req.TargetColumn == "" {
		writeBadRequestResponse(w, "target_column must be provided")
		return
	}

	_, ds, err := s.store.GetDataset(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	training := s.config.GetConfig().Training
	opts := ml.TrainOptions{
		Models:       req.Models,
		TestFraction: req.TestFraction,
		Seed:         req.Seed,
	}
	if len(opts.Models) == 0 {
		opts.Models = training.DefaultModels
	}
	if opts.TestFraction == 0 {
		opts.TestFraction = training.TestFraction
	}
	if opts.Seed == 0 {
		opts.Seed = training.RandomSeed
	}

	result, err := ml.Train(ds, req.TargetColumn, opts)
	if err != nil {
		var notFound *ml.ColumnNotFoundError
		if errors.As(err, &notFound) {
			writeNotFoundResponse(w, err.Error())
			return
		}
		writeBadRequestResponse(w, err.Error())
		return
	}

	record, err := s.store.SaveRun(r.Context(), id, storage.RunTrain, result)
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"run_id":   record.ID,
		"training": result,
	})
}

// handleRecommendModels lists candidate models for a problem type.
func (s *Server) handleRecommendModels(w http.ResponseWriter, r *http.Request) {
	problemType := r.URL.Query().Get("problem_type")
	task := ml.Task(problemType)
	if task != ml.TaskClassification && task != ml.TaskRegression {
		writeBadRequestResponse(w, "problem_type must be classification or regression")
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"problem_type":    task,
		"recommendations": ml.RecommendModels(task),
	})
}
