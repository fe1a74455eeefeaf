package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aether-insight/aether-go/analysis/profiling"
	"github.com/aether-insight/aether-go/storage"
)

// handleProfileDataset profiles every column and stores the result as a run.
func (s *Server) handleProfileDataset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	_, ds, err := s.store.GetDataset(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	profile := profiling.Profile(ds)
	record, err := s.store.SaveRun(r.Context(), id, storage.RunProfile, profile)
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"run_id":  record.ID,
		"profile": profile,
	})
}

// handleQualityScores returns the quality and integrity scores.
func (s *Server) handleQualityScores(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	_, ds, err := s.store.GetDataset(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	scores := map[string]float64{
		"quality_score":   profiling.QualityScore(ds),
		"integrity_score": profiling.IntegrityScore(ds),
	}
	record, err := s.store.SaveRun(r.Context(), id, storage.RunQuality, scores)
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"run_id":          record.ID,
		"quality_score":   scores["quality_score"],
		"integrity_score": scores["integrity_score"],
	})
}

// handleInsights returns quick findings and the missing-value report.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	_, ds, err := s.store.GetDataset(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	result := map[string]any{
		"insights":       profiling.QuickInsights(ds),
		"missing_report": profiling.MissingReport(ds),
	}
	record, err := s.store.SaveRun(r.Context(), id, storage.RunInsights, result)
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	result["run_id"] = record.ID
	writeJSONResponse(w, http.StatusOK, result)
}

// handleCorrelations returns the pairwise correlation matrix of numeric
// columns.
func (s *Server) handleCorrelations(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	_, ds, err := s.store.GetDataset(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, profiling.Correlations(ds))
}

// handleCleanSuggestions returns recommended cleaning operations.
func (s *Server) handleCleanSuggestions(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	_, ds, err := s.store.GetDataset(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	suggestions := profiling.Suggest(ds, profiling.Profile(ds))
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// CleanRequest selects cleaning operations to run.
type CleanRequest struct {
	Approved   bool     `json:"approved"`
	Operations []string `json:"operations"`
}

// handleCleanApply applies approved cleaning operations and writes the
// cleaned dataset back to the store.
func (s *Server) handleCleanApply(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req CleanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestResponse(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	_, ds, err := s.store.GetDataset(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	cleaned, applied := profiling.Apply(ds, req.Approved, req.Operations)
	if req.Approved && len(applied) > 0 {
		if err := s.store.ReplaceDataset(r.Context(), id, cleaned); err != nil {
			writeInternalServerErrorResponse(w, err.Error())
			return
		}
	}

	result := map[string]any{
		"approved":           req.Approved,
		"applied_operations": applied,
		"rows":               cleaned.NumRows(),
		"columns":            cleaned.NumCols(),
	}
	record, err := s.store.SaveRun(r.Context(), id, storage.RunClean, result)
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	result["run_id"] = record.ID
	writeJSONResponse(w, http.StatusOK, result)
}
