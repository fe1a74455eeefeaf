package main

import (
	"net/http"
	"time"
)

// setupRoutes sets up the HTTP routes with API versioning
func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.errorRecoveryMiddleware)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.Use(s.versionMiddleware("v1"))
	v1.Use(apiTimeoutMiddleware())

	// Health check (no version)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Dataset management
	v1.HandleFunc("/datasets", s.handleUploadDataset).Methods("POST")
	v1.HandleFunc("/datasets", s.handleListDatasets).Methods("GET")
	v1.HandleFunc("/datasets/{id}", s.handleGetDataset).Methods("GET")
	v1.HandleFunc("/datasets/{id}", s.handleDeleteDataset).Methods("DELETE")
	v1.HandleFunc("/datasets/{id}/records", s.handleGetRecords).Methods("GET")

	// Profiling and quality
	v1.HandleFunc("/datasets/{id}/profile", s.handleProfileDataset).Methods("POST")
	v1.HandleFunc("/datasets/{id}/quality", s.handleQualityScores).Methods("GET")
	v1.HandleFunc("/datasets/{id}/insights", s.handleInsights).Methods("GET")
	v1.HandleFunc("/datasets/{id}/correlations", s.handleCorrelations).Methods("GET")

	// Cleaning
	v1.HandleFunc("/datasets/{id}/clean/suggestions", s.handleCleanSuggestions).Methods("GET")
	v1.HandleFunc("/datasets/{id}/clean", s.handleCleanApply).Methods("POST")

	// Model training
	v1.HandleFunc("/datasets/{id}/train", s.handleTrain).Methods("POST")
	v1.HandleFunc("/models/recommend", s.handleRecommendModels).Methods("GET")

	// Fairness and ethics
	v1.HandleFunc("/datasets/{id}/fairness", s.handleFairness).Methods("POST")
	v1.HandleFunc("/datasets/{id}/ethical", s.handleEthicalScan).Methods("POST")

	// Stored analysis runs
	v1.HandleFunc("/datasets/{id}/runs", s.handleListRuns).Methods("GET")
	v1.HandleFunc("/runs/{id}", s.handleGetRun).Methods("GET")
}

// handleHealth reports service liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if s.store != nil {
		if err := s.store.Health(r.Context()); err != nil {
			status = "degraded"
		}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
