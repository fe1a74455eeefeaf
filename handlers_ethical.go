package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aether-insight/aether-go/analysis/ethical"
	"github.com/aether-insight/aether-go/storage"
)

// handleEthicalScan scans a dataset for sensitive attributes, PII, and
// representation problems, and stores the report.
func (s *Server) handleEthicalScan(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	_, ds, err := s.store.GetDataset(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	report := ethical.Scan(ds)
	record, err := s.store.SaveRun(r.Context(), id, storage.RunEthical, report)
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"run_id": record.ID,
		"report": report,
	})
}

// handleListRuns returns stored analysis runs for a dataset, optionally
// filtered by kind.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	kind := r.URL.Query().Get("kind")

	records, err := s.store.ListRuns(r.Context(), id, kind)
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"runs":  records,
		"count": len(records),
	})
}

// handleGetRun returns one stored analysis run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	record, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, record)
}
