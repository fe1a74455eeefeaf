package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/aether-insight/aether-go/analysis/dataset"
)

// UploadDatasetRequest carries a dataset as row records.
type UploadDatasetRequest struct {
	Name    string           `json:"name"`
	Records []map[string]any `json:"records"`
}

// handleUploadDataset ingests row records, infers column types, and stores
// the dataset.
func (s *Server) handleUploadDataset(w http.ResponseWriter, r *http.Request) {
	var req UploadDatasetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestResponse(w, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		writeBadRequestResponse(w, "Dataset name must be provided")
		return
	}
	if len(req.Records) == 0 {
		writeBadRequestResponse(w, "At least one record must be provided")
		return
	}

	ds, err := dataset.FromRecords(req.Records)
	if err != nil {
		writeBadRequestResponse(w, fmt.Sprintf("Invalid records: %v", err))
		return
	}

	meta, err := s.store.SaveDataset(r.Context(), req.Name, ds)
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusCreated, meta)
}

// handleListDatasets returns metadata for every stored dataset.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	metas, err := s.store.ListDatasets(r.Context())
	if err != nil {
		writeInternalServerErrorResponse(w, err.Error())
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"datasets": metas,
		"count":    len(metas),
	})
}

// handleGetDataset returns a dataset's metadata and column summary.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	meta, ds, err := s.store.GetDataset(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	columns := make([]map[string]any, 0, ds.NumCols())
	for _, name := range ds.ColumnNames() {
		col := ds.Column(name)
		columns = append(columns, map[string]any{
			"name":    col.Name,
			"kind":    col.Kind.String(),
			"missing": col.MissingCount(),
		})
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"dataset": meta,
		"columns": columns,
	})
}

// handleDeleteDataset removes a dataset and its analysis runs.
func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.DeleteDataset(r.Context(), id); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"message":    "Dataset deleted",
		"dataset_id": id,
	})
}

// handleGetRecords returns a row preview of a stored dataset.
func (s *Server) handleGetRecords(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	_, ds, err := s.store.GetDataset(r.Context(), id)
	if err != nil {
		writeStoreError(w, err)
		return
	}

	limit := parseLimit(r, 100)
	records := ds.Records()
	if limit < len(records) {
		records = records[:limit]
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"records":    records,
		"count":      len(records),
		"total_rows": ds.NumRows(),
	})
}
