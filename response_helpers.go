package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aether-insight/aether-go/storage"
)

// Response helpers for common HTTP response patterns

// writeJSONResponse writes a JSON response with the given status code
func writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeErrorResponse writes an error response with the given status code and message
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]any{
		"error":  message,
		"status": "error",
	})
}

// writeBadRequestResponse writes a 400 Bad Request response
func writeBadRequestResponse(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusBadRequest, message)
}

// writeNotFoundResponse writes a 404 Not Found response
func writeNotFoundResponse(w http.ResponseWriter, message string) {
	writeErrorResponse(w, http.StatusNotFound, message)
}

// writeInternalServerErrorResponse writes a 500 Internal Server Error response
func writeInternalServerErrorResponse(w http.ResponseWriter, message string) {
	if message == "" {
		message = "Internal Server Error"
	}
	writeErrorResponse(w, http.StatusInternalServerError, message)
}

// writeStoreError maps storage errors to 404 or 500.
func writeStoreError(w http.ResponseWriter, err error) {
	var notFound *storage.ErrNotFound
	if errors.As(err, &notFound) {
		writeNotFoundResponse(w, notFound.Error())
		return
	}
	writeInternalServerErrorResponse(w, err.Error())
}

// parseLimit extracts and validates a limit parameter from the request, returning default if invalid
func parseLimit(r *http.Request, defaultLimit int) int {
	limitParam := r.URL.Query().Get("limit")
	if limitParam == "" {
		return defaultLimit
	}

	var limit int
	if n, err := fmt.Sscanf(limitParam, "%d", &limit); err == nil && n == 1 && limit > 0 {
		return limit
	}
	return defaultLimit
}
