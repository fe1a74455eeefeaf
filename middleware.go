package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/aether-insight/aether-go/utils"
)

type contextKey string

const (
	requestIDKey  contextKey = "request_id"
	apiVersionKey contextKey = "api_version"
)

// loggingMiddleware logs HTTP requests and responses with a per-request ID.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		requestID := uuid.New().String()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		utils.GetLogger().Info("HTTP Request",
			utils.String("method", r.Method),
			utils.String("path", r.URL.Path),
			utils.String("remote_addr", r.RemoteAddr),
			utils.RequestID(requestID),
			utils.Component("http"))

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		utils.GetLogger().Info("HTTP Response",
			utils.String("method", r.Method),
			utils.String("path", r.URL.Path),
			utils.Int("status", rw.statusCode),
			utils.Float("duration_ms", duration.Seconds()*1000),
			utils.RequestID(requestID),
			utils.Component("http"))
	})
}

// errorRecoveryMiddleware recovers from panics and logs errors.
func (s *Server) errorRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				utils.GetLogger().Error("Panic recovered",
					fmt.Errorf("panic: %v", err),
					utils.String("method", r.Method),
					utils.String("path", r.URL.Path),
					utils.Component("http"))

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// versionMiddleware tags requests and responses with the API version.
func (s *Server) versionMiddleware(version string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), apiVersionKey, version)
			r = r.WithContext(ctx)

			w.Header().Set("X-API-Version", version)

			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
