package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aether-insight/aether-go/utils"
)

// timeoutMiddleware bounds handler execution so a stuck analysis cannot hold
// a connection open indefinitely.
func timeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := utils.GetLogger()

			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			r = r.WithContext(ctx)

			done := make(chan struct{})
			go func() {
				defer func() {
					if rec := recover(); rec != nil {
						logger.Error("Panic in HTTP handler",
							fmt.Errorf("panic: %v", rec),
							utils.String("path", r.URL.Path),
							utils.Component("middleware"))
					}
					close(done)
				}()
				next.ServeHTTP(w, r)
			}()

			select {
			case <-done:
				return
			case <-ctx.Done():
				logger.Warn("Request timeout",
					utils.String("path", r.URL.Path),
					utils.String("method", r.Method),
					utils.String("timeout", timeout.String()),
					utils.Component("middleware"))

				if w.Header().Get("Content-Type") == "" {
					writeErrorResponse(w, http.StatusGatewayTimeout,
						"Request timeout - operation took too long")
				}
				return
			}
		})
	}
}

// apiTimeoutMiddleware applies per-route timeouts. Model training gets more
// headroom than profiling and CRUD calls.
func apiTimeoutMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			timeout := 30 * time.Second
			if r.Method == "POST" && strings.HasSuffix(r.URL.Path, "/train") {
				timeout = 120 * time.Second
			}
			timeoutMiddleware(timeout)(next).ServeHTTP(w, r)
		})
	}
}
