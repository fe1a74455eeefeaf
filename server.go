package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aether-insight/aether-go/storage"
	"github.com/aether-insight/aether-go/utils"
)

// Server wires the HTTP API over the dataset store.
type Server struct {
	router *mux.Router
	store  *storage.Store
	config *utils.ConfigManager
}

// NewServer builds a server with its routes registered. The store may come
// from config or a test fixture.
func NewServer(store *storage.Store) *Server {
	s := &Server{
		router: mux.NewRouter(),
		store:  store,
		config: utils.GetConfigManager(),
	}
	s.setupRoutes()
	return s
}

// newServerFromConfig loads global configuration, initializes logging, and
// opens the configured dataset store.
func newServerFromConfig() (*Server, error) {
	if err := utils.LoadGlobalConfig(); err != nil {
		log.Printf("Failed to load configuration: %v", err)
	}

	config := utils.GetConfigManager()
	if err := utils.InitLogger(config.GetConfig().Logging); err != nil {
		log.Printf("Failed to initialize logger: %v", err)
	}

	store, err := storage.Open(config.GetConfig().Storage.DatabasePath)
	if err != nil {
		return nil, err
	}
	return NewServer(store), nil
}

// Start starts the HTTP server.
func (s *Server) Start(port string) error {
	log.Printf("Starting Aether Insight server on port %s", port)
	return http.ListenAndServe(":"+port, s.router)
}

// Shutdown closes the server's resources once outstanding work finishes or
// the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownComplete := make(chan struct{})

	go func() {
		defer close(shutdownComplete)
		if s.store != nil {
			log.Println("Closing dataset store...")
			if err := s.store.Close(); err != nil {
				log.Printf("Error closing store: %v", err)
			}
		}
		log.Println("Graceful shutdown completed")
	}()

	select {
	case <-shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
