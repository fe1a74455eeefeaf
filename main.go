// Entry point for the Aether Insight data analysis service
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/cors"
)

const aetherVersion = "v0.1.0"

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		runServer("")
		return
	}

	switch args[0] {
	case "-h", "--help", "help":
		printHelp()
		return
	case "--version", "-v":
		fmt.Println("Aether Insight version:", aetherVersion)
		return
	case "--server":
		port := ""
		if len(args) > 1 {
			port = args[1]
		}
		runServer(port)
		return
	default:
		fmt.Fprintln(os.Stderr, "Unknown argument. Use --help for usage.")
		os.Exit(1)
	}
}

func runServer(port string) {
	server, err := newServerFromConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing server: %v\n", err)
		os.Exit(1)
	}

	serverConfig := server.config.GetConfig().Server
	if port == "" {
		port = strconv.Itoa(serverConfig.Port)
	}

	handler := http.Handler(server.router)
	if serverConfig.EnableCORS {
		c := cors.New(cors.Options{
			AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:8080", "*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"*"},
			AllowCredentials: true,
		})
		handler = c.Handler(handler)
	}

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  time.Duration(serverConfig.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(serverConfig.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting Aether Insight server on port %s", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Error starting server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func printHelp() {
	fmt.Println("Usage:")
	fmt.Println("  --server [port]   Start HTTP server (default port from config)")
	fmt.Println("  (no arguments)    Start HTTP server with defaults")
	fmt.Println("  -h, --help, help  Show this help message")
	fmt.Println("  -v, --version     Show Aether Insight version")
}
