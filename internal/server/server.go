// Package server exposes the HTTP trigger surface: a health endpoint and a
// token-gated manual sync endpoint.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"telegram-sync/internal/sync"
)

// Runner triggers a sync run. Implemented by sync.Orchestrator.
type Runner interface {
	Run(ctx context.Context) sync.Summary
}

// Server handles HTTP requests.
type Server struct {
	secretToken string
	runner      Runner
	server      *http.Server
}

// New creates the HTTP server on the given port.
func New(port int, secretToken string, runner Runner) *Server {
	if runner == nil {
		log.Fatal("Server: runner is nil")
	}
	s := &Server{
		secretToken: secretToken,
		runner:      runner,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleHealth)
	mux.HandleFunc("/sync", s.handleSync)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 20 * time.Minute, // a manual sync run blocks the response
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"service":   "Telegram Sync Service",
		"status":    "running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleSync runs a sync on demand. The token is checked before the
// orchestrator is invoked; the run summary is returned as-is, including
// failures.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Query().Get("token") != s.secretToken {
		log.Println("Unauthorized sync attempt")
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Forbidden"})
		return
	}

	log.Println("Authorized sync request")
	result := s.runner.Run(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"result": result,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
