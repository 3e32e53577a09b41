package trace

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"taskdeck/internal/jsonutil"
)

// DefaultPort is the default ingest server port
const DefaultPort = 9721

// Server receives operation events from out-of-process reporters via HTTP
type Server struct {
	recorder *Recorder
	server   *http.Server
}

// NewServer creates a new ingest server listening on addr. An empty addr
// falls back to the TASKDECK_TRACE_PORT env var and then DefaultPort.
func NewServer(recorder *Recorder, addr string) *Server {
	if addr == "" {
		port := DefaultPort
		if portStr := os.Getenv("TASKDECK_TRACE_PORT"); portStr != "" {
			if p, err := strconv.Atoi(portStr); err == nil && p > 0 && p < 65536 {
				port = p
			}
		}
		addr = fmt.Sprintf(":%d", port)
	}

	s := &Server{recorder: recorder}

	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/spans", s.handleSpans)

	s.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	return s
}

// Start begins listening for events (non-blocking)
// Returns immediately, server runs in background goroutine
func (s *Server) Start() error {
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "trace server error: %v\n", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the server
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the address the server listens on
func (s *Server) Addr() string {
	return s.server.Addr
}

// handleEvents handles POST /events requests
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var event OpEvent
	if err := jsonutil.DecodeWithContext(r.Body, &event, "decoding op event"); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.recorder.HandleEvent(event); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleSpans handles GET /spans requests, returning completed spans newest first
func (s *Server) handleSpans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.recorder.Recent()); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
