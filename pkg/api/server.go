// pkg/api/server.go

// Package api exposes the live metric registry over HTTP for reporters and
// debugging. It is a read-only view; ingestion never goes through it.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/clearspring/metriccatcher/pkg/metrics"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
)

type Server struct {
	addr     string
	registry *metrics.Registry
	router   *mux.Router
	httpServ *http.Server
}

func NewServer(addr string, registry *metrics.Registry) *Server {
	s := &Server{
		addr:     addr,
		registry: registry,
		router:   mux.NewRouter(),
	}
	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	// Add CORS middleware
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	s.router.HandleFunc("/api/metrics", s.getMetrics).Methods("GET")
	s.router.HandleFunc("/api/metrics/{name}", s.getMetric).Methods("GET")
}

// Router exposes the handler for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start serves the API until Stop or ctx cancellation.
func (s *Server) Start(ctx context.Context) error {
	s.httpServ = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		_ = s.httpServ.Shutdown(shutdownCtx)
	}()

	log.Printf("Starting API server on %s", s.addr)

	if err := s.httpServ.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Stop drains in-flight requests and shuts the listener down.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServ == nil {
		return nil
	}

	return s.httpServ.Shutdown(ctx)
}

func (s *Server) getMetrics(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.registry.Snapshot())
}

func (s *Server) getMetric(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	snapshot, ok := s.registry.Lookup(vars["name"])
	if !ok {
		http.Error(w, "Metric not found", http.StatusNotFound)
		return
	}

	s.writeJSON(w, snapshot)
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
