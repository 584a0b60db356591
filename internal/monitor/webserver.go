// Package monitor serves the simulation dashboard: JSON endpoints over
// the run store plus go-echarts chart pages for visual inspection of
// recorded runs.
package monitor

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/banshee-data/trafficsim/internal/db"
	"github.com/banshee-data/trafficsim/internal/version"
)

// WebServer handles the HTTP interface for browsing recorded runs.
type WebServer struct {
	address string
	db      *db.DB
	api     http.Handler
	server  *http.Server
}

// NewWebServer creates a web server over the given run store. A non-nil
// apiHandler is mounted under /api/ alongside the chart routes.
func NewWebServer(address string, database *db.DB, apiHandler http.Handler) *WebServer {
	ws := &WebServer{
		address: address,
		db:      database,
		api:     apiHandler,
	}
	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}
	return ws
}

// ServeMux exposes the route table for embedding into another server.
func (ws *WebServer) ServeMux() *http.ServeMux {
	return ws.setupRoutes()
}

func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/", ws.handleIndex)
	mux.HandleFunc("/charts/space-time", ws.handleSpaceTimeChart)
	mux.HandleFunc("/charts/flow", ws.handleFlowChart)
	mux.HandleFunc("/charts/fundamental", ws.handleFundamentalChart)

	if ws.api != nil {
		mux.Handle("/api/", ws.api)
	}

	return mux
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Start begins the HTTP server in a goroutine and handles graceful shutdown.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		log.Printf("Starting dashboard server on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for context cancellation to shut down server
	<-ctx.Done()
	log.Println("shutting down dashboard server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		log.Printf("dashboard server shutdown error: %v", err)
		if err := ws.server.Close(); err != nil {
			log.Printf("dashboard server force close error: %v", err)
		}
	}
	return nil
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func (ws *WebServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<html><body>
<h1>Traffic Simulator Dashboard</h1>
<ul>
<li><a href="/charts/space-time">/charts/space-time?run_id=...</a></li>
<li><a href="/charts/flow">/charts/flow?run_id=...</a></li>
<li><a href="/charts/fundamental">/charts/fundamental</a></li>
<li><a href="/api/runs">/api/runs</a></li>
</ul>
</body></html>`))
}
