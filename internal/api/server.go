// Package api exposes simulation runs over a JSON HTTP API: listing and
// inspecting persisted runs, fetching their per-step series, and
// launching new runs against the shared store.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/trafficsim/internal/config"
	"github.com/banshee-data/trafficsim/internal/db"
	"github.com/banshee-data/trafficsim/internal/nasch"
	"github.com/banshee-data/trafficsim/internal/units"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// maxRunSteps bounds runs launched over the API so a request cannot tie
// up the server indefinitely.
const maxRunSteps = 100000

type Server struct {
	db    *db.DB
	units string
}

func NewServer(database *db.DB, speedUnits string) *Server {
	return &Server{
		db:    database,
		units: speedUnits,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400 && statusCode < 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 500:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/runs", s.handleRuns)
	mux.HandleFunc("/api/run", s.showRun)
	mux.HandleFunc("/api/series", s.showSeries)
	mux.HandleFunc("/api/config", s.showConfig)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// speedUnits resolves the units for one request: the ?units= query
// parameter overrides the server default.
func (s *Server) speedUnits(r *http.Request) (string, error) {
	u := r.URL.Query().Get("units")
	if u == "" {
		return s.units, nil
	}
	if !units.IsValid(u) {
		return "", fmt.Errorf("invalid units %q (valid: %s)", u, units.GetValidUnitsString())
	}
	return u, nil
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		s.listRuns(w, r)
	case http.MethodPost:
		s.launchRun(w, r)
	default:
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}

	runs, err := s.db.ListRuns(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve runs: %v", err))
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}

	if err := json.NewEncoder(w).Encode(runs); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write runs")
		return
	}
}

// launchRunRequest is the POST /api/runs body. Every field is optional;
// omitted fields fall back to the server defaults.
type launchRunRequest struct {
	RoadLength *int     `json:"road_length,omitempty"`
	Density    *float64 `json:"density,omitempty"`
	MaxSpeed   *int     `json:"max_speed,omitempty"`
	BrakeProb  *float64 `json:"brake_prob,omitempty"`
	Seed       *int64   `json:"random_seed,omitempty"`
	Steps      *int     `json:"steps,omitempty"`
	Warmup     *int     `json:"warmup_steps,omitempty"`
}

type launchRunResponse struct {
	RunID   string        `json:"run_id"`
	Config  nasch.Config  `json:"config"`
	Summary nasch.Summary `json:"summary"`
}

func (s *Server) launchRun(w http.ResponseWriter, r *http.Request) {
	var req launchRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}

	scenario := config.Scenario{
		RoadLength: req.RoadLength,
		Density:    req.Density,
		MaxSpeed:   req.MaxSpeed,
		BrakeProb:  req.BrakeProb,
		RandomSeed: req.Seed,
		Steps:      req.Steps,
	}
	cfg := scenario.Apply(config.DefaultConfig())
	if cfg.Steps > maxRunSteps {
		s.writeJSONError(w, http.StatusBadRequest,
			fmt.Sprintf("steps must be at most %d", maxRunSteps))
		return
	}

	sim, err := nasch.New(cfg)
	if err != nil {
		var cfgErr *nasch.ConfigError
		if errors.As(err, &cfgErr) {
			s.writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sim.Run(cfg.Steps); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Simulation failed: %v", err))
		return
	}

	warmup := config.DefaultWarmup(cfg.Steps)
	if req.Warmup != nil {
		warmup = *req.Warmup
	}
	summary, err := nasch.Summarize(sim.History(), cfg, warmup)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	runID, err := s.db.InsertRun(cfg)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to persist run: %v", err))
		return
	}
	if err := s.db.RecordSeries(runID, sim.History()); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to persist series: %v", err))
		return
	}
	if err := s.db.RecordHistory(runID, sim.History()); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to persist history: %v", err))
		return
	}
	if err := s.db.RecordSummary(runID, summary); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to persist summary: %v", err))
		return
	}

	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(launchRunResponse{
		RunID:   runID,
		Config:  cfg,
		Summary: summary,
	}); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write run")
		return
	}
}

// runDetail joins a run's parameters with its stored summary. Summary is
// nil when no summary was recorded for the run.
type runDetail struct {
	db.Run
	Summary *nasch.Summary `json:"summary,omitempty"`
}

func (s *Server) showRun(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'run_id' parameter")
		return
	}

	run, err := s.db.GetRun(runID)
	if errors.Is(err, sql.ErrNoRows) {
		s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Run %s not found", runID))
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve run: %v", err))
		return
	}

	detail := runDetail{Run: run}
	summary, err := s.db.GetSummary(runID)
	switch {
	case err == nil:
		if u, uerr := s.speedUnits(r); uerr == nil {
			summary.MeanSpeed = units.ConvertSpeed(summary.MeanSpeed, u)
			summary.SpeedStd = units.ConvertSpeed(summary.SpeedStd, u)
		}
		detail.Summary = &summary
	case errors.Is(err, sql.ErrNoRows):
		// run without a summary is fine
	default:
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve summary: %v", err))
		return
	}

	if err := json.NewEncoder(w).Encode(detail); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write run")
		return
	}
}

func (s *Server) showSeries(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing 'run_id' parameter")
		return
	}

	u, err := s.speedUnits(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.db.GetRun(runID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Run %s not found", runID))
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve run: %v", err))
		return
	}

	series, err := s.db.GetSeries(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError,
			fmt.Sprintf("Failed to retrieve series: %v", err))
		return
	}
	if series == nil {
		series = []db.StepMetrics{}
	}

	// Flow stays in vehicles per step; only speeds carry physical units.
	for i := range series {
		series[i].MeanSpeed = units.ConvertSpeed(series[i].MeanSpeed, u)
	}

	if err := json.NewEncoder(w).Encode(series); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write series")
		return
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	defaults := config.DefaultConfig()
	response := map[string]interface{}{
		"units":    s.units,
		"defaults": defaults,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}
