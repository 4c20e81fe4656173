package gasoptd

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GoSim-25-26J-441/userop-gasopt/internal/archive"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/config"
	"github.com/GoSim-25-26J-441/userop-gasopt/pkg/logger"
)

type HTTPServer struct {
	mux      *http.ServeMux
	store    *RunStore
	Executor *RunExecutor
	archive  *archive.Store
	log      *slog.Logger
}

func NewHTTPServer(store *RunStore, executor *RunExecutor) *HTTPServer {
	s := &HTTPServer{
		mux:      http.NewServeMux(),
		store:    store,
		Executor: executor,
		log:      logger.Default,
	}

	s.mux.HandleFunc("/healthz", s.handleHealthz)
	s.mux.HandleFunc("/v1/runs", s.handleRuns)
	s.mux.HandleFunc("/v1/runs/", s.handleRunByID)
	s.mux.HandleFunc("/v1/archive/runs", s.handleArchiveRuns)
	s.mux.HandleFunc("/v1/archive/runs/", s.handleArchiveRunByID)
	s.mux.HandleFunc("/v1/archive/sweeps/", s.handleArchiveSweep)

	return s
}

// WithArchive serves the /v1/archive endpoints from a
func (s *HTTPServer) WithArchive(a *archive.Store) *HTTPServer {
	s.archive = a
	return s
}

// WithMetricsGatherer exposes g on /metrics
func (s *HTTPServer) WithMetricsGatherer(g prometheus.Gatherer) *HTTPServer {
	s.mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return s
}

func (s *HTTPServer) WithLogger(l *slog.Logger) *HTTPServer {
	s.log = l
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleRuns handles /v1/runs
func (s *HTTPServer) handleRuns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateRun(w, r)
	case http.MethodGet:
		s.handleListRuns(w, r)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleRunByID handles /v1/runs/{id} and its actions and sub-resources
func (s *HTTPServer) handleRunByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
	if path == "" {
		s.writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	routes := []struct {
		suffix  string
		method  string
		handler func(http.ResponseWriter, *http.Request, string)
	}{
		{":start", http.MethodPost, s.handleStartRun},
		{":stop", http.MethodPost, s.handleStopRun},
		{"/result", http.MethodGet, s.handleGetResult},
		{"/userop", http.MethodGet, s.handleGetUserOp},
		{"/progress/stream", http.MethodGet, s.handleProgressStream},
	}
	for _, route := range routes {
		if !strings.HasSuffix(path, route.suffix) {
			continue
		}
		if r.Method != route.method {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		route.handler(w, r, strings.TrimSuffix(path, route.suffix))
		return
	}

	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.handleGetRun(w, r, path)
}

// handleCreateRun handles POST /v1/runs
func (s *HTTPServer) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RunID string    `json:"run_id,omitempty"`
		Input *RunInput `json:"input"`
		Start bool      `json:"start,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Input == nil {
		s.writeError(w, http.StatusBadRequest, "input is required")
		return
	}
	if _, err := req.Input.Config(); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid config: "+err.Error())
		return
	}

	rec, err := s.store.Create(req.RunID, *req.Input)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.log.Info("run created (HTTP)", "run_id", rec.Run.ID)

	if req.Start {
		if rec, err = s.Executor.Start(rec.Run.ID); err != nil {
			s.writeRunError(w, err)
			return
		}
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"run": rec.Run})
}

// handleListRuns handles GET /v1/runs?limit=&offset=&status=
func (s *HTTPServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), 50, 1, 1000)
	offset := queryInt(q.Get("offset"), 0, 0, -1)

	var status RunStatus
	if raw := q.Get("status"); raw != "" {
		if status = ParseRunStatus(raw); status == "" {
			s.writeError(w, http.StatusBadRequest, "unknown status: "+raw)
			return
		}
	}

	recs := s.store.ListFiltered(limit, offset, status)
	runs := make([]Run, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, rec.Run)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"runs": runs,
		"pagination": map[string]any{
			"limit":  limit,
			"offset": offset,
			"count":  len(runs),
		},
	})
}

// queryInt parses a non-negative query value, falling back to def; max < 0 means unbounded
func queryInt(raw string, def, min, max int) int {
	v, err := strconv.Atoi(raw)
	if raw == "" || err != nil || v < min {
		return def
	}
	if max >= 0 && v > max {
		return max
	}
	return v
}

// handleGetRun handles GET /v1/runs/{id}
func (s *HTTPServer) handleGetRun(w http.ResponseWriter, _ *http.Request, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"run":      rec.Run,
		"progress": rec.Progress,
	})
}

// handleStartRun handles POST /v1/runs/{id}:start
func (s *HTTPServer) handleStartRun(w http.ResponseWriter, _ *http.Request, runID string) {
	updated, err := s.Executor.Start(runID)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.log.Info("run started (HTTP)", "run_id", runID)
	s.writeJSON(w, http.StatusOK, map[string]any{"run": updated.Run})
}

// handleStopRun handles POST /v1/runs/{id}:stop
func (s *HTTPServer) handleStopRun(w http.ResponseWriter, _ *http.Request, runID string) {
	updated, err := s.Executor.Stop(runID)
	if err != nil {
		s.writeRunError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"run": updated.Run})
}

// handleGetResult handles GET /v1/runs/{id}/result
func (s *HTTPServer) handleGetResult(w http.ResponseWriter, _ *http.Request, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if rec.Result == nil {
		s.writeError(w, http.StatusPreconditionFailed, "result not available")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"run":    rec.Run,
		"result": rec.Result,
	})
}

// handleGetUserOp handles GET /v1/runs/{id}/userop; format=rpc returns the
// hex/wei encoding bundler RPC endpoints expect
func (s *HTTPServer) handleGetUserOp(w http.ResponseWriter, r *http.Request, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if rec.Result == nil || rec.Result.UserOperation == nil {
		s.writeError(w, http.StatusPreconditionFailed, "user operation not available")
		return
	}

	if r.URL.Query().Get("format") == "rpc" {
		s.writeJSON(w, http.StatusOK, map[string]any{"userop": rec.Result.UserOperation.RPC()})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"userop":     rec.Result.UserOperation,
		"gas_output": rec.Result.GasOutput,
	})
}

// handleProgressStream handles GET /v1/runs/{id}/progress/stream (SSE)
func (s *HTTPServer) handleProgressStream(w http.ResponseWriter, r *http.Request, runID string) {
	rec, ok := s.store.Get(runID)
	if !ok {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	interval := time.Second
	if ms, err := strconv.ParseInt(r.URL.Query().Get("interval_ms"), 10, 64); err == nil && ms > 0 {
		interval = time.Duration(ms) * time.Millisecond
	}

	previousStatus := rec.Run.Status
	lastGeneration := -1
	s.sendSSEEvent(w, "status_change", map[string]any{"status": rec.Run.Status})
	if rec.Progress != nil {
		s.sendSSEEvent(w, "progress", rec.Progress)
		lastGeneration = rec.Progress.Generation
	}
	if rec.Run.Status.Terminal() {
		s.sendSSEEvent(w, "complete", map[string]any{"status": rec.Run.Status, "result": rec.Result})
		flush(w)
		return
	}
	flush(w)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rec, ok := s.store.Get(runID)
			if !ok {
				s.sendSSEEvent(w, "error", map[string]any{"error": "run not found"})
				return
			}

			if rec.Progress != nil && rec.Progress.Generation != lastGeneration {
				s.sendSSEEvent(w, "progress", rec.Progress)
				lastGeneration = rec.Progress.Generation
			}
			if rec.Run.Status != previousStatus {
				s.sendSSEEvent(w, "status_change", map[string]any{"status": rec.Run.Status})
				previousStatus = rec.Run.Status
			}
			if rec.Run.Status.Terminal() {
				s.sendSSEEvent(w, "complete", map[string]any{"status": rec.Run.Status, "result": rec.Result})
				flush(w)
				return
			}
			flush(w)
		}
	}
}

// handleArchiveRuns handles GET /v1/archive/runs?limit=
func (s *HTTPServer) handleArchiveRuns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.archive == nil {
		s.writeError(w, http.StatusPreconditionFailed, "archive not configured")
		return
	}
	runs, err := s.archive.ListRuns(queryInt(r.URL.Query().Get("limit"), 50, 1, 1000))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

// handleArchiveRunByID handles GET and DELETE /v1/archive/runs/{id}
func (s *HTTPServer) handleArchiveRunByID(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.writeError(w, http.StatusPreconditionFailed, "archive not configured")
		return
	}
	runID := strings.TrimPrefix(r.URL.Path, "/v1/archive/runs/")
	if runID == "" {
		s.writeError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		rec, err := s.archive.GetRun(runID)
		if err != nil {
			s.writeArchiveError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{"run": rec})
	case http.MethodDelete:
		if err := s.archive.DeleteRun(runID); err != nil {
			s.writeArchiveError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleArchiveSweep handles GET /v1/archive/sweeps/{bundle_size}
func (s *HTTPServer) handleArchiveSweep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.archive == nil {
		s.writeError(w, http.StatusPreconditionFailed, "archive not configured")
		return
	}
	bundle, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/v1/archive/sweeps/"), 10, 64)
	if err != nil || bundle < 1 {
		s.writeError(w, http.StatusBadRequest, "bundle size must be a positive integer")
		return
	}
	rows, err := s.archive.ListSweepRows(bundle)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"bundle_size": bundle, "rows": rows})
}

// sendSSEEvent writes one event; streams are best effort so failures are only logged
func (s *HTTPServer) sendSSEEvent(w http.ResponseWriter, eventType string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		s.log.Error("failed to marshal SSE event data", "error", err)
		return
	}
	if _, err := w.Write([]byte("event: " + eventType + "\ndata: " + string(jsonData) + "\n\n")); err != nil {
		s.log.Error("failed to write SSE event", "error", err)
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (s *HTTPServer) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("failed to encode JSON response", "error", err)
	}
}

func (s *HTTPServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]any{
		"error": message,
	})
}

// writeRunError maps run lifecycle errors to status codes
func (s *HTTPServer) writeRunError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRunNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRunIDMissing), errors.Is(err, config.ErrInvalidConfig):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRunExists), errors.Is(err, ErrRunTerminal):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *HTTPServer) writeArchiveError(w http.ResponseWriter, err error) {
	if errors.Is(err, archive.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}
