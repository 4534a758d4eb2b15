package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zone-signal-lab/internal/app"
	"zone-signal-lab/internal/domain"
	"zone-signal-lab/internal/logger"
	"zone-signal-lab/internal/lookup"
	"zone-signal-lab/internal/reporting"
	"zone-signal-lab/internal/simulation"
	"zone-signal-lab/internal/storage"
)

// Server exposes the runner over HTTP.
type Server struct {
	app     *app.App
	runner  *simulation.Runner
	log     *logger.Logger
	started time.Time

	// State
	mu        sync.Mutex
	running   int
	completed int
	reused    int
	failed    int
	lastRunAt time.Time
}

// NewServer creates a Server.
func NewServer(a *app.App, runner *simulation.Runner) *Server {
	return &Server{
		app:     a,
		runner:  runner,
		log:     a.Log,
		started: time.Now(),
	}
}

// Routes returns the HTTP handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.app.Metrics.Gatherer(), promhttp.HandlerOpts{}))

	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /runs", s.handleCreateRun)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /runs/{id}/report", s.handleReport)

	return mux
}

// RunRequestBody is the JSON body of POST /runs. Window is "from..to".
type RunRequestBody struct {
	Strategy    string         `json:"strategy"`
	Instrument  string         `json:"instrument"`
	Timeframe   string         `json:"timeframe"`
	Window      string         `json:"window"`
	StopPips    float64        `json:"stop_pips"`
	Target1Pips float64        `json:"target1_pips"`
	Target2Pips float64        `json:"target2_pips"`
	Params      map[string]any `json:"params"`
	RequesterID string         `json:"requester_id"`
}

// RunResponse is returned by POST /runs and GET /runs/{id}.
type RunResponse struct {
	RunID       string         `json:"run_id"`
	ExecutionID string         `json:"execution_id,omitempty"`
	Reused      bool           `json:"reused"`
	Strategy    string         `json:"strategy"`
	Instrument  string         `json:"instrument"`
	Timeframe   string         `json:"timeframe"`
	Window      string         `json:"window"`
	Params      map[string]any `json:"normalized_params"`
	Bars        int            `json:"bars"`
	Signals     int            `json:"signals"`
	Outcomes    int            `json:"outcomes"`
	WinRate     float64        `json:"target1_win_rate"`
	ExpectancyR float64        `json:"expectancy_r"`
	CreatedAtMs int64          `json:"created_at_ms"`
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	Running   int       `json:"running"`
	Completed int       `json:"completed"`
	Reused    int       `json:"reused"`
	Failed    int       `json:"failed"`
	LastRunAt time.Time `json:"last_run_at,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:    "running",
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Running:   s.running,
		Completed: s.completed,
		Reused:    s.reused,
		Failed:    s.failed,
		LastRunAt: s.lastRunAt,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var body RunRequestBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body: " + err.Error()})
		return
	}
	tw, err := domain.ParseTimeWindow(body.Window)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.track(func() { s.running++ })
	res, err := s.runner.Run(r.Context(), simulation.RunRequest{
		StrategyID:  body.Strategy,
		Instrument:  body.Instrument,
		Timeframe:   body.Timeframe,
		Window:      tw,
		StopPips:    body.StopPips,
		Target1Pips: body.Target1Pips,
		Target2Pips: body.Target2Pips,
		Params:      body.Params,
		RequesterID: body.RequesterID,
	})
	s.track(func() {
		s.running--
		s.lastRunAt = time.Now().UTC()
		switch {
		case err != nil:
			s.failed++
		case res.Reused:
			s.reused++
		default:
			s.completed++
		}
	})
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return
	}

	status := http.StatusCreated
	if res.Reused {
		status = http.StatusOK
	}
	resp := newRunResponse(res.Run, res.Summary)
	resp.ExecutionID = res.ExecutionID
	resp.Reused = res.Reused
	writeJSON(w, status, resp)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	report, ok := s.generate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(report.Run, report.Summary))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	report, ok := s.generate(w, r)
	if !ok {
		return
	}

	switch r.URL.Query().Get("format") {
	case "csv":
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Write([]byte(reporting.RenderOutcomesCSV(report.Outcomes)))
	default:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.Write([]byte(reporting.RenderMarkdown(report)))
	}
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) (*reporting.Report, bool) {
	runID := r.PathValue("id")
	report, err := reporting.NewGenerator(s.app.RunStore, s.app.SummaryStore).Generate(r.Context(), runID)
	if err != nil {
		writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
		return nil, false
	}
	return report, true
}

func (s *Server) track(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f()
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, simulation.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, simulation.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, lookup.ErrNoBarData):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func newRunResponse(run *domain.RunRecord, s *domain.RunSummary) RunResponse {
	d := run.Descriptor
	resp := RunResponse{
		RunID:       run.RunID,
		Strategy:    d.StrategyID,
		Instrument:  d.Instrument,
		Timeframe:   d.Timeframe,
		Window:      d.Window.String(),
		Params:      d.NormalizedParams,
		Bars:        run.BarCount,
		Signals:     run.SignalCount,
		Outcomes:    run.OutcomeCount,
		CreatedAtMs: run.CreatedAtMs,
	}
	if s != nil {
		resp.WinRate = s.Target1WinRate
		resp.ExpectancyR = s.ExpectancyR
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
