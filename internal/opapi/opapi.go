// Package opapi exposes the controller's operator surface (spec.md §6:
// commands reset/set_mode/request_stop, read-only state_changed stream)
// over a small local HTTP API, grounded on marmos91-dittofs's
// internal/cli/health.Response JSON shape for the status endpoint's
// response body.
package opapi

import (
	"encoding/json"
	"net/http"

	"github.com/stev4501/e84ctl/internal/controller"
)

// StatusResponse is the JSON body returned by GET /status.
type StatusResponse struct {
	State   string            `json:"state"`
	Mode    string            `json:"mode"`
	Signals map[string]bool   `json:"signals"`
	Error   string            `json:"error,omitempty"`
}

// Server serves the operator surface over HTTP for the `status` and
// `reset` CLI subcommands to call into a running `run` process.
type Server struct {
	facade *controller.Facade
	mux    *http.ServeMux
}

// New builds a Server around facade. Call Handler to obtain the
// http.Handler to mount (directly, or behind promhttp's mux for
// metrics).
func New(facade *controller.Facade) *Server {
	s := &Server{facade: facade, mux: http.NewServeMux()}
	s.mux.HandleFunc("/status", s.handleStatus)
	s.mux.HandleFunc("/reset", s.handleReset)
	s.mux.HandleFunc("/stop", s.handleStop)
	s.mux.HandleFunc("/mode", s.handleSetMode)
	return s
}

// Handler returns the HTTP handler serving the operator surface.
func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snapshot := s.facade.Snapshot()
	signals := make(map[string]bool, len(snapshot))
	for name, snap := range snapshot {
		signals[name] = snap.Level
	}
	resp := StatusResponse{
		State:   s.facade.CurrentState().String(),
		Mode:    s.facade.Mode().String(),
		Signals: signals,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	if err := s.facade.Reset(); err != nil {
		writeJSON(w, http.StatusConflict, StatusResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{State: s.facade.CurrentState().String()})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	if err := s.facade.RequestStop(); err != nil {
		writeJSON(w, http.StatusInternalServerError, StatusResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, StatusResponse{State: s.facade.CurrentState().String()})
}

// setModeRequest is the JSON body POST /mode expects: {"mode": "MANUAL"}.
type setModeRequest struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	var req setModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, StatusResponse{Error: err.Error()})
		return
	}
	mode, err := controller.ParseMode(req.Mode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, StatusResponse{Error: err.Error()})
		return
	}
	s.facade.SetMode(mode)
	writeJSON(w, http.StatusOK, StatusResponse{State: s.facade.CurrentState().String(), Mode: s.facade.Mode().String()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
