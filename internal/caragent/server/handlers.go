package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"cloupeer.io/bcicar/internal/caragent/drive"
	"cloupeer.io/bcicar/internal/pkg/metrics"
	v1 "cloupeer.io/bcicar/pkg/apis/car/v1"
	"cloupeer.io/bcicar/pkg/log"
)

const errInvalidAction = "Invalid action"

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "bcicar agent %s ready\n", s.deviceID)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req v1.CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.CommandsRejectedTotal.WithLabelValues("http", "invalid").Inc()
		writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: errInvalidAction})
		return
	}

	action, err := drive.ParseAction(req.Action)
	if err != nil {
		metrics.CommandsRejectedTotal.WithLabelValues("http", "invalid").Inc()
		log.Warn("Rejected command", "action", req.Action, "remote", r.RemoteAddr)
		writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: errInvalidAction})
		return
	}

	log.Info("New command", "action", action, "remote", r.RemoteAddr)
	if err := s.ctrl.Dispatch(r.Context(), action); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, drive.ErrClosed) {
			status = http.StatusServiceUnavailable
			metrics.CommandsRejectedTotal.WithLabelValues("http", "closed").Inc()
		}
		writeJSON(w, status, v1.ErrorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, v1.CommandResponse{Status: v1.StatusExecuting, Action: string(action)})
}

func (s *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	st := s.ctrl.State()

	resp := v1.PingResponse{
		Status: v1.StatusAlive,
		IP:     s.address(),
		Phase:  string(st.Phase),
	}
	if !st.Idle() {
		action := string(st.Action)
		resp.CurrentAction = &action
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error(err, "Failed to write response")
	}
}
