package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"cloupeer.io/bcicar/internal/caragent/drive"
	"cloupeer.io/bcicar/internal/pkg/metrics"
	v1 "cloupeer.io/bcicar/pkg/apis/car/v1"
	"cloupeer.io/bcicar/pkg/log"
)

const (
	routeControl   = "control"
	routeDirection = "bci_direction"
)

func (r *Relay) handleHome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "bcicar relay -> %s\n", r.DeviceURL())
}

func (r *Relay) handleControl(w http.ResponseWriter, req *http.Request) {
	var body v1.CommandRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: "Invalid action"})
		return
	}
	action, err := drive.ParseAction(body.Action)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: "Invalid action"})
		return
	}

	if _, err := r.device.command(req.Context(), string(action), r.controlTimeout); err != nil {
		metrics.RelayForwardTotal.WithLabelValues(routeControl, "error").Inc()
		writeJSON(w, http.StatusInternalServerError, v1.ErrorResponse{Error: forwardError(err)})
		return
	}

	metrics.RelayForwardTotal.WithLabelValues(routeControl, "ok").Inc()
	log.Info("Forwarded command", "action", action, "device", r.DeviceURL())
	writeJSON(w, http.StatusOK, v1.RelayResponse{Status: v1.StatusOK})
}

func (r *Relay) handleDirection(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Direction any `json:"direction"`
	}
	dec := json.NewDecoder(req.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: "invalid request"})
		return
	}
	if body.Direction == nil {
		writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: "missing 'direction' field"})
		return
	}

	direction := fmt.Sprint(body.Direction)
	action, ok := v1.Directions[direction]
	if !ok {
		log.Warn("Unknown direction", "direction", direction)
		writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: "invalid direction"})
		return
	}
	log.Info("Received direction", "direction", direction, "action", action)

	reply, err := r.device.command(req.Context(), action, r.directionTimeout)
	if err != nil {
		metrics.RelayForwardTotal.WithLabelValues(routeDirection, "error").Inc()
		var de *DeviceError
		if errors.As(err, &de) {
			log.Error(err, "Device rejected direction", "action", action)
			writeJSON(w, http.StatusInternalServerError, v1.DirectionResponse{
				Status:      v1.StatusError,
				Direction:   direction,
				Action:      action,
				DeviceError: de.Message,
			})
			return
		}
		log.Error(err, "Failed to reach device", "device", r.DeviceURL())
		writeJSON(w, http.StatusInternalServerError, v1.ErrorResponse{Error: ErrUnreachable.Error()})
		return
	}

	metrics.RelayForwardTotal.WithLabelValues(routeDirection, "ok").Inc()
	writeJSON(w, http.StatusOK, v1.DirectionResponse{
		Status:         v1.StatusDirectionOK,
		Direction:      direction,
		Action:         action,
		DeviceResponse: reply,
	})
}

func (r *Relay) handleNotify(w http.ResponseWriter, req *http.Request) {
	var n v1.NotifyRequest
	if err := json.NewDecoder(req.Body).Decode(&n); err != nil {
		log.Warn("Failed to parse ready notification", "error", err)
		writeJSON(w, http.StatusBadRequest, v1.ErrorResponse{Error: "invalid json"})
		return
	}

	log.Info("Car ready", "device", n.Device, "ip", n.IP, "status", n.Status)
	if r.followNotify && n.IP != "" {
		r.device.retarget(n.IP)
		log.Info("Retargeted relay", "device", r.DeviceURL())
	}
	writeJSON(w, http.StatusOK, v1.NotifyResponse{Status: v1.StatusAcknowledged})
}

func (r *Relay) handlePing(w http.ResponseWriter, req *http.Request) {
	reply, err := r.device.ping(req.Context(), r.controlTimeout)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, v1.ErrorResponse{Error: forwardError(err)})
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func forwardError(err error) string {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.Message
	}
	log.Error(err, "Failed to reach device")
	return ErrUnreachable.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		log.Error(err, "Failed to encode response")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
