// Package v1 holds the JSON wire types exchanged between the car agent,
// the relay and bcicarctl.
package v1

// Status values carried in responses.
const (
	StatusExecuting    = "executing"
	StatusAlive        = "alive"
	StatusReady        = "ready"
	StatusOK           = "OK"
	StatusAcknowledged = "acknowledged"
	StatusDirectionOK  = "ok"
	StatusError        = "error"
)

// CommandRequest is the body of POST /cmd on the car, POST /control on the
// relay and the payload of the MQTT command topic.
type CommandRequest struct {
	Action string `json:"action"`
}

// CommandResponse is returned by the car once a command is accepted.
type CommandResponse struct {
	Status string `json:"status"`
	Action string `json:"action"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PingResponse reports liveness together with the current execution state.
// CurrentAction is nil while the car is idle.
type PingResponse struct {
	Status        string  `json:"status"`
	IP            string  `json:"ip"`
	CurrentAction *string `json:"current_action"`
	Phase         string  `json:"phase"`
}

// NotifyRequest is the ready announcement a car sends once it is reachable.
type NotifyRequest struct {
	Status string `json:"status"`
	Device string `json:"device"`
	IP     string `json:"ip"`
}

// NotifyResponse acknowledges a NotifyRequest.
type NotifyResponse struct {
	Status string `json:"status"`
}

// RelayResponse is returned by the relay after a successful forward.
type RelayResponse struct {
	Status string `json:"status"`
}

// DirectionResponse is returned by the relay for a BCI direction. On success
// DeviceResponse holds the car's reply verbatim; otherwise DeviceError holds
// the error the car reported.
type DirectionResponse struct {
	Status         string `json:"status"`
	Direction      string `json:"direction"`
	Action         string `json:"action"`
	DeviceResponse any    `json:"device_response,omitempty"`
	DeviceError    string `json:"device_error,omitempty"`
}

// Directions maps BCI classifier outputs onto actions.
var Directions = map[string]string{
	"1": "forward",
	"2": "backward",
	"3": "left",
	"4": "right",
}
