package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every bcicar collector. It is served by the agent's /metrics route.
var Registry = prometheus.NewRegistry()

var (
	// CommandsTotal counts commands accepted by the arbiter, by action.
	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bcicar_commands_total",
			Help: "Total number of motion commands dispatched.",
		},
		[]string{"action"},
	)

	// CommandsRejectedTotal counts commands refused at the surface.
	// source: http/mqtt, reason: invalid/closed
	CommandsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bcicar_commands_rejected_total",
			Help: "Total number of motion commands rejected before dispatch.",
		},
		[]string{"source", "reason"},
	)

	// CancellationsTotal counts executions superseded or drained before they finished.
	CancellationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bcicar_cancellations_total",
			Help: "Total number of executions cancelled before completion.",
		},
	)

	// MotorDuty is the last duty written to each side.
	MotorDuty = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bcicar_motor_duty",
			Help: "Last PWM duty written to the motor channel (0-1023).",
		},
		[]string{"side"},
	)

	// ExecutionPhase is 1 for the current phase and 0 for every other.
	ExecutionPhase = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bcicar_execution_phase",
			Help: "Current execution phase of the action state machine (1=active).",
		},
		[]string{"phase"},
	)

	// RampDuration records how long each ramp took to finish or be cancelled.
	RampDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bcicar_ramp_duration_seconds",
			Help:    "Wall time spent in a duty ramp.",
			Buckets: []float64{.01, .05, .1, .2, .3, .5, .75, 1},
		},
		[]string{"phase"},
	)

	// RelayForwardTotal counts commands forwarded by the relay. result: ok/error
	RelayForwardTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bcicar_relay_forward_total",
			Help: "Total number of commands forwarded by the relay to the car.",
		},
		[]string{"route", "result"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		CommandsTotal,
		CommandsRejectedTotal,
		CancellationsTotal,
		MotorDuty,
		ExecutionPhase,
		RampDuration,
		RelayForwardTotal,
	)
}

// SetPhase marks phase as the only active execution phase.
func SetPhase(phase string, all []string) {
	for _, p := range all {
		v := 0.0
		if p == phase {
			v = 1
		}
		ExecutionPhase.WithLabelValues(p).Set(v)
	}
}
