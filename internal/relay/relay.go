// Package relay forwards browser and BCI commands to a car and receives its
// ready notifications.
package relay

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cloupeer.io/bcicar/internal/pkg/metrics"
	"cloupeer.io/bcicar/pkg/log"
	"cloupeer.io/bcicar/pkg/options"
)

const (
	DefaultControlTimeout   = 3 * time.Second
	DefaultDirectionTimeout = 2 * time.Second
)

type Config struct {
	HttpOptions *options.HttpOptions

	// DeviceURL is the car's base URL, e.g. http://192.168.31.220.
	DeviceURL string

	ControlTimeout   time.Duration
	DirectionTimeout time.Duration

	// FollowNotify retargets the relay to the address a car announces.
	FollowNotify bool
}

type Relay struct {
	server  *http.Server
	options *options.HttpOptions
	device  *device

	controlTimeout   time.Duration
	directionTimeout time.Duration
	followNotify     bool
}

func (cfg *Config) NewRelay() (*Relay, error) {
	d, err := newDevice(cfg.DeviceURL)
	if err != nil {
		return nil, err
	}

	r := &Relay{
		options:          cfg.HttpOptions,
		device:           d,
		controlTimeout:   cfg.ControlTimeout,
		directionTimeout: cfg.DirectionTimeout,
		followNotify:     cfg.FollowNotify,
	}
	if r.controlTimeout <= 0 {
		r.controlTimeout = DefaultControlTimeout
	}
	if r.directionTimeout <= 0 {
		r.directionTimeout = DefaultDirectionTimeout
	}
	r.server = &http.Server{
		Addr:              cfg.HttpOptions.Addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: cfg.HttpOptions.ReadHeaderTimeout,
	}
	return r, nil
}

// DeviceURL returns the car the relay currently forwards to.
func (r *Relay) DeviceURL() string {
	return r.device.URL().String()
}

func (r *Relay) Handler() http.Handler {
	m := mux.NewRouter()

	m.HandleFunc("/", r.handleHome).Methods(http.MethodGet)
	m.HandleFunc("/control", r.handleControl).Methods(http.MethodPost)
	m.HandleFunc("/bci_direction", r.handleDirection).Methods(http.MethodPost)
	m.HandleFunc("/notify", r.handleNotify).Methods(http.MethodPost)
	m.HandleFunc("/ping", r.handlePing).Methods(http.MethodGet)

	m.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	m.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return m
}

// Start serves until ctx is done, then shuts down gracefully.
func (r *Relay) Start(ctx context.Context) error {
	log.Info("Starting relay", "addr", r.server.Addr, "device", r.DeviceURL())

	errCh := make(chan error, 1)
	go func() {
		if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), r.options.ShutdownTimeout)
		defer cancel()
		log.Info("Shutting down relay")
		return r.server.Shutdown(shutdownCtx)
	}
}
