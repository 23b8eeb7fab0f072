package server

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cloupeer.io/bcicar/internal/caragent/drive"
	"cloupeer.io/bcicar/internal/pkg/metrics"
	"cloupeer.io/bcicar/pkg/log"
	"cloupeer.io/bcicar/pkg/options"
)

// Controller is the part of the arbiter the surface needs.
type Controller interface {
	Dispatch(ctx context.Context, action drive.Action) error
	State() drive.ExecutionState
}

// Server is the car's HTTP command surface.
type Server struct {
	server  *http.Server
	options *options.HttpOptions

	deviceID string
	ctrl     Controller
	address  func() string
	ready    atomic.Bool
}

// New builds the surface. address is called on every ping so a changed
// lease shows up without a restart.
func New(opts *options.HttpOptions, deviceID string, ctrl Controller, address func() string) *Server {
	s := &Server{
		options:  opts,
		deviceID: deviceID,
		ctrl:     ctrl,
		address:  address,
	}
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
	}
	return s
}

// Handler returns the routed surface.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleHome).Methods(http.MethodGet)
	r.HandleFunc("/cmd", s.handleCommand).Methods(http.MethodPost)
	r.HandleFunc("/ping", s.handlePing).Methods(http.MethodGet)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !s.ready.Load() {
			http.Error(w, "booting", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	return r
}

// SetReady flips /readyz once the boot sequence has finished.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

// Ready reports whether the boot sequence has finished.
func (s *Server) Ready() bool {
	return s.ready.Load()
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	log.Info("Starting HTTP server", "addr", s.server.Addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		log.Info("Shutting down HTTP server")
		return s.server.Shutdown(shutdownCtx)
	}
}
