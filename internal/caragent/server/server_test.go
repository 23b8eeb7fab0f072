package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cloupeer.io/bcicar/internal/caragent/drive"
	v1 "cloupeer.io/bcicar/pkg/apis/car/v1"
	"cloupeer.io/bcicar/pkg/options"
)

type fakeController struct {
	dispatched []drive.Action
	state      drive.ExecutionState
	err        error
}

func (f *fakeController) Dispatch(_ context.Context, a drive.Action) error {
	if f.err != nil {
		return f.err
	}
	f.dispatched = append(f.dispatched, a)
	return nil
}

func (f *fakeController) State() drive.ExecutionState { return f.state }

func newTestServer(ctrl *fakeController) http.Handler {
	return New(options.NewHttpOptions(":0"), "esp32_car", ctrl, func() string { return "10.0.0.9" }).Handler()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCommand(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantBody   string
		dispatched []drive.Action
	}{
		{
			name:       "valid",
			body:       `{"action":"forward"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"executing","action":"forward"}`,
			dispatched: []drive.Action{drive.ActionForward},
		},
		{
			name:       "stop",
			body:       `{"action":"stop"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"executing","action":"stop"}`,
			dispatched: []drive.Action{drive.ActionStop},
		},
		{
			name:       "unknown action",
			body:       `{"action":"jump"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid action"}`,
		},
		{
			name:       "missing action",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid action"}`,
		},
		{
			name:       "malformed body",
			body:       `forward`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid action"}`,
		},
		{
			name:       "arbiter closed",
			body:       `{"action":"left"}`,
			err:        drive.ErrClosed,
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"error":"command arbiter is closed"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{err: tt.err}
			rec := do(newTestServer(ctrl), http.MethodPost, "/cmd", tt.body)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %s, want %s", got, tt.wantBody)
			}
			if diff := cmp.Diff(tt.dispatched, ctrl.dispatched); diff != "" {
				t.Errorf("dispatched mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPing(t *testing.T) {
	ctrl := &fakeController{state: drive.ExecutionState{Phase: drive.PhaseIdle}}
	h := newTestServer(ctrl)

	var idle map[string]any
	rec := do(h, http.MethodGet, "/ping", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &idle); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"status": "alive", "ip": "10.0.0.9", "current_action": nil, "phase": "idle"}
	if diff := cmp.Diff(want, idle); diff != "" {
		t.Errorf("idle ping mismatch (-want +got):\n%s", diff)
	}

	ctrl.state = drive.ExecutionState{Action: drive.ActionLeft, Phase: drive.PhaseHolding}
	var busy v1.PingResponse
	rec = do(h, http.MethodGet, "/ping", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &busy); err != nil {
		t.Fatal(err)
	}
	if busy.CurrentAction == nil || *busy.CurrentAction != "left" || busy.Phase != "holding" {
		t.Errorf("busy ping = %+v", busy)
	}
}

func TestProbesAndBanner(t *testing.T) {
	s := New(options.NewHttpOptions(":0"), "esp32_car", &fakeController{}, func() string { return "" })
	h := s.Handler()

	if rec := do(h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before boot = %d, want 503", rec.Code)
	}
	s.SetReady(true)
	if rec := do(h, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Errorf("readyz after boot = %d, want 200", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec := do(h, http.MethodGet, "/", ""); !strings.Contains(rec.Body.String(), "esp32_car") {
		t.Errorf("banner = %q", rec.Body.String())
	}
	if rec := do(h, http.MethodGet, "/metrics", ""); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "bcicar_") {
		t.Errorf("metrics endpoint missing bcicar collectors")
	}
	if rec := do(h, http.MethodGet, "/cmd", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /cmd = %d, want 405", rec.Code)
	}
}
