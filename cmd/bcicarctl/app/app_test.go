package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatusAndSend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ping":
			_, _ = w.Write([]byte(`{"status":"alive","ip":"10.0.0.9","current_action":null,"phase":"idle"}`))
		case "/cmd":
			_, _ = w.Write([]byte(`{"status":"executing","action":"forward"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"--server", srv.URL, "status"}, []string{"alive", "10.0.0.9", "IDLE"}},
		{[]string{"--server", srv.URL, "send", "forward"}, []string{"forward: executing"}},
	}
	for _, tt := range tests {
		cmd := NewApp().Command()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(tt.args)
		if err := cmd.Execute(); err != nil {
			t.Fatalf("%v: %v", tt.args, err)
		}
		for _, w := range tt.want {
			if !strings.Contains(out.String(), w) {
				t.Errorf("%v: output %q missing %q", tt.args, out.String(), w)
			}
		}
	}
}

func TestSendRejectsUnknownAction(t *testing.T) {
	cmd := NewApp().Command()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"send", "jump"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected unknown action to be rejected locally")
	}
}
