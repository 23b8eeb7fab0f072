package mqtt

import "testing"

func TestTopicMatches(t *testing.T) {
	tests := []struct {
		filter, topic string
		want          bool
	}{
		{"bcicar/v1/command/car-1", "bcicar/v1/command/car-1", true},
		{"bcicar/v1/command/+", "bcicar/v1/command/car-1", true},
		{"bcicar/v1/command/+", "bcicar/v1/command/car-1/extra", false},
		{"bcicar/v1/#", "bcicar/v1/state/car-1", true},
		{"bcicar/v1/state/car-1", "bcicar/v1/state/car-2", false},
		{"bcicar/+/state/+", "bcicar/v1/state", false},
	}

	for _, tt := range tests {
		if got := TopicMatches(tt.filter, tt.topic); got != tt.want {
			t.Errorf("TopicMatches(%q, %q) = %v, want %v", tt.filter, tt.topic, got, tt.want)
		}
	}
}

func TestNewClientValidates(t *testing.T) {
	if _, err := NewClient(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := NewClient(&ClientConfig{BrokerURL: "tcp://localhost:1883"}); err == nil {
		t.Error("expected error for missing client id")
	}

	cfg := &ClientConfig{BrokerURL: "tcp://localhost:1883", ClientID: "bcicar-test"}
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.KeepAlive != 30 || cfg.ReconnectInterval == 0 {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if c.IsConnected() {
		t.Error("a client that was never started must not report connected")
	}
}
