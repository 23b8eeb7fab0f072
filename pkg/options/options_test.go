package options

import "testing"

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		addr    string
		wantErr bool
	}{
		{"0.0.0.0:80", false},
		{":8080", false},
		{"localhost:5000", false},
		{"localhost", true},
		{"host:http", true},
		{"host:70000", true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			err := ValidateAddress(tt.addr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAddress(%q) error = %v, wantErr %v", tt.addr, err, tt.wantErr)
			}
		})
	}
}

func TestMqttOptionsDisabledByDefault(t *testing.T) {
	o := NewMqttOptions()
	if o.Enabled() {
		t.Fatal("mqtt should be disabled without a broker")
	}
	if errs := o.Validate(); len(errs) != 0 {
		t.Fatalf("disabled mqtt options should validate, got %v", errs)
	}

	o.Broker = "tcp://localhost:1883"
	o.TopicRoot = ""
	if errs := o.Validate(); len(errs) != 1 {
		t.Fatalf("expected one error for empty topic root, got %v", errs)
	}

	cfg := o.ToClientConfig()
	if cfg.BrokerURL != o.Broker || cfg.KeepAlive != 30 {
		t.Errorf("unexpected client config: %+v", cfg)
	}
}

func TestHttpOptionsValidate(t *testing.T) {
	o := NewHttpOptions("0.0.0.0:80")
	if errs := o.Validate(); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	o.Addr = "nope"
	o.ShutdownTimeout = 0
	if errs := o.Validate(); len(errs) != 2 {
		t.Fatalf("expected two errors, got %v", errs)
	}
}
