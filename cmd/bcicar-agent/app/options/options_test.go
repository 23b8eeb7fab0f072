package options

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"

	"cloupeer.io/bcicar/internal/caragent/drive"
	"cloupeer.io/bcicar/internal/caragent/hal"
	"cloupeer.io/bcicar/internal/caragent/indicator"
)

func TestDefaultsValidate(t *testing.T) {
	o := NewAgentOptions()
	if err := o.Validate(); err != nil {
		t.Fatalf("default options invalid: %v", err)
	}
}

func TestFlagsRegistered(t *testing.T) {
	fss := NewAgentOptions().Flags()
	for _, name := range []string{
		"device.id", "device.relay-url", "drive.speed", "drive.ramp-steps",
		"indicator.command-color", "hal.driver", "network.connect-timeout",
		"log.level",
	} {
		found := false
		for _, fs := range fss.FlagSets {
			if fs.Lookup(name) != nil {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("flag --%s not registered", name)
		}
	}
}

func TestDriveProfileRoundTrip(t *testing.T) {
	o := NewDriveOptions()
	if got, want := o.Profile(), drive.DefaultProfile(); got != want {
		t.Fatalf("Profile() = %+v, want %+v", got, want)
	}

	o.Speed = drive.MaxDuty + 1
	if errs := o.Validate(); len(errs) != 1 {
		t.Fatalf("expected one error for out-of-range speed, got %v", errs)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    indicator.Color
		wantErr bool
	}{
		{"ff0000", indicator.Red, false},
		{"#00ff00", indicator.Green, false},
		{"FFFF00", indicator.Yellow, false},
		{"102030", indicator.Color{R: 0x10, G: 0x20, B: 0x30}, false},
		{"fff", indicator.Color{}, true},
		{"zz0000", indicator.Color{}, true},
	}
	for _, tt := range tests {
		got, err := parseColor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseColor(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseColor(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestIndicatorPalette(t *testing.T) {
	o := NewIndicatorOptions()
	p, err := o.Palette()
	if err != nil {
		t.Fatal(err)
	}
	if p != indicator.DefaultPalette() {
		t.Fatalf("default colors should give the default palette, got %+v", p)
	}

	o.CommandColor = "0000ff"
	p, err = o.Palette()
	if err != nil {
		t.Fatal(err)
	}
	if p.CommandReceived.Color != (indicator.Color{B: 255}) {
		t.Errorf("command color = %+v", p.CommandReceived.Color)
	}
	if p.CommandReceived.Times != 1 {
		t.Errorf("recoloring changed the blink count: %d", p.CommandReceived.Times)
	}

	o.ConnectedColor = "nope"
	if errs := o.Validate(); len(errs) != 1 {
		t.Errorf("expected one error, got %v", errs)
	}
}

func TestHALConfig(t *testing.T) {
	o := NewHALOptions()
	o.PWMFrequencyHz = 2000
	cfg := o.Config()
	if cfg.Driver != hal.DriverMock {
		t.Errorf("driver = %q", cfg.Driver)
	}
	if cfg.PWMFrequency != 2*physic.KiloHertz {
		t.Errorf("pwm frequency = %v", cfg.PWMFrequency)
	}
	if cfg.Left.IN1 != o.LeftIN1 || cfg.Right.PWM != o.RightPWM {
		t.Errorf("pins not copied: %+v", cfg)
	}

	o.Driver = hal.DriverPeriph
	o.Standby = ""
	if errs := o.Validate(); len(errs) != 1 {
		t.Errorf("expected missing standby pin to be reported, got %v", errs)
	}
	o.Driver = "gpio"
	if errs := o.Validate(); len(errs) == 0 {
		t.Error("unknown driver accepted")
	}
}

func TestNetworkAndDevice(t *testing.T) {
	n := NewNetworkOptions()
	n.ConnectTimeout = -time.Second
	if errs := n.Validate(); len(errs) != 1 {
		t.Errorf("negative timeout accepted: %v", errs)
	}

	d := NewDeviceOptions()
	d.RelayURL = "192.168.31.136:5000"
	if errs := d.Validate(); len(errs) != 1 {
		t.Errorf("relay url without scheme accepted: %v", errs)
	}
	d.RelayURL = "http://192.168.31.136:5000"
	if errs := d.Validate(); len(errs) != 0 {
		t.Errorf("valid relay url rejected: %v", errs)
	}
}

func TestConfigCarriesInterface(t *testing.T) {
	o := NewAgentOptions()
	o.Network.Interface = "wlan0"
	cfg, err := o.Config()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HAL.Interface != "wlan0" {
		t.Errorf("hal interface = %q", cfg.HAL.Interface)
	}
}
