package options

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"cloupeer.io/bcicar/internal/caragent/indicator"
)

// IndicatorOptions sets the status pixel colors as RRGGBB hex strings.
type IndicatorOptions struct {
	DisconnectedColor string `json:"disconnected-color" mapstructure:"disconnected-color"`
	ConnectedColor    string `json:"connected-color" mapstructure:"connected-color"`
	CommandColor      string `json:"command-color" mapstructure:"command-color"`
}

func NewIndicatorOptions() *IndicatorOptions {
	return &IndicatorOptions{
		DisconnectedColor: "ff0000",
		ConnectedColor:    "00ff00",
		CommandColor:      "ffff00",
	}
}

func (o *IndicatorOptions) Validate() []error {
	var errs []error
	for flag, v := range map[string]string{
		"indicator.disconnected-color": o.DisconnectedColor,
		"indicator.connected-color":    o.ConnectedColor,
		"indicator.command-color":      o.CommandColor,
	} {
		if _, err := parseColor(v); err != nil {
			errs = append(errs, fmt.Errorf("--%s: %w", flag, err))
		}
	}
	return errs
}

// Palette returns the default blink patterns recolored.
func (o *IndicatorOptions) Palette() (indicator.Palette, error) {
	p := indicator.DefaultPalette()
	var err error
	if p.Disconnected.Color, err = parseColor(o.DisconnectedColor); err != nil {
		return p, err
	}
	if p.Connected.Color, err = parseColor(o.ConnectedColor); err != nil {
		return p, err
	}
	if p.CommandReceived.Color, err = parseColor(o.CommandColor); err != nil {
		return p, err
	}
	return p, nil
}

func (o *IndicatorOptions) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.DisconnectedColor, "indicator.disconnected-color", o.DisconnectedColor, "Color blinked while waiting for the network (RRGGBB).")
	fs.StringVar(&o.ConnectedColor, "indicator.connected-color", o.ConnectedColor, "Color blinked once the network is up (RRGGBB).")
	fs.StringVar(&o.CommandColor, "indicator.command-color", o.CommandColor, "Color blinked on every accepted command (RRGGBB).")
}

func parseColor(s string) (indicator.Color, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return indicator.Color{}, fmt.Errorf("color must be 6 hex digits, got %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return indicator.Color{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return indicator.Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}
