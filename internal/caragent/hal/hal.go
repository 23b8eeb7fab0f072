package hal

import (
	"fmt"

	"cloupeer.io/bcicar/internal/caragent/core"
)

const (
	DriverPeriph = "periph"
	DriverMock   = "mock"
)

// New returns the HAL named by cfg.Driver.
func New(cfg *Config) (core.HAL, error) {
	switch cfg.Driver {
	case DriverPeriph:
		return NewPeriph(cfg)
	case DriverMock:
		return NewMock(cfg), nil
	default:
		return nil, fmt.Errorf("unknown hal driver %q", cfg.Driver)
	}
}
