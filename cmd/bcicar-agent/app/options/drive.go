package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"cloupeer.io/bcicar/internal/caragent/drive"
)

// DriveOptions tunes the motion profile. Changes in the config file apply
// from the next command on.
type DriveOptions struct {
	Speed              int           `json:"speed" mapstructure:"speed"`
	MinDuty            int           `json:"min-duty" mapstructure:"min-duty"`
	RampSteps          int           `json:"ramp-steps" mapstructure:"ramp-steps"`
	StartDuration      time.Duration `json:"start-duration" mapstructure:"start-duration"`
	StopDuration       time.Duration `json:"stop-duration" mapstructure:"stop-duration"`
	StopActionDuration time.Duration `json:"stop-action-duration" mapstructure:"stop-action-duration"`
	CancelDuration     time.Duration `json:"cancel-duration" mapstructure:"cancel-duration"`
	ForwardDuration    time.Duration `json:"forward-duration" mapstructure:"forward-duration"`
	TurnDuration       time.Duration `json:"turn-duration" mapstructure:"turn-duration"`
}

func NewDriveOptions() *DriveOptions {
	p := drive.DefaultProfile()
	return &DriveOptions{
		Speed:              p.Speed,
		MinDuty:            p.MinDuty,
		RampSteps:          p.Steps,
		StartDuration:      p.StartDuration,
		StopDuration:       p.StopDuration,
		StopActionDuration: p.StopActionDuration,
		CancelDuration:     p.CancelDuration,
		ForwardDuration:    p.ForwardDuration,
		TurnDuration:       p.TurnDuration,
	}
}

func (o *DriveOptions) Profile() drive.Profile {
	return drive.Profile{
		Speed:              o.Speed,
		MinDuty:            o.MinDuty,
		Steps:              o.RampSteps,
		StartDuration:      o.StartDuration,
		StopDuration:       o.StopDuration,
		StopActionDuration: o.StopActionDuration,
		CancelDuration:     o.CancelDuration,
		ForwardDuration:    o.ForwardDuration,
		TurnDuration:       o.TurnDuration,
	}
}

func (o *DriveOptions) Validate() []error {
	if err := o.Profile().Validate(); err != nil {
		return []error{fmt.Errorf("drive: %w", err)}
	}
	return nil
}

func (o *DriveOptions) AddFlags(fs *pflag.FlagSet) {
	fs.IntVar(&o.Speed, "drive.speed", o.Speed, fmt.Sprintf("Cruise PWM duty (1-%d).", drive.MaxDuty))
	fs.IntVar(&o.MinDuty, "drive.min-duty", o.MinDuty, "Duty the start ramp begins at.")
	fs.IntVar(&o.RampSteps, "drive.ramp-steps", o.RampSteps, "Number of intervals in every ramp.")
	fs.DurationVar(&o.StartDuration, "drive.start-duration", o.StartDuration, "Length of the soft-start ramp.")
	fs.DurationVar(&o.StopDuration, "drive.stop-duration", o.StopDuration, "Length of the soft-stop ramp at the end of a motion.")
	fs.DurationVar(&o.StopActionDuration, "drive.stop-action-duration", o.StopActionDuration, "Length of the ramp run by an explicit stop command.")
	fs.DurationVar(&o.CancelDuration, "drive.cancel-duration", o.CancelDuration, "Length of the ramp down when a running action is superseded.")
	fs.DurationVar(&o.ForwardDuration, "drive.forward-duration", o.ForwardDuration, "Hold time of forward and backward.")
	fs.DurationVar(&o.TurnDuration, "drive.turn-duration", o.TurnDuration, "Hold time of left and right.")
}
