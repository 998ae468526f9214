package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var ErrInvalidTuning = errors.New("invalid tuning")

// LoadTuningFile overlays the YAML file at path onto base. Keys missing from
// the file keep their base value.
func LoadTuningFile(path string, base TuningConfig) (TuningConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed reading tuning file %s: %w", path, err)
	}

	tuning := base
	err = yaml.Unmarshal(b, &tuning)
	if err != nil {
		return base, fmt.Errorf("failed parsing tuning file %s: %w", path, err)
	}

	err = tuning.Validate()
	if err != nil {
		return base, err
	}
	return tuning, nil
}

// Validate rejects tunables the control loops cannot run with.
func (t TuningConfig) Validate() error {
	switch {
	case t.Tick <= 0:
		return fmt.Errorf("%w: tick must be positive", ErrInvalidTuning)
	case t.Deadband < 0:
		return fmt.Errorf("%w: deadband must not be negative", ErrInvalidTuning)
	case t.SettleNeed < 1:
		return fmt.Errorf("%w: settle count must be at least 1", ErrInvalidTuning)
	case t.RotateTimeout <= 0:
		return fmt.Errorf("%w: rotate timeout must be positive", ErrInvalidTuning)
	case t.RateScale <= 0:
		return fmt.Errorf("%w: rate scale must be positive", ErrInvalidTuning)
	case t.MaxSpeed <= 0 || t.MaxSpeed > 1:
		return fmt.Errorf("%w: max speed must be in (0, 1]", ErrInvalidTuning)
	case t.TurnMinSpeed < 0 || t.TurnMinSpeed > t.TurnMaxSpeed || t.TurnMaxSpeed > t.MaxSpeed:
		return fmt.Errorf("%w: turn speeds must satisfy 0 <= min <= max <= %.2f", ErrInvalidTuning, t.MaxSpeed)
	case t.MinSpeed < 0 || t.MinSpeed > t.CruiseSpeed || t.CruiseSpeed > t.MaxSpeed:
		return fmt.Errorf("%w: move speeds must satisfy 0 <= min <= cruise <= %.2f", ErrInvalidTuning, t.MaxSpeed)
	case t.Accel < 0 || t.Decel < 0:
		return fmt.Errorf("%w: ramps must not be negative", ErrInvalidTuning)
	case t.BrakeMinTime < 0 || t.BrakeMinTime > t.BrakeMaxTime:
		return fmt.Errorf("%w: brake times must satisfy 0 <= min <= max", ErrInvalidTuning)
	case t.BrakeMax < 0 || t.BrakeMax > t.MaxSpeed:
		return fmt.Errorf("%w: brake max must be in [0, %.2f]", ErrInvalidTuning, t.MaxSpeed)
	}
	return nil
}
