package drive

import (
	"math"
	"time"

	"github.com/shibu-robo/shibu_drive/internal/config"
)

type TurnAction int

const (
	TurnDrive TurnAction = iota
	TurnCoast
	TurnBrake
	TurnStop
	TurnTimeout
)

func (a TurnAction) String() string {
	switch a {
	case TurnDrive:
		return "drive"
	case TurnCoast:
		return "coast"
	case TurnBrake:
		return "brake"
	case TurnStop:
		return "stop"
	case TurnTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// TurnStep is the output of one rotation tick. Turn is +1 for a
// counter-clockwise (heading increasing) spin, -1 for clockwise, 0 for none.
type TurnStep struct {
	Action TurnAction
	Error  int
	Rate   float64
	Turn   int
	Speed  float64
	Brake  BrakePulse
}

// Rotation is the per call state of a rotate-to-heading operation. It does
// no I/O; callers feed it headings and apply the returned step.
type Rotation struct {
	cfg    config.TuningConfig
	Start  int
	Target int

	started  bool
	prev     int
	settled  int
	lastTurn int
}

func NewRotation(cfg config.TuningConfig, start, delta int) *Rotation {
	start = Normalize(start)
	return &Rotation{
		cfg:    cfg,
		Start:  start,
		Target: Normalize(start + delta),
	}
}

// Settled is the current count of consecutive in-band samples.
func (r *Rotation) Settled() int {
	return r.settled
}

// Step evaluates one sample. elapsed is measured from the start of the
// rotation, dt from the previous sample.
func (r *Rotation) Step(heading int, elapsed, dt time.Duration) TurnStep {
	heading = Normalize(heading)
	step := TurnStep{
		Error: ShortestError(r.Target, heading),
	}

	first := !r.started
	if !first && dt > 0 {
		step.Rate = float64(ShortestError(heading, r.prev)) / dt.Seconds()
	}
	r.started = true
	r.prev = heading

	if first && step.Error == 0 {
		step.Action = TurnStop
		return step
	}

	if elapsed >= r.cfg.RotateTimeout {
		step.Action = TurnTimeout
		return step
	}

	if abs(step.Error) <= r.cfg.Deadband {
		r.settled++
		if r.settled < r.cfg.SettleNeed {
			step.Action = TurnCoast
			return step
		}

		step.Action = TurnBrake
		step.Turn = -sign(step.Rate)
		if step.Turn == 0 {
			step.Turn = -r.lastTurn
		}
		step.Brake = NewBrakePulse(r.cfg, step.Rate)
		step.Speed = step.Brake.Speed
		return step
	}

	r.settled = 0
	speed := r.cfg.TurnKp*float64(abs(step.Error)) - r.cfg.TurnKd*math.Abs(step.Rate)/r.cfg.RateScale
	step.Action = TurnDrive
	step.Speed = clamp(speed, r.cfg.TurnMinSpeed, r.cfg.TurnMaxSpeed)
	step.Turn = sign(float64(step.Error))
	r.lastTurn = step.Turn
	return step
}

// turnCommands spins in place. A positive turn drives the right pair ahead
// and the left pair astern.
func turnCommands(wiring Wiring, turn int, speed float64) []WheelCommand {
	switch {
	case turn > 0:
		return sides(wiring.Astern(), speed, wiring.Ahead(), speed)
	case turn < 0:
		return sides(wiring.Ahead(), speed, wiring.Astern(), speed)
	default:
		return sides(Release, 0, Release, 0)
	}
}
