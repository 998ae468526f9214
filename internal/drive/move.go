package drive

import (
	"math"
	"time"

	"github.com/shibu-robo/shibu_drive/internal/config"
)

// Profile is a trapezoidal base speed over a fixed duration. When the
// duration is shorter than both ramps the two ramps meet below cruise.
type Profile struct {
	Duration time.Duration
	Accel    time.Duration
	Decel    time.Duration
	Min      float64
	Cruise   float64
}

func NewProfile(cfg config.TuningConfig, duration time.Duration) Profile {
	return Profile{
		Duration: duration,
		Accel:    cfg.Accel,
		Decel:    cfg.Decel,
		Min:      cfg.MinSpeed,
		Cruise:   cfg.CruiseSpeed,
	}
}

// Base returns the base speed at elapsed time t.
func (p Profile) Base(t time.Duration) float64 {
	if t < 0 {
		t = 0
	}

	fraction := 1.0
	if p.Accel > 0 && t < p.Accel {
		fraction = float64(t) / float64(p.Accel)
	}

	remaining := p.Duration - t
	if p.Decel > 0 && remaining < p.Decel {
		down := clamp(float64(remaining)/float64(p.Decel), 0, 1)
		fraction = math.Min(fraction, down)
	}

	return p.Min + (p.Cruise-p.Min)*fraction
}

type HoldStep struct {
	Error      int
	Rate       float64
	ErrorRate  float64
	Correction float64
	Left       float64
	Right      float64
}

// Hold keeps the heading captured at the start of a forward move.
type Hold struct {
	cfg    config.TuningConfig
	Target int

	started bool
	prev    int
	prevErr int
	rate    float64
	errRate float64
}

func NewHold(cfg config.TuningConfig, target int) *Hold {
	return &Hold{
		cfg:    cfg,
		Target: Normalize(target),
	}
}

// Rate is the last measured yaw rate in deg/s.
func (h *Hold) Rate() float64 {
	return h.rate
}

// Step evaluates one sample with the given base speed. The correction is
// clamped to base so neither side ever reverses.
func (h *Hold) Step(heading int, base float64, dt time.Duration) HoldStep {
	heading = Normalize(heading)
	step := HoldStep{
		Error: ShortestError(h.Target, heading),
	}

	if h.started && dt > 0 {
		h.rate = float64(ShortestError(heading, h.prev)) / dt.Seconds()
		h.errRate = float64(ShortestError(step.Error, h.prevErr)) / dt.Seconds()
	}
	h.started = true
	h.prev = heading
	h.prevErr = step.Error
	step.Rate = h.rate
	step.ErrorRate = h.errRate

	corr := h.cfg.YawKp*float64(step.Error) + h.cfg.YawKd*h.errRate
	step.Correction = clamp(corr, -base, base)

	step.Left = clamp(base-step.Correction, 0, h.cfg.MaxSpeed)
	step.Right = clamp(base+step.Correction, 0, h.cfg.MaxSpeed)
	return step
}
