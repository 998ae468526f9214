package drive

import (
	"math"
	"time"

	"github.com/shibu-robo/shibu_drive/internal/config"
)

type BrakePulse struct {
	Speed    float64
	Duration time.Duration
}

// NewBrakePulse sizes a plug brake from the last measured rate in deg/s.
// Faster motion gives a stronger, shorter pulse.
func NewBrakePulse(cfg config.TuningConfig, rate float64) BrakePulse {
	rate = math.Abs(rate)

	speed := clamp(cfg.BrakeBase+cfg.BrakeGain*rate, 0, cfg.BrakeMax)

	maxMs := float64(cfg.BrakeMaxTime) / float64(time.Millisecond)
	minMs := float64(cfg.BrakeMinTime) / float64(time.Millisecond)
	ms := clamp(maxMs-cfg.BrakeTimeGain*rate, minMs, maxMs)

	return BrakePulse{
		Speed:    speed,
		Duration: time.Duration(ms * float64(time.Millisecond)),
	}
}
