package drive

import (
	"math"
	"testing"
	"time"

	"github.com/shibu-robo/shibu_drive/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileShape(t *testing.T) {
	cfg := config.DefaultTuning()
	p := NewProfile(cfg, 3*time.Second)

	assert.InDelta(t, cfg.MinSpeed, p.Base(0), 1e-9)
	assert.InDelta(t, cfg.CruiseSpeed, p.Base(cfg.Accel), 1e-9)
	assert.InDelta(t, cfg.CruiseSpeed, p.Base(1500*time.Millisecond), 1e-9)
	assert.InDelta(t, cfg.MinSpeed, p.Base(3*time.Second), 1e-9)
	assert.InDelta(t, (cfg.MinSpeed+cfg.CruiseSpeed)/2, p.Base(300*time.Millisecond), 1e-9)

	prev := -1.0
	for ts := time.Duration(0); ts < cfg.Accel; ts += time.Millisecond {
		base := p.Base(ts)
		require.GreaterOrEqual(t, base, prev, "ramp up at %s", ts)
		prev = base
	}

	prev = math.Inf(1)
	for ts := p.Duration - cfg.Decel + time.Millisecond; ts <= p.Duration; ts += time.Millisecond {
		base := p.Base(ts)
		require.LessOrEqual(t, base, prev, "ramp down at %s", ts)
		prev = base
	}
}

func TestProfileShortDurations(t *testing.T) {
	cfg := config.DefaultTuning()
	for _, d := range []time.Duration{10 * time.Millisecond, 200 * time.Millisecond, 500 * time.Millisecond, 999 * time.Millisecond} {
		p := NewProfile(cfg, d)
		for ts := time.Duration(0); ts <= d+50*time.Millisecond; ts += 5 * time.Millisecond {
			base := p.Base(ts)
			require.GreaterOrEqual(t, base, cfg.MinSpeed, "duration %s at %s", d, ts)
			require.LessOrEqual(t, base, cfg.CruiseSpeed, "duration %s at %s", d, ts)
		}
	}
}

func TestProfileWithoutRamps(t *testing.T) {
	p := Profile{Duration: time.Second, Min: 0.3, Cruise: 0.7}
	assert.InDelta(t, 0.7, p.Base(0), 1e-9)
	assert.InDelta(t, 0.7, p.Base(time.Second), 1e-9)
}

func TestHoldCorrectionClamped(t *testing.T) {
	cfg := config.DefaultTuning()
	cfg.YawKp = 0.5

	for _, base := range []float64{0, 0.1, 0.3, 0.7, 1.0} {
		for heading := 0; heading < 360; heading += 5 {
			h := NewHold(cfg, 0)
			h.Step(0, base, 0)
			step := h.Step(heading, base, tick)

			require.LessOrEqual(t, math.Abs(step.Correction), base+1e-12, "base %.2f heading %d", base, heading)
			require.GreaterOrEqual(t, step.Left, 0.0)
			require.GreaterOrEqual(t, step.Right, 0.0)
			require.LessOrEqual(t, step.Left, cfg.MaxSpeed)
			require.LessOrEqual(t, step.Right, cfg.MaxSpeed)
		}
	}
}

func TestHoldSteersBackToTarget(t *testing.T) {
	cfg := config.DefaultTuning()

	h := NewHold(cfg, 90)
	step := h.Step(85, 0.5, 0)
	assert.Equal(t, 5, step.Error)
	assert.Greater(t, step.Right, step.Left, "target is counter-clockwise so the right side leads")

	h = NewHold(cfg, 90)
	step = h.Step(95, 0.5, 0)
	assert.Equal(t, -5, step.Error)
	assert.Greater(t, step.Left, step.Right)
}

func TestHoldRateDamping(t *testing.T) {
	cfg := config.DefaultTuning()
	h := NewHold(cfg, 0)

	first := h.Step(0, 0.5, 0)
	assert.Equal(t, 0.0, first.Rate)
	assert.Equal(t, 0.5, first.Left)

	// drifting counter-clockwise at 100 deg/s while still on target
	step := h.Step(1, 0.5, tick)
	assert.InDelta(t, 100.0, h.Rate(), 1e-6)
	assert.InDelta(t, -100.0, step.ErrorRate, 1e-6)
	assert.InDelta(t, cfg.YawKp*float64(step.Error)+cfg.YawKd*step.ErrorRate, step.Correction, 1e-9)
	assert.InDelta(t, cfg.YawKp*-1-cfg.YawKd*100, step.Correction, 1e-9)
	assert.Greater(t, step.Left, step.Right)
}

func TestHoldErrorRateAcrossWrap(t *testing.T) {
	cfg := config.DefaultTuning()
	h := NewHold(cfg, 180)

	h.Step(179, 0.5, 0)
	// 179 -> 181 crosses the target; the error goes +1 -> -1
	step := h.Step(181, 0.5, tick)
	assert.Equal(t, -1, step.Error)
	assert.InDelta(t, -2/tick.Seconds(), step.ErrorRate, 1e-6)
	assert.InDelta(t, 2/tick.Seconds(), step.Rate, 1e-6)
	assert.InDelta(t, cfg.YawKp*-1+cfg.YawKd*step.ErrorRate, step.Correction, 1e-9)
}
