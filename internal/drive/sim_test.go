package drive_test

import (
	"testing"
	"time"

	"github.com/shibu-robo/shibu_drive/internal/command/sim"
	"github.com/shibu-robo/shibu_drive/internal/config"
	"github.com/shibu-robo/shibu_drive/internal/drive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSimController(heading, drift float64) (*drive.Controller, *sim.Base) {
	clock := sim.NewClock()
	wiring := drive.DefaultWiring()
	base := sim.NewBase(clock, wiring, sim.Options{Heading: heading, Drift: drift})

	c := drive.NewController(config.DefaultTuning(), wiring, base, base)
	c.SetClock(clock)
	return c, base
}

func TestRotateConvergesOnSimBase(t *testing.T) {
	tests := []struct {
		start float64
		delta int
	}{
		{350, 90},
		{0, -90},
		{10, 179},
		{200, -45},
		{0, 15},
		{100, 5},
	}

	for _, tt := range tests {
		c, _ := newSimController(tt.start, 0)
		require.NoError(t, c.Init())

		result, err := c.Rotate(tt.delta)
		require.NoError(t, err)
		assert.Equal(t, drive.TurnBrake, result.Outcome, "start %.0f delta %d", tt.start, tt.delta)
		assert.LessOrEqual(t, abs(drive.ShortestError(result.Target, result.Final)), config.DefaultDeadband,
			"start %.0f delta %d final %d", tt.start, tt.delta, result.Final)
		assert.Less(t, result.Elapsed, config.DefaultRotateTimeout)
	}
}

func TestMoveHoldsHeadingAgainstDrift(t *testing.T) {
	for _, drift := range []float64{0, 20, -30} {
		c, base := newSimController(45, drift)
		require.NoError(t, c.Init())

		result, err := c.Move(2 * time.Second)
		require.NoError(t, err)
		assert.Equal(t, 45, result.Target)
		assert.Equal(t, 200, result.Ticks)

		heading, err := base.Heading()
		require.NoError(t, err)
		assert.LessOrEqual(t, abs(drive.ShortestError(45, heading)), 6, "drift %.0f heading %d", drift, heading)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
