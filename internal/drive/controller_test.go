package drive

import (
	"errors"
	"testing"
	"time"

	"github.com/shibu-robo/shibu_drive/internal/config"
	"github.com/shibu-robo/shibu_drive/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Sleep(d time.Duration) {
	f.slept = append(f.slept, d)
	f.now = f.now.Add(d)
}

// scriptedSensor replays headings and then repeats the last one.
type scriptedSensor struct {
	headings []int
	reads    int
	failAt   int
}

func (s *scriptedSensor) Heading() (int, error) {
	s.reads++
	if s.failAt > 0 && s.reads >= s.failAt {
		return 0, errors.New("bus timeout")
	}
	i := s.reads - 1
	if i >= len(s.headings) {
		i = len(s.headings) - 1
	}
	return s.headings[i], nil
}

type driverCall struct {
	kind     string
	commands []WheelCommand
}

type recordingDriver struct {
	calls   []driverCall
	failSet error
}

func (r *recordingDriver) Init() error {
	r.calls = append(r.calls, driverCall{kind: "init"})
	return nil
}

func (r *recordingDriver) Set(cmd WheelCommand) error {
	return r.SetMany([]WheelCommand{cmd})
}

func (r *recordingDriver) SetMany(cmds []WheelCommand) error {
	if r.failSet != nil {
		return r.failSet
	}
	r.calls = append(r.calls, driverCall{kind: "set", commands: append([]WheelCommand(nil), cmds...)})
	return nil
}

func (r *recordingDriver) Release() error {
	r.calls = append(r.calls, driverCall{kind: "release"})
	return nil
}

func (r *recordingDriver) Stop() error {
	r.calls = append(r.calls, driverCall{kind: "stop"})
	return nil
}

func (r *recordingDriver) sets() []driverCall {
	sets := make([]driverCall, 0, len(r.calls))
	for _, call := range r.calls {
		if call.kind == "set" {
			sets = append(sets, call)
		}
	}
	return sets
}

func (r *recordingDriver) last() driverCall {
	if len(r.calls) == 0 {
		return driverCall{}
	}
	return r.calls[len(r.calls)-1]
}

func newTestController(headings ...int) (*Controller, *recordingDriver, *scriptedSensor, *fakeClock) {
	driver := &recordingDriver{}
	sensor := &scriptedSensor{headings: headings}
	clock := newFakeClock()
	c := NewController(config.DefaultTuning(), DefaultWiring(), driver, sensor)
	c.SetClock(clock)
	return c, driver, sensor, clock
}

func TestRotateNoTurnIssuesNoMotorCommand(t *testing.T) {
	c, driver, _, _ := newTestController(45)

	result, err := c.Rotate(360)
	require.NoError(t, err)
	assert.Equal(t, TurnStop, result.Outcome)
	assert.Equal(t, 45, result.Target)
	assert.Empty(t, driver.sets())
	assert.Equal(t, "release", driver.last().kind)
}

func TestRotateSettlesAndBrakes(t *testing.T) {
	c, driver, _, clock := newTestController(350, 79, 81, 80, 80, 80, 80, 80)

	result, err := c.Rotate(90)
	require.NoError(t, err)
	assert.Equal(t, TurnBrake, result.Outcome)
	assert.Equal(t, 350, result.Start)
	assert.Equal(t, 80, result.Target)
	assert.Equal(t, 80, result.Final)
	assert.Equal(t, 7, result.Ticks)

	sets := driver.sets()
	require.Len(t, sets, 2)

	// the first tick spins counter-clockwise at full clamp
	for _, cmd := range sets[0].commands {
		if cmd.Wheel.Left() {
			assert.Equal(t, Forward, cmd.Direction)
		} else {
			assert.Equal(t, Reverse, cmd.Direction)
		}
		assert.InDelta(t, 0.80, cmd.Speed, 1e-9)
	}

	// the heading is still in the last samples so the brake counters the last drive
	for _, cmd := range sets[1].commands {
		if cmd.Wheel.Left() {
			assert.Equal(t, Reverse, cmd.Direction)
		} else {
			assert.Equal(t, Forward, cmd.Direction)
		}
		assert.InDelta(t, 0.25, cmd.Speed, 1e-9)
	}

	assert.Equal(t, "release", driver.last().kind)
	assert.InDelta(t, float64(60*time.Millisecond), float64(clock.slept[len(clock.slept)-1]), float64(time.Microsecond))
}

func TestRotateTimesOut(t *testing.T) {
	c, driver, _, _ := newTestController(0)

	result, err := c.Rotate(90)
	require.NoError(t, err)
	assert.Equal(t, TurnTimeout, result.Outcome)
	assert.GreaterOrEqual(t, result.Elapsed, config.DefaultRotateTimeout)
	assert.Equal(t, 801, result.Ticks)
	assert.Equal(t, "release", driver.last().kind)
}

func TestRotateSensorFailureReleases(t *testing.T) {
	c, driver, sensor, _ := newTestController(0, 10, 20)
	sensor.failAt = 3

	_, err := c.Rotate(90)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSensor)
	assert.Equal(t, "release", driver.last().kind)
}

func TestRotateActuatorFailure(t *testing.T) {
	c, driver, _, _ := newTestController(0)
	driver.failSet = errors.New("i2c nack")

	_, err := c.Rotate(90)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrActuator)
	assert.Equal(t, "release", driver.last().kind)
}

func TestMoveZeroDurationIsNoop(t *testing.T) {
	c, driver, sensor, _ := newTestController(0)

	result, err := c.Move(0)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Ticks)
	assert.Empty(t, driver.calls)
	assert.Equal(t, 0, sensor.reads)
}

func TestMoveStraight(t *testing.T) {
	c, driver, _, clock := newTestController(200)

	result, err := c.Move(100 * time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, 200, result.Target)
	assert.Equal(t, 10, result.Ticks)

	sets := driver.sets()
	require.Len(t, sets, 11)

	for i, set := range sets[:10] {
		require.Len(t, set.commands, 4)
		speed := set.commands[0].Speed
		for _, cmd := range set.commands {
			assert.Equal(t, Reverse, cmd.Direction, "tick %d drives electrical reverse", i)
			assert.InDelta(t, speed, cmd.Speed, 1e-9)
		}
		assert.GreaterOrEqual(t, speed, config.DefaultMinSpeed)
		assert.LessOrEqual(t, speed, config.DefaultCruiseSpeed)
	}

	brake := sets[10]
	for _, cmd := range brake.commands {
		assert.Equal(t, Forward, cmd.Direction)
		assert.InDelta(t, 0.25, cmd.Speed, 1e-9)
	}
	assert.Equal(t, "release", driver.last().kind)
	assert.InDelta(t, float64(60*time.Millisecond), float64(clock.slept[len(clock.slept)-1]), float64(time.Microsecond))
}

func TestMoveCorrectsDrift(t *testing.T) {
	c, driver, _, _ := newTestController(0, 0, 355, 355, 355)

	_, err := c.Move(50 * time.Millisecond)
	require.NoError(t, err)

	sets := driver.sets()
	require.GreaterOrEqual(t, len(sets), 3)

	var left, right float64
	for _, cmd := range sets[2].commands {
		if cmd.Wheel.Left() {
			left = cmd.Speed
		} else {
			right = cmd.Speed
		}
	}
	assert.Greater(t, right, left, "heading fell clockwise so the right side leads")
}

func TestMoveSensorFailureReleases(t *testing.T) {
	c, driver, sensor, _ := newTestController(0)
	sensor.failAt = 4

	_, err := c.Move(time.Second)
	assert.ErrorIs(t, err, ErrSensor)
	assert.Equal(t, "release", driver.last().kind)
}

func TestExecuteRunsRotateThenMove(t *testing.T) {
	c, driver, _, _ := newTestController(10)

	rotateResult, moveResult, err := c.Execute(models.Command{Rotation: 0, DurationMs: 30})
	require.NoError(t, err)
	assert.Equal(t, TurnStop, rotateResult.Outcome)
	assert.Equal(t, 3, moveResult.Ticks)
	assert.Equal(t, 10, moveResult.Target)
	assert.Len(t, driver.sets(), 4)
}

func TestHaltStopsDriver(t *testing.T) {
	c, driver, _, _ := newTestController(0)

	require.NoError(t, c.Halt())
	require.Len(t, driver.calls, 2)
	assert.Equal(t, "release", driver.calls[0].kind)
	assert.Equal(t, "stop", driver.calls[1].kind)
}
