package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Duration
}

func (c *fakeClock) source() TimeSource {
	return func() time.Duration { return c.now }
}

func TestStepTimerVariableStepCallsUpdateOnce(t *testing.T) {
	clock := &fakeClock{}
	timer := NewStepTimerWithSource(clock.source())
	require.Equal(t, uint32(0), timer.FrameCount())

	calls := 0
	clock.now += 16 * time.Millisecond
	timer.Tick(func() { calls++ })

	assert.Equal(t, 1, calls)
	assert.Equal(t, uint32(1), timer.FrameCount())
	assert.InDelta(t, 0.016, timer.ElapsedSeconds(), 1e-9)
	assert.InDelta(t, 0.016, timer.TotalSeconds(), 1e-9)
}

func TestStepTimerClampsLargeDeltas(t *testing.T) {
	clock := &fakeClock{}
	timer := NewStepTimerWithSource(clock.source())

	clock.now += 5 * time.Second
	timer.Tick(nil)

	assert.InDelta(t, 0.1, timer.ElapsedSeconds(), 1e-9)
}

func TestStepTimerFixedStepAccumulates(t *testing.T) {
	clock := &fakeClock{}
	timer := NewStepTimerWithSource(clock.source())
	timer.SetFixedTimeStep(true)
	timer.SetTargetElapsedTicks(uint64(10 * time.Millisecond))

	calls := 0
	clock.now += 5 * time.Millisecond
	timer.Tick(func() { calls++ })
	assert.Equal(t, 0, calls)
	assert.Equal(t, uint32(0), timer.FrameCount())

	clock.now += 25 * time.Millisecond
	timer.Tick(func() { calls++ })
	assert.Equal(t, 3, calls)
	assert.Equal(t, uint32(3), timer.FrameCount())
	assert.Equal(t, uint64(10*time.Millisecond), timer.ElapsedTicks())
}

func TestStepTimerFixedStepSnapsNearTarget(t *testing.T) {
	clock := &fakeClock{}
	timer := NewStepTimerWithSource(clock.source())
	timer.SetFixedTimeStep(true)
	timer.SetTargetElapsedTicks(uint64(10 * time.Millisecond))

	clock.now += 10*time.Millisecond - 100*time.Microsecond
	calls := 0
	timer.Tick(func() { calls++ })
	assert.Equal(t, 1, calls)
}

func TestStepTimerResetElapsedTime(t *testing.T) {
	clock := &fakeClock{}
	timer := NewStepTimerWithSource(clock.source())

	clock.now += 50 * time.Millisecond
	timer.ResetElapsedTime()
	clock.now += 10 * time.Millisecond
	timer.Tick(nil)

	assert.InDelta(t, 0.010, timer.ElapsedSeconds(), 1e-9)
}

func TestStepTimerFramesPerSecond(t *testing.T) {
	clock := &fakeClock{}
	timer := NewStepTimerWithSource(clock.source())
	for i := 0; i < 20; i++ {
		clock.now += 50 * time.Millisecond
		timer.Tick(nil)
	}
	assert.Equal(t, uint32(20), timer.FramesPerSecond())
}
