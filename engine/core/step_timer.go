package core

import (
	"math"
	"time"
)

// TicksPerSecond is the resolution of the timer. One tick is one nanosecond.
const TicksPerSecond = uint64(time.Second)

// TimeSource returns a monotonic timestamp.
type TimeSource func() time.Duration

func monotonicSource() TimeSource {
	start := time.Now()
	return func() time.Duration { return time.Since(start) }
}

// StepTimer drives the game loop in variable or fixed timestep mode. It is adapted
// from the engine clock and counts frames, total time and frames per second.
type StepTimer struct {
	now TimeSource

	lastTime         time.Duration
	maxDelta         uint64
	elapsed          uint64
	total            uint64
	leftOver         uint64
	frameCount       uint32
	framesPerSecond  uint32
	framesThisSecond uint32
	secondCounter    uint64

	isFixedTimeStep bool
	targetElapsed   uint64
}

// NewStepTimer creates a variable-timestep timer reading the monotonic clock.
func NewStepTimer() *StepTimer {
	return NewStepTimerWithSource(monotonicSource())
}

func NewStepTimerWithSource(now TimeSource) *StepTimer {
	t := &StepTimer{
		now:           now,
		maxDelta:      TicksPerSecond / 10,
		targetElapsed: TicksPerSecond / 60,
	}
	t.lastTime = now()
	return t
}

// ElapsedTicks is the time since the previous Update call.
func (t *StepTimer) ElapsedTicks() uint64 { return t.elapsed }

func (t *StepTimer) ElapsedSeconds() float64 { return TicksToSeconds(t.elapsed) }

// TotalTicks is the time since the timer started, excluding time spent suspended.
func (t *StepTimer) TotalTicks() uint64 { return t.total }

func (t *StepTimer) TotalSeconds() float64 { return TicksToSeconds(t.total) }

// FrameCount is the number of updates since the timer started.
func (t *StepTimer) FrameCount() uint32 { return t.frameCount }

func (t *StepTimer) FramesPerSecond() uint32 { return t.framesPerSecond }

func (t *StepTimer) SetFixedTimeStep(fixed bool) { t.isFixedTimeStep = fixed }

func (t *StepTimer) SetTargetElapsedTicks(ticks uint64) { t.targetElapsed = ticks }

func (t *StepTimer) SetTargetElapsedSeconds(seconds float64) {
	t.targetElapsed = SecondsToTicks(seconds)
}

// ResetElapsedTime drops the time accumulated since the last tick. Call it after an
// intentional pause, such as a suspend, so the next update does not try to catch up.
func (t *StepTimer) ResetElapsedTime() {
	t.lastTime = t.now()
	t.leftOver = 0
	t.framesPerSecond = 0
	t.framesThisSecond = 0
	t.secondCounter = 0
}

// Tick advances the timer and calls update the appropriate number of times.
// In variable mode that is exactly once; in fixed mode it is as many whole steps as
// have accumulated, possibly zero.
func (t *StepTimer) Tick(update func()) {
	current := t.now()
	timeDelta := uint64(0)
	if current > t.lastTime {
		timeDelta = uint64(current - t.lastTime)
	}
	t.lastTime = current
	t.secondCounter += timeDelta

	// Clamp excessively large deltas, e.g. after a debugger break.
	if timeDelta > t.maxDelta {
		timeDelta = t.maxDelta
	}

	lastFrameCount := t.frameCount

	if t.isFixedTimeStep {
		// Snap to the target when within 1/4000 of a second so that small clock drift
		// around a vsync-locked target does not accumulate.
		diff := math.Abs(float64(timeDelta) - float64(t.targetElapsed))
		if diff < float64(TicksPerSecond/4000) {
			timeDelta = t.targetElapsed
		}
		t.leftOver += timeDelta
		for t.targetElapsed > 0 && t.leftOver >= t.targetElapsed {
			t.elapsed = t.targetElapsed
			t.total += t.targetElapsed
			t.leftOver -= t.targetElapsed
			t.frameCount++
			if update != nil {
				update()
			}
		}
	} else {
		t.elapsed = timeDelta
		t.total += timeDelta
		t.leftOver = 0
		t.frameCount++
		if update != nil {
			update()
		}
	}

	if t.frameCount != lastFrameCount {
		t.framesThisSecond++
	}
	if t.secondCounter >= TicksPerSecond {
		t.framesPerSecond = t.framesThisSecond
		t.framesThisSecond = 0
		t.secondCounter %= TicksPerSecond
	}
}

func TicksToSeconds(ticks uint64) float64 {
	return float64(ticks) / float64(TicksPerSecond)
}

func SecondsToTicks(seconds float64) uint64 {
	if seconds <= 0 {
		return 0
	}
	return uint64(seconds * float64(TicksPerSecond))
}
