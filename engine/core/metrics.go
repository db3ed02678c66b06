package core

import "github.com/spaghettifunk/gametemplate/engine/containers"

const AVG_COUNT = 30

// Metrics keeps a rolling frame-time average over the last AVG_COUNT frames and
// a once-per-second FPS sample.
type Metrics struct {
	msTimes            *containers.RingQueue[float64]
	msAvg              float64
	frames             int32
	accumulatedFrameMS float64
	fps                float64
}

func NewMetrics() *Metrics {
	return &Metrics{msTimes: containers.NewRingQueue[float64](AVG_COUNT)}
}

func (m *Metrics) Update(frameElapsedTime float64) {
	frameMS := frameElapsedTime * 1000.0
	m.msTimes.Push(frameMS)

	var total float64
	m.msTimes.Each(func(ms float64) { total += ms })
	m.msAvg = total / float64(m.msTimes.Len())

	m.accumulatedFrameMS += frameMS
	m.frames++
	if m.accumulatedFrameMS >= 1000 {
		m.fps = float64(m.frames)
		m.accumulatedFrameMS -= 1000
		m.frames = 0
	}
}

func (m *Metrics) FPS() float64 {
	return m.fps
}

// FrameTime returns the average frame time in milliseconds.
func (m *Metrics) FrameTime() float64 {
	return m.msAvg
}
