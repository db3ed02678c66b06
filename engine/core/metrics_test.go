package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsAveragesAndFPS(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 60; i++ {
		m.Update(1.0 / 50.0)
	}
	assert.InDelta(t, 20.0, m.FrameTime(), 1e-6)
	assert.Equal(t, 50.0, m.FPS())
}

func TestMetricsFrameTimeIsRolling(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < AVG_COUNT; i++ {
		m.Update(0.010)
	}
	assert.InDelta(t, 10.0, m.FrameTime(), 1e-6)

	// One slow frame moves the average by its share of the window.
	m.Update(0.040)
	assert.InDelta(t, 11.0, m.FrameTime(), 1e-6)
}
