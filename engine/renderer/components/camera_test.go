package components

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/math"
)

func TestDefaultCameraView(t *testing.T) {
	c := NewDebugCamera()
	assert.True(t, c.Eye().Compare(math.NewVec3(0, 0, 5), 1e-6))

	want := math.NewMat4View(math.NewVec3(0, 0, 5), math.NewVec3Zero(), math.NewVec3Up())
	assert.Equal(t, want, c.GetView())
	assert.False(t, c.IsDirty)
}

func TestCameraUpdateWithoutInputIsStable(t *testing.T) {
	c := NewDebugCamera()
	before := c.GetView()
	c.Update(core.NewInputState(nil), 0.016)
	assert.Equal(t, before, c.GetView())
}

func TestCameraPitchIsClamped(t *testing.T) {
	c := NewDebugCamera()
	c.Rotate(0, 10)
	assert.Equal(t, PITCH_LIMIT, c.Pitch)
	c.Rotate(0, -20)
	assert.Equal(t, -PITCH_LIMIT, c.Pitch)
}

func TestCameraKeyboardMovesTarget(t *testing.T) {
	c := NewDebugCamera()
	in := core.NewInputState(nil)
	in.ProcessKey(core.KEY_W, true)

	c.Update(in, 1)
	assert.True(t, c.Target.Compare(math.NewVec3(0, 0, -5), 1e-5))
	assert.True(t, c.Eye().Compare(math.NewVec3(0, 0, 0), 1e-5))
}

func TestCameraDragRotatesAndWheelZooms(t *testing.T) {
	c := NewDebugCamera()
	in := core.NewInputState(nil)
	in.ProcessButton(core.BUTTON_LEFT, true)
	in.Update(0)
	in.ProcessMouseMove(0, 50)
	in.ProcessMouseWheel(2)

	c.Update(in, 0.016)
	assert.InDelta(t, 0.5, c.Pitch, 1e-6)
	assert.InDelta(t, 4.0, c.Distance, 1e-6)
}
