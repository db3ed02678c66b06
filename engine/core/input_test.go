package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInputStateKeyTransitions(t *testing.T) {
	bus := NewEventBus()
	var pressed []KeyCode
	bus.Register(EVENT_CODE_KEY_PRESSED, nil, func(ctx EventContext, _, _ interface{}) bool {
		pressed = append(pressed, ctx.Data.(*KeyEvent).KeyCode)
		return false
	})

	in := NewInputState(bus)
	in.ProcessKey(KEY_W, true)
	in.ProcessKey(KEY_W, true)

	assert.True(t, in.IsKeyDown(KEY_W))
	assert.False(t, in.WasKeyDown(KEY_W))
	assert.Equal(t, []KeyCode{KEY_W}, pressed)

	in.Update(0.016)
	assert.True(t, in.WasKeyDown(KEY_W))

	in.ProcessKey(KEY_W, false)
	assert.True(t, in.IsKeyUp(KEY_W))
}

func TestInputStateMouseDeltas(t *testing.T) {
	in := NewInputState(nil)
	in.ProcessMouseMove(10, 20)
	in.ProcessMouseWheel(1)
	in.Update(0)

	in.ProcessMouseMove(15, 18)
	in.ProcessMouseWheel(-1)
	in.ProcessMouseWheel(-1)

	dx, dy := in.MouseDelta()
	assert.Equal(t, int32(5), dx)
	assert.Equal(t, int32(-2), dy)
	assert.Equal(t, int32(-2), in.WheelDelta())
}

func TestInputStateIgnoresOutOfRange(t *testing.T) {
	in := NewInputState(nil)
	in.ProcessButton(BUTTON_MAX_BUTTONS, true)
	in.ProcessKey(KEYS_MAX_KEYS, true)
	assert.False(t, in.IsButtonDown(BUTTON_MAX_BUTTONS))
	assert.False(t, in.IsKeyDown(KEYS_MAX_KEYS))
}
