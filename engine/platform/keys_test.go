package platform

import (
	"testing"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/gametemplate/engine/core"
)

func TestTranslateKey(t *testing.T) {
	cases := map[glfw.Key]core.KeyCode{
		glfw.KeyA:         core.KEY_A,
		glfw.KeyW:         core.KEY_W,
		glfw.KeyZ:         core.KEY_Z,
		glfw.Key0:         core.KEY_0,
		glfw.KeyF12:       core.KEY_F12,
		glfw.KeyEscape:    core.KEY_ESCAPE,
		glfw.KeyLeftShift: core.KEY_LSHIFT,
		glfw.KeyPageDown:  core.KEY_NEXT,
	}
	for key, want := range cases {
		got, ok := TranslateKey(key)
		assert.True(t, ok, "key %d", key)
		assert.Equal(t, want, got, "key %d", key)
	}

	_, ok := TranslateKey(glfw.KeyKPEnter)
	assert.False(t, ok)
}
