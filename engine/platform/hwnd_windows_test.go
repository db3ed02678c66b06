//go:build windows

package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

func TestWindowImplementsWin32Window(t *testing.T) {
	var w interface{} = &Window{}
	_, ok := w.(renderer.Win32Window)
	assert.True(t, ok)
}
