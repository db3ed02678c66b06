package backends

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

type plainWindow struct{}

func (plainWindow) FramebufferSize() (int, int) { return 1280, 720 }

func TestNewDriverNull(t *testing.T) {
	driver, err := NewDriver("NULL", plainWindow{})
	require.NoError(t, err)
	assert.Equal(t, renderer.Null, driver.Type())
}

func TestNewDriverUnknown(t *testing.T) {
	_, err := NewDriver("metal", plainWindow{})
	assert.ErrorIs(t, err, core.ErrUnsupportedBackend)
}

func TestNewDriverVulkanNeedsSurfaceWindow(t *testing.T) {
	_, err := NewDriver("vulkan", plainWindow{})
	assert.ErrorIs(t, err, core.ErrUnsupportedBackend)
}

func TestNewDriverD3D11OffWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("direct3d 11 is available")
	}
	_, err := NewDriver("d3d11", plainWindow{})
	assert.ErrorIs(t, err, core.ErrUnsupportedBackend)
}
