// Package backends selects a renderer.Driver by name.
package backends

import (
	"fmt"
	"strings"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
	"github.com/spaghettifunk/gametemplate/engine/renderer/null"
	"github.com/spaghettifunk/gametemplate/engine/renderer/vulkan"
)

// NewDriver returns the driver for backend. "auto" picks Direct3D 11 where it
// is available and Vulkan everywhere else.
func NewDriver(backend string, window renderer.Window) (renderer.Driver, error) {
	switch strings.ToLower(backend) {
	case "null":
		return null.NewDriver(), nil
	case "d3d11":
		return newD3D11Driver()
	case "vulkan":
		return newVulkanDriver(window)
	case "", "auto":
		if d3d11Available {
			return newD3D11Driver()
		}
		return newVulkanDriver(window)
	}
	return nil, fmt.Errorf("renderer backend %q: %w", backend, core.ErrUnsupportedBackend)
}

func newVulkanDriver(window renderer.Window) (renderer.Driver, error) {
	vw, ok := window.(renderer.VulkanWindow)
	if !ok {
		return nil, fmt.Errorf("window cannot host a vulkan surface: %w", core.ErrUnsupportedBackend)
	}
	return vulkan.NewDriver(vw)
}
