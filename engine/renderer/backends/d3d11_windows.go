//go:build windows

package backends

import (
	"github.com/spaghettifunk/gametemplate/engine/renderer"
	"github.com/spaghettifunk/gametemplate/engine/renderer/d3d11"
)

const d3d11Available = true

func newD3D11Driver() (renderer.Driver, error) {
	return d3d11.NewDriver()
}
