//go:build !windows

package backends

import (
	"fmt"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

const d3d11Available = false

func newD3D11Driver() (renderer.Driver, error) {
	return nil, fmt.Errorf("direct3d 11 requires windows: %w", core.ErrUnsupportedBackend)
}
