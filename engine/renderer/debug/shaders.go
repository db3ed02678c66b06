// Package debug draws the development overlays: a grid floor, a sprite font and a
// small immediate mode UI panel.
package debug

// ShaderSource returns compiled shader bytecode for the active backend by name,
// e.g. "GridVS".
type ShaderSource interface {
	Shader(name string) ([]byte, error)
}

const (
	GRID_VS   = "GridVS"
	GRID_PS   = "GridPS"
	SPRITE_VS = "SpriteVS"
	SPRITE_PS = "SpritePS"
)
