package debug

import (
	"fmt"

	"github.com/spaghettifunk/gametemplate/engine/assets/loaders"
	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/math"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

var (
	ColorWhite  = math.Vec4{X: 1, Y: 1, Z: 1, W: 1}
	ColorYellow = math.Vec4{X: 1, Y: 1, Z: 0, W: 1}
)

type queuedString struct {
	x, y  float32
	color math.Vec4
	text  string
}

// DebugFont queues strings during a frame and draws them all in Render, after
// which the queue is empty again.
type DebugFont struct {
	font    *loaders.FontData
	atlas   *Texture
	batch   *SpriteBatch
	strings []queuedString
}

func NewDebugFont(device renderer.Device, shaders ShaderSource, font *loaders.FontData) (*DebugFont, error) {
	if font == nil || font.Atlas == nil {
		return nil, fmt.Errorf("debug font: %w", core.ErrInvalidFont)
	}
	atlas, err := NewTexture(device, font.Atlas)
	if err != nil {
		return nil, fmt.Errorf("debug font atlas: %w", err)
	}
	batch, err := NewSpriteBatch(device, shaders)
	if err != nil {
		atlas.Release()
		return nil, err
	}
	return &DebugFont{font: font, atlas: atlas, batch: batch}, nil
}

// AddString queues text with its top-left corner at (x, y) pixels.
func (df *DebugFont) AddString(x, y float32, color math.Vec4, text string) {
	df.strings = append(df.strings, queuedString{x: x, y: y, color: color, text: text})
}

// AddStringf formats and queues text.
func (df *DebugFont) AddStringf(x, y float32, color math.Vec4, format string, args ...interface{}) {
	df.AddString(x, y, color, fmt.Sprintf(format, args...))
}

// Pending returns the number of queued strings.
func (df *DebugFont) Pending() int {
	return len(df.strings)
}

func (df *DebugFont) LineSpacing() float32 {
	return df.font.LineSpacing
}

func (df *DebugFont) Render(ctx renderer.Context, viewport renderer.Viewport) error {
	if len(df.strings) == 0 {
		return nil
	}
	df.batch.Begin(ctx, viewport)
	for _, s := range df.strings {
		drawText(df.batch, df.font, df.atlas, s.x, s.y, s.color, s.text)
	}
	df.strings = df.strings[:0]
	return df.batch.End()
}

func (df *DebugFont) Release() {
	if df.batch != nil {
		df.batch.Release()
		df.batch = nil
	}
	if df.atlas != nil {
		df.atlas.Release()
		df.atlas = nil
	}
	df.strings = nil
}

func drawText(batch *SpriteBatch, font *loaders.FontData, atlas *Texture, x, y float32, color math.Vec4, text string) {
	font.ForEachGlyph(text, func(g *loaders.Glyph, gx, gy float32) {
		batch.Draw(atlas,
			Rect{X: x + gx, Y: y + gy, W: float32(g.Width), H: float32(g.Height)},
			Rect{X: float32(g.X), Y: float32(g.Y), W: float32(g.Width), H: float32(g.Height)},
			color)
	})
}
