package loaders

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestSystemFontLoaderRasterizesTTF(t *testing.T) {
	fsys := fstest.MapFS{"fonts/go.ttf": {Data: goregular.TTF}}

	res, err := (&SystemFontLoader{}).Load(fsys, "fonts/go.ttf", SystemFontParams{Size: 16})
	require.NoError(t, err)
	assert.Equal(t, ResourceTypeSystemFont, res.Type)

	font := res.Data.(*FontData)
	assert.Equal(t, "go.ttf", font.Face)
	assert.Equal(t, '?', font.DefaultCharacter)
	assert.Greater(t, font.LineSpacing, float32(10))

	a, ok := font.FindGlyph('A')
	require.True(t, ok)
	assert.Greater(t, a.Width, 0)
	assert.Greater(t, a.Advance, float32(0))

	// Some coverage must have been drawn inside the glyph cell.
	var covered bool
	for y := a.Y; y < a.Y+a.Height; y++ {
		for x := a.X; x < a.X+a.Width; x++ {
			if font.Atlas.RGBAAt(x, y).A > 0 {
				covered = true
			}
		}
	}
	assert.True(t, covered)
}

func TestSystemFontLoaderErrors(t *testing.T) {
	fsys := fstest.MapFS{"bad.ttf": {Data: []byte("garbage")}}
	_, err := (&SystemFontLoader{}).Load(fsys, "bad.ttf", SystemFontParams{Size: 16})
	assert.Error(t, err)

	_, err = (&SystemFontLoader{}).Load(fsys, "missing.ttf", SystemFontParams{Size: 16})
	assert.Error(t, err)

	_, err = (&SystemFontLoader{}).Load(fsys, "bad.ttf", SystemFontParams{Size: 0})
	assert.Error(t, err)
}

func TestFallbackFont(t *testing.T) {
	font := FallbackFont()
	assert.Equal(t, float32(13), font.LineSpacing)

	w, h := font.MeasureString("AB")
	assert.Equal(t, float32(14), w)
	assert.Equal(t, float32(13), h)
}
