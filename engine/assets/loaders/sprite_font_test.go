package loaders

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gametemplate/engine/core"
)

func buildSpriteFont(t *testing.T, glyphs []spriteFontGlyph, tex spriteFontTexture, pixels []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(spriteFontMagic)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32(len(glyphs))))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, glyphs))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, float32(18)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint32('?')))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, tex))
	buf.Write(pixels)
	return buf.Bytes()
}

func sampleSpriteFont(t *testing.T) []byte {
	glyphs := []spriteFontGlyph{
		{Character: 'B', Left: 2, Top: 0, Right: 4, Bottom: 2, XOffset: 1, YOffset: 3, XAdvance: 1},
		{Character: '?', Left: 0, Top: 0, Right: 2, Bottom: 2, XOffset: 0, YOffset: 0, XAdvance: 0},
		{Character: ' ', Left: 0, Top: 0, Right: 0, Bottom: 0, XOffset: 0, YOffset: 0, XAdvance: 4},
	}
	tex := spriteFontTexture{Width: 4, Height: 2, Format: dxgiFormatB8G8R8A8Unorm, Stride: 16, Rows: 2}
	pixels := make([]byte, 32)
	// First texel: blue 0x10, green 0x20, red 0x30, alpha 0x40.
	copy(pixels, []byte{0x10, 0x20, 0x30, 0x40})
	return buildSpriteFont(t, glyphs, tex, pixels)
}

func TestParseSpriteFont(t *testing.T) {
	font, err := ParseSpriteFont(sampleSpriteFont(t))
	require.NoError(t, err)

	assert.Equal(t, float32(18), font.LineSpacing)
	assert.Equal(t, '?', font.DefaultCharacter)
	require.Len(t, font.Glyphs, 3)
	assert.Equal(t, ' ', font.Glyphs[0].Codepoint, "glyphs are sorted")

	b, ok := font.FindGlyph('B')
	require.True(t, ok)
	assert.Equal(t, Glyph{Codepoint: 'B', X: 2, Y: 0, Width: 2, Height: 2, XOffset: 1, YOffset: 3, Advance: 4}, *b)

	fallback, ok := font.FindGlyph('Z')
	require.True(t, ok)
	assert.Equal(t, '?', fallback.Codepoint)

	assert.Equal(t, []uint8{0x30, 0x20, 0x10, 0x40}, font.Atlas.Pix[0:4], "BGRA is swizzled to RGBA")
}

func TestSpriteFontLayout(t *testing.T) {
	font, err := ParseSpriteFont(sampleSpriteFont(t))
	require.NoError(t, err)

	type pos struct {
		r    rune
		x, y float32
	}
	var got []pos
	font.ForEachGlyph("B B\r\nB", func(g *Glyph, x, y float32) {
		got = append(got, pos{g.Codepoint, x, y})
	})
	assert.Equal(t, []pos{{'B', 1, 3}, {'B', 9, 3}, {'B', 1, 21}}, got)

	w, h := font.MeasureString("B B\nB")
	assert.Equal(t, float32(12), w)
	assert.Equal(t, float32(36), h)
}

func TestParseSpriteFontRejectsBadData(t *testing.T) {
	_, err := ParseSpriteFont([]byte("not a font"))
	assert.ErrorIs(t, err, core.ErrInvalidFont)

	data := sampleSpriteFont(t)
	_, err = ParseSpriteFont(data[:len(data)-4])
	assert.ErrorIs(t, err, core.ErrInvalidFont)

	bad := buildSpriteFont(t, nil, spriteFontTexture{Width: 1, Height: 1, Format: 999, Stride: 4, Rows: 1}, make([]byte, 4))
	_, err = ParseSpriteFont(bad)
	assert.ErrorIs(t, err, core.ErrInvalidFont)
}

func TestDecodeB4G4R4A4(t *testing.T) {
	tex := spriteFontTexture{Width: 1, Height: 1, Format: dxgiFormatB4G4R4A4Unorm, Stride: 2, Rows: 1}
	// A=f R=8 G=4 B=0
	img, err := decodeSpriteFontTexture(tex, []byte{0x40, 0xf8})
	require.NoError(t, err)
	assert.Equal(t, []uint8{0x88, 0x44, 0x00, 0xff}, img.Pix)
}

func TestDecodeBC2(t *testing.T) {
	block := make([]byte, 16)
	// Alpha: every texel 0xf.
	for i := 0; i < 8; i++ {
		block[i] = 0xff
	}
	// c0 = pure white (0xffff), c1 = black, all indices 0.
	binary.LittleEndian.PutUint16(block[8:], 0xffff)
	tex := spriteFontTexture{Width: 4, Height: 4, Format: dxgiFormatBC2Unorm, Stride: 16, Rows: 1}

	img, err := decodeSpriteFontTexture(tex, block)
	require.NoError(t, err)
	for i := 0; i < len(img.Pix); i += 4 {
		require.Equal(t, []uint8{0xff, 0xff, 0xff, 0xff}, img.Pix[i:i+4])
	}
}
