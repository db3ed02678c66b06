package loaders

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"io"
	"io/fs"
	"path"

	"github.com/spaghettifunk/gametemplate/engine/core"
)

const spriteFontMagic = "DXTKfont"

// DXGI formats that MakeSpriteFont emits.
const (
	dxgiFormatR8G8B8A8Unorm = 28
	dxgiFormatBC2Unorm      = 74
	dxgiFormatB8G8R8A8Unorm = 87
	dxgiFormatB4G4R4A4Unorm = 115
)

// SpriteFontLoader reads the binary .spritefont files produced by MakeSpriteFont.
type SpriteFontLoader struct{}

type spriteFontGlyph struct {
	Character uint32
	Left      int32
	Top       int32
	Right     int32
	Bottom    int32
	XOffset   float32
	YOffset   float32
	XAdvance  float32
}

type spriteFontTexture struct {
	Width  uint32
	Height uint32
	Format uint32
	Stride uint32
	Rows   uint32
}

func (sl *SpriteFontLoader) Load(fsys fs.FS, name string, params interface{}) (*Resource, error) {
	data, err := readFile(fsys, name)
	if err != nil {
		return nil, err
	}
	font, err := ParseSpriteFont(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	font.Face = path.Base(name)
	return &Resource{
		Name:     font.Face,
		FullPath: name,
		Type:     ResourceTypeSpriteFont,
		DataSize: uint64(len(data)),
		Data:     font,
	}, nil
}

func (sl *SpriteFontLoader) Unload(resource *Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// ParseSpriteFont decodes a .spritefont image into glyph metrics and an RGBA atlas.
func ParseSpriteFont(data []byte) (*FontData, error) {
	r := bytes.NewReader(data)

	magic := make([]byte, len(spriteFontMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != spriteFontMagic {
		return nil, fmt.Errorf("missing %q header: %w", spriteFontMagic, core.ErrInvalidFont)
	}

	var glyphCount uint32
	if err := binary.Read(r, binary.LittleEndian, &glyphCount); err != nil {
		return nil, fmt.Errorf("reading glyph count: %w", core.ErrInvalidFont)
	}
	// 32 bytes per glyph; reject counts the remaining data cannot hold.
	if uint64(glyphCount)*32 > uint64(r.Len()) {
		return nil, fmt.Errorf("glyph count %d exceeds file size: %w", glyphCount, core.ErrInvalidFont)
	}
	raw := make([]spriteFontGlyph, glyphCount)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, fmt.Errorf("reading glyphs: %w", core.ErrInvalidFont)
	}

	var lineSpacing float32
	var defaultChar uint32
	var tex spriteFontTexture
	if err := binary.Read(r, binary.LittleEndian, &lineSpacing); err != nil {
		return nil, fmt.Errorf("reading line spacing: %w", core.ErrInvalidFont)
	}
	if err := binary.Read(r, binary.LittleEndian, &defaultChar); err != nil {
		return nil, fmt.Errorf("reading default character: %w", core.ErrInvalidFont)
	}
	if err := binary.Read(r, binary.LittleEndian, &tex); err != nil {
		return nil, fmt.Errorf("reading texture header: %w", core.ErrInvalidFont)
	}
	size := uint64(tex.Stride) * uint64(tex.Rows)
	if size > uint64(r.Len()) {
		return nil, fmt.Errorf("texture data truncated: %w", core.ErrInvalidFont)
	}
	pixels := make([]byte, size)
	if _, err := io.ReadFull(r, pixels); err != nil {
		return nil, fmt.Errorf("reading texture data: %w", core.ErrInvalidFont)
	}

	atlas, err := decodeSpriteFontTexture(tex, pixels)
	if err != nil {
		return nil, err
	}

	font := &FontData{
		LineSpacing:      lineSpacing,
		DefaultCharacter: rune(defaultChar),
		Glyphs:           make([]Glyph, len(raw)),
		Atlas:            atlas,
	}
	for i, g := range raw {
		w := g.Right - g.Left
		h := g.Bottom - g.Top
		font.Glyphs[i] = Glyph{
			Codepoint: rune(g.Character),
			X:         int(g.Left),
			Y:         int(g.Top),
			Width:     int(w),
			Height:    int(h),
			XOffset:   g.XOffset,
			YOffset:   g.YOffset,
			Advance:   g.XOffset + float32(w) + g.XAdvance,
		}
	}
	font.sortGlyphs()
	return font, nil
}

func decodeSpriteFontTexture(tex spriteFontTexture, pixels []byte) (*image.RGBA, error) {
	w, h := int(tex.Width), int(tex.Height)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	stride := int(tex.Stride)

	switch tex.Format {
	case dxgiFormatR8G8B8A8Unorm, dxgiFormatB8G8R8A8Unorm:
		if stride < w*4 || int(tex.Rows) < h {
			return nil, fmt.Errorf("texture stride %d too small: %w", stride, core.ErrInvalidFont)
		}
		for y := 0; y < h; y++ {
			src := pixels[y*stride : y*stride+w*4]
			dst := img.Pix[y*img.Stride : y*img.Stride+w*4]
			copy(dst, src)
			if tex.Format == dxgiFormatB8G8R8A8Unorm {
				for i := 0; i < len(dst); i += 4 {
					dst[i], dst[i+2] = dst[i+2], dst[i]
				}
			}
		}
	case dxgiFormatB4G4R4A4Unorm:
		if stride < w*2 || int(tex.Rows) < h {
			return nil, fmt.Errorf("texture stride %d too small: %w", stride, core.ErrInvalidFont)
		}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				v := binary.LittleEndian.Uint16(pixels[y*stride+x*2:])
				o := y*img.Stride + x*4
				img.Pix[o+0] = expand4(v >> 8)
				img.Pix[o+1] = expand4(v >> 4)
				img.Pix[o+2] = expand4(v)
				img.Pix[o+3] = expand4(v >> 12)
			}
		}
	case dxgiFormatBC2Unorm:
		blocksW, blocksH := (w+3)/4, (h+3)/4
		if stride < blocksW*16 || int(tex.Rows) < blocksH {
			return nil, fmt.Errorf("texture stride %d too small: %w", stride, core.ErrInvalidFont)
		}
		for by := 0; by < blocksH; by++ {
			for bx := 0; bx < blocksW; bx++ {
				decodeBC2Block(pixels[by*stride+bx*16:], img, bx*4, by*4)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported texture format %d: %w", tex.Format, core.ErrInvalidFont)
	}
	return img, nil
}

func expand4(v uint16) uint8 {
	n := uint8(v & 0xf)
	return n<<4 | n
}

func expand565(c uint16) [3]uint8 {
	r := uint8(c >> 11 & 0x1f)
	g := uint8(c >> 5 & 0x3f)
	b := uint8(c & 0x1f)
	return [3]uint8{r<<3 | r>>2, g<<2 | g>>4, b<<3 | b>>2}
}

// decodeBC2Block writes one 4x4 block: 64 bits of explicit 4-bit alpha followed by
// a four-colour BC1 block.
func decodeBC2Block(block []byte, img *image.RGBA, x0, y0 int) {
	alpha := binary.LittleEndian.Uint64(block[0:8])
	c0 := binary.LittleEndian.Uint16(block[8:10])
	c1 := binary.LittleEndian.Uint16(block[10:12])
	indices := binary.LittleEndian.Uint32(block[12:16])

	var palette [4][3]uint8
	palette[0] = expand565(c0)
	palette[1] = expand565(c1)
	for i := 0; i < 3; i++ {
		a, b := uint16(palette[0][i]), uint16(palette[1][i])
		palette[2][i] = uint8((2*a + b) / 3)
		palette[3][i] = uint8((a + 2*b) / 3)
	}

	bounds := img.Bounds()
	for py := 0; py < 4; py++ {
		for px := 0; px < 4; px++ {
			x, y := x0+px, y0+py
			if x >= bounds.Max.X || y >= bounds.Max.Y {
				continue
			}
			n := py*4 + px
			c := palette[(indices>>(2*n))&3]
			o := y*img.Stride + x*4
			img.Pix[o+0] = c[0]
			img.Pix[o+1] = c[1]
			img.Pix[o+2] = c[2]
			img.Pix[o+3] = expand4(uint16(alpha >> (4 * n)))
		}
	}
}
