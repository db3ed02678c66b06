package loaders

import (
	"fmt"
	"image"
	"io/fs"
	"path"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// SystemFontParams selects the pixel size a TrueType or OpenType font is rasterized at.
type SystemFontParams struct {
	Size float64
	// Runes lists the characters to rasterize. Empty means printable ASCII.
	Runes []rune
}

// SystemFontLoader rasterizes a TrueType/OpenType font (or the first face of a
// collection) into a FontData atlas.
type SystemFontLoader struct{}

func (fl *SystemFontLoader) Load(fsys fs.FS, name string, params interface{}) (*Resource, error) {
	p := SystemFontParams{Size: 16}
	if typed, ok := params.(SystemFontParams); ok {
		p = typed
	}
	if p.Size <= 0 {
		return nil, fmt.Errorf("system font %s: invalid size %v", name, p.Size)
	}

	fontBytes, err := readFile(fsys, name)
	if err != nil {
		return nil, err
	}

	var parsed *opentype.Font
	if strings.EqualFold(path.Ext(name), ".ttc") || strings.EqualFold(path.Ext(name), ".otc") {
		collection, err := opentype.ParseCollection(fontBytes)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", name, err)
		}
		if parsed, err = collection.Font(0); err != nil {
			return nil, fmt.Errorf("reading first face of %s: %w", name, err)
		}
	} else if parsed, err = opentype.Parse(fontBytes); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    p.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("creating face for %s: %w", name, err)
	}
	defer face.Close()

	data := RasterizeFace(face, p.Runes)
	data.Face = path.Base(name)
	data.Size = float32(p.Size)
	return &Resource{
		Name:     data.Face,
		FullPath: name,
		Type:     ResourceTypeSystemFont,
		DataSize: uint64(len(data.Atlas.Pix)),
		Data:     data,
	}, nil
}

func (fl *SystemFontLoader) Unload(resource *Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// FallbackFont rasterizes the built-in 7x13 bitmap face.
func FallbackFont() *FontData {
	data := RasterizeFace(basicfont.Face7x13, nil)
	data.Face = "basicfont 7x13"
	data.Size = 13
	return data
}

func printableASCII() []rune {
	runes := make([]rune, 0, 95)
	for r := rune(32); r < 127; r++ {
		runes = append(runes, r)
	}
	return runes
}

// RasterizeFace draws every rune of runes into a white premultiplied atlas. Runes
// the face has no glyph for are left out; '?' becomes the default character.
func RasterizeFace(face font.Face, runes []rune) *FontData {
	if len(runes) == 0 {
		runes = printableASCII()
	}
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	lineHeight := metrics.Height.Ceil()
	if lineHeight <= 0 {
		lineHeight = (metrics.Ascent + metrics.Descent).Ceil()
	}

	const atlasWidth = 512
	const padding = 1

	type placed struct {
		glyph  Glyph
		bounds fixed.Rectangle26_6
	}
	items := make([]placed, 0, len(runes))

	x, y, rowHeight := padding, padding, 0
	for _, r := range runes {
		bounds, advance, ok := face.GlyphBounds(r)
		if !ok {
			continue
		}
		w := (bounds.Max.X - bounds.Min.X).Ceil()
		h := (bounds.Max.Y - bounds.Min.Y).Ceil()
		if x+w+padding > atlasWidth {
			x = padding
			y += rowHeight + padding
			rowHeight = 0
		}
		items = append(items, placed{
			glyph: Glyph{
				Codepoint: r,
				X:         x,
				Y:         y,
				Width:     w,
				Height:    h,
				XOffset:   float32(bounds.Min.X.Floor()),
				YOffset:   float32(ascent + bounds.Min.Y.Floor()),
				Advance:   float32(advance.Round()),
			},
			bounds: bounds,
		})
		x += w + padding
		if h > rowHeight {
			rowHeight = h
		}
	}

	atlasHeight := nextPowerOfTwo(y + rowHeight + padding)
	atlas := image.NewRGBA(image.Rect(0, 0, atlasWidth, atlasHeight))
	drawer := &font.Drawer{Dst: atlas, Src: image.White, Face: face}

	out := &FontData{
		LineSpacing: float32(lineHeight),
		Glyphs:      make([]Glyph, 0, len(items)),
		Atlas:       atlas,
	}
	for _, it := range items {
		g := it.glyph
		if g.Width > 0 && g.Height > 0 {
			// Put the glyph's bounding box origin at the cell's top-left corner.
			drawer.Dot = fixed.Point26_6{
				X: fixed.I(g.X) - fixed.I(it.bounds.Min.X.Floor()),
				Y: fixed.I(g.Y) - fixed.I(it.bounds.Min.Y.Floor()),
			}
			drawer.DrawString(string(g.Codepoint))
		}
		out.Glyphs = append(out.Glyphs, g)
	}
	out.sortGlyphs()
	if _, ok := out.FindGlyph('?'); ok {
		out.DefaultCharacter = '?'
	}
	return out
}

func nextPowerOfTwo(v int) int {
	n := 1
	for n < v {
		n <<= 1
	}
	return n
}
