package loaders

import (
	"image"
	"sort"
	"unicode"
)

// Glyph locates one character in a font atlas. XOffset and YOffset position the
// bitmap relative to the pen and the top of the line; Advance moves the pen.
type Glyph struct {
	Codepoint rune
	X, Y      int
	Width     int
	Height    int
	XOffset   float32
	YOffset   float32
	Advance   float32
}

type KerningPair struct {
	First, Second rune
}

// FontData is a rasterized font: glyph metrics plus a premultiplied RGBA atlas.
type FontData struct {
	Face             string
	Size             float32
	LineSpacing      float32
	DefaultCharacter rune
	// Glyphs is sorted by Codepoint.
	Glyphs   []Glyph
	Kernings map[KerningPair]float32
	Atlas    *image.RGBA
}

func (f *FontData) sortGlyphs() {
	sort.Slice(f.Glyphs, func(i, j int) bool { return f.Glyphs[i].Codepoint < f.Glyphs[j].Codepoint })
}

// FindGlyph returns the glyph for r, falling back to the default character.
func (f *FontData) FindGlyph(r rune) (*Glyph, bool) {
	if g := f.lookup(r); g != nil {
		return g, true
	}
	if f.DefaultCharacter != 0 {
		if g := f.lookup(f.DefaultCharacter); g != nil {
			return g, true
		}
	}
	return nil, false
}

func (f *FontData) lookup(r rune) *Glyph {
	i := sort.Search(len(f.Glyphs), func(i int) bool { return f.Glyphs[i].Codepoint >= r })
	if i < len(f.Glyphs) && f.Glyphs[i].Codepoint == r {
		return &f.Glyphs[i]
	}
	return nil
}

// ForEachGlyph lays out text starting at the origin and calls fn with the top-left
// corner of every visible glyph. Newlines start a new line; carriage returns are
// skipped; characters without a glyph and no default character are skipped.
func (f *FontData) ForEachGlyph(text string, fn func(g *Glyph, x, y float32)) {
	var x, y float32
	var prev rune
	for _, r := range text {
		switch r {
		case '\r':
			continue
		case '\n':
			x = 0
			y += f.LineSpacing
			prev = 0
			continue
		}
		g, ok := f.FindGlyph(r)
		if !ok {
			continue
		}
		if prev != 0 && f.Kernings != nil {
			x += f.Kernings[KerningPair{prev, r}]
		}
		if !unicode.IsSpace(r) && g.Width > 0 && g.Height > 0 {
			fn(g, x+g.XOffset, y+g.YOffset)
		}
		x += g.Advance
		prev = r
	}
}

// MeasureString returns the size of the laid out text.
func (f *FontData) MeasureString(text string) (width, height float32) {
	var x float32
	lines := 1
	var prev rune
	for _, r := range text {
		switch r {
		case '\r':
			continue
		case '\n':
			lines++
			x = 0
			prev = 0
			continue
		}
		g, ok := f.FindGlyph(r)
		if !ok {
			continue
		}
		if prev != 0 && f.Kernings != nil {
			x += f.Kernings[KerningPair{prev, r}]
		}
		x += g.Advance
		if x > width {
			width = x
		}
		prev = r
	}
	return width, float32(lines) * f.LineSpacing
}
