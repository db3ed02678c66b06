package loaders

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/fzipp/bmfont"
	"github.com/spaghettifunk/gametemplate/engine/core"
)

// BitmapFontLoader imports AngelCode BMFont (.fnt) descriptors. bmfont reads from
// the OS file system, so names are resolved against ResourcePath.
type BitmapFontLoader struct {
	ResourcePath string
}

func (fl *BitmapFontLoader) Load(fsys fs.FS, name string, params interface{}) (*Resource, error) {
	fullPath := name
	if !filepath.IsAbs(name) {
		if fl.ResourcePath == "" {
			return nil, fmt.Errorf("bitmap font %s: no resource path configured", name)
		}
		fullPath = filepath.Join(fl.ResourcePath, filepath.FromSlash(name))
	}
	if _, err := os.Stat(fullPath); err != nil {
		return nil, fmt.Errorf("unable to find bitmap font %s: %w", fullPath, err)
	}

	font, err := fl.importFNTFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fullPath, err)
	}
	return &Resource{
		Name:     font.Face,
		FullPath: fullPath,
		Type:     ResourceTypeBitmapFont,
		DataSize: uint64(len(font.Atlas.Pix)),
		Data:     font,
	}, nil
}

func (fl *BitmapFontLoader) Unload(resource *Resource) error {
	if data, ok := resource.Data.(*FontData); ok {
		data.Glyphs = nil
		data.Kernings = nil
		data.Atlas = nil
	}
	resource.Data = nil
	resource.DataSize = 0
	resource.FullPath = ""
	return nil
}

func (fl *BitmapFontLoader) importFNTFile(fntFileName string) (*FontData, error) {
	font, err := bmfont.Load(fntFileName)
	if err != nil {
		return nil, err
	}
	desc := font.Descriptor
	pageW, pageH := int(desc.Common.ScaleW), int(desc.Common.ScaleH)
	if pageW <= 0 || pageH <= 0 || len(desc.Pages) == 0 {
		return nil, fmt.Errorf("descriptor has no pages: %w", core.ErrInvalidFont)
	}

	// Pages are stacked vertically into one atlas, ordered by page id.
	type page struct {
		id   int
		file string
	}
	pages := make([]page, 0, len(desc.Pages))
	for _, p := range desc.Pages {
		pages = append(pages, page{id: int(p.ID), file: p.File})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].id < pages[j].id })

	atlas := image.NewRGBA(image.Rect(0, 0, pageW, pageH*len(pages)))
	pageOffset := make(map[int]int, len(pages))
	dir := filepath.Dir(fntFileName)
	for i, p := range pages {
		img, err := decodeImageFile(filepath.Join(dir, p.file))
		if err != nil {
			return nil, err
		}
		dst := image.Rect(0, i*pageH, pageW, (i+1)*pageH)
		draw.Draw(atlas, dst, img, img.Bounds().Min, draw.Src)
		pageOffset[p.id] = i * pageH
	}

	out := &FontData{
		Face:        desc.Info.Face,
		Size:        float32(desc.Info.Size),
		LineSpacing: float32(desc.Common.LineHeight),
		Glyphs:      make([]Glyph, 0, len(desc.Chars)),
		Kernings:    make(map[KerningPair]float32, len(desc.Kerning)),
		Atlas:       atlas,
	}
	for _, g := range desc.Chars {
		out.Glyphs = append(out.Glyphs, Glyph{
			Codepoint: rune(g.ID),
			X:         int(g.X),
			Y:         int(g.Y) + pageOffset[int(g.Page)],
			Width:     int(g.Width),
			Height:    int(g.Height),
			XOffset:   float32(g.XOffset),
			YOffset:   float32(g.YOffset),
			Advance:   float32(g.XAdvance),
		})
	}
	for p, k := range desc.Kerning {
		out.Kernings[KerningPair{First: rune(p.First), Second: rune(p.Second)}] = float32(k.Amount)
	}
	out.sortGlyphs()
	if _, ok := out.FindGlyph('?'); ok {
		out.DefaultCharacter = '?'
	}
	return out, nil
}

func decodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return img, nil
}
