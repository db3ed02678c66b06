package debug

import (
	"fmt"
	"image"
	"image/color"

	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

// Texture is a sampled RGBA texture with its shader resource view.
type Texture struct {
	texture renderer.Texture2D
	view    renderer.ShaderResourceView
	Width   int
	Height  int
}

// NewTexture uploads a premultiplied RGBA image.
func NewTexture(device renderer.Device, img *image.RGBA) (*Texture, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty texture %dx%d", w, h)
	}
	pixels := img.Pix
	if img.Stride != w*4 || b.Min != (image.Point{}) {
		pixels = make([]byte, 0, w*h*4)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			start := img.PixOffset(b.Min.X, y)
			pixels = append(pixels, img.Pix[start:start+w*4]...)
		}
	}

	tex, err := device.CreateTexture2D(renderer.Texture2DDesc{
		Width:       uint32(w),
		Height:      uint32(h),
		MipLevels:   1,
		ArraySize:   1,
		Format:      renderer.FORMAT_R8G8B8A8_UNORM,
		SampleCount: 1,
		Usage:       renderer.USAGE_DEFAULT,
		BindFlags:   renderer.BIND_SHADER_RESOURCE,
	}, pixels)
	if err != nil {
		return nil, fmt.Errorf("creating texture: %w", err)
	}
	view, err := device.CreateShaderResourceView(tex)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("creating texture view: %w", err)
	}
	return &Texture{texture: tex, view: view, Width: w, Height: h}, nil
}

// NewWhiteTexture creates the 1x1 texture used for solid rectangles.
func NewWhiteTexture(device renderer.Device) (*Texture, error) {
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	return NewTexture(device, img)
}

func (t *Texture) View() renderer.ShaderResourceView {
	return t.view
}

func (t *Texture) Release() {
	if t.view != nil {
		t.view.Release()
		t.view = nil
	}
	if t.texture != nil {
		t.texture.Release()
		t.texture = nil
	}
}
