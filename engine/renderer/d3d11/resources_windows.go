//go:build windows

package d3d11

import "github.com/spaghettifunk/gametemplate/engine/renderer"

// resource owns one reference to a COM object. Releasing twice is a no-op.
type resource struct {
	ptr object
}

func (r *resource) raw() object { return r.ptr }

func (r *resource) Release() {
	release(r.ptr)
	r.ptr = nil
}

type Buffer struct {
	resource
	desc renderer.BufferDesc
}

func (b *Buffer) Desc() renderer.BufferDesc { return b.desc }

type Texture struct {
	resource
	desc renderer.Texture2DDesc
}

func (t *Texture) Desc() renderer.Texture2DDesc { return t.desc }

type (
	VertexShader       struct{ resource }
	PixelShader        struct{ resource }
	InputLayout        struct{ resource }
	RasterizerState    struct{ resource }
	DepthStencilState  struct{ resource }
	BlendState         struct{ resource }
	SamplerState       struct{ resource }
	ShaderResourceView struct{ resource }
	RenderTargetView   struct{ resource }
	DepthStencilView   struct{ resource }
)
