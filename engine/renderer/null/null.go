// Package null implements the renderer interfaces without a GPU. Every context
// call is recorded so tests and headless runs can inspect what a frame did.
package null

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

// Object is embedded in every null resource.
type Object struct {
	ID       uuid.UUID
	Kind     string
	Released bool
}

func newObject(kind string) Object {
	return Object{ID: uuid.New(), Kind: kind}
}

func (o *Object) Release() {
	o.Released = true
}

type Buffer struct {
	Object
	desc renderer.BufferDesc
	Data []byte
	// Maps counts successful Map calls.
	Maps int
}

func (b *Buffer) Desc() renderer.BufferDesc { return b.desc }

type Texture2D struct {
	Object
	desc renderer.Texture2DDesc
	Data []byte
}

func (t *Texture2D) Desc() renderer.Texture2DDesc { return t.desc }

type Shader struct {
	Object
	Bytecode []byte
}

type InputLayout struct {
	Object
	Elements []renderer.InputElementDesc
}

type RasterizerState struct {
	Object
	Desc renderer.RasterizerDesc
}

type DepthStencilState struct {
	Object
	Desc renderer.DepthStencilDesc
}

type BlendState struct {
	Object
	Desc renderer.BlendDesc
}

type SamplerState struct {
	Object
	Desc renderer.SamplerDesc
}

type View struct {
	Object
	Texture *Texture2D
}

// Driver creates null devices. The zero value is usable.
type Driver struct {
	// Devices lists every device created, oldest first.
	Devices []*Device
	// SwapChains lists every swap chain created, oldest first.
	SwapChains []*SwapChain
	// FailOn makes the next device's creation method with this name fail.
	FailOn string
}

func NewDriver() *Driver {
	return &Driver{}
}

func (d *Driver) Type() renderer.RendererType { return renderer.Null }

func (d *Driver) ShaderExtension() string { return ".cso" }

func (d *Driver) CreateDevice(debug bool) (renderer.Device, renderer.Context, error) {
	dev := &Device{Object: newObject("Device"), failOn: d.FailOn}
	dev.ctx = &Context{Object: newObject("Context"), device: dev}
	d.Devices = append(d.Devices, dev)
	return dev, dev.ctx, nil
}

func (d *Driver) CreateSwapChain(device renderer.Device, window renderer.Window, width, height uint32, format renderer.Format, bufferCount uint32) (renderer.SwapChain, error) {
	dev, ok := device.(*Device)
	if !ok {
		return nil, fmt.Errorf("null: foreign device %T", device)
	}
	sc := &SwapChain{
		Object: newObject("SwapChain"),
		device: dev,
		Width:  width,
		Height: height,
		Format: format,
	}
	d.SwapChains = append(d.SwapChains, sc)
	return sc, nil
}

// LastDevice returns the most recently created device, or nil.
func (d *Driver) LastDevice() *Device {
	if len(d.Devices) == 0 {
		return nil
	}
	return d.Devices[len(d.Devices)-1]
}

// LastSwapChain returns the most recently created swap chain, or nil.
func (d *Driver) LastSwapChain() *SwapChain {
	if len(d.SwapChains) == 0 {
		return nil
	}
	return d.SwapChains[len(d.SwapChains)-1]
}

type Device struct {
	Object
	ctx     *Context
	failOn  string
	removed bool
	// Created lists every resource created by this device in creation order.
	Created []renderer.Resource
}

// SimulateDeviceRemoved makes the next Present on this device report a lost device.
func (d *Device) SimulateDeviceRemoved() {
	d.removed = true
}

func (d *Device) Context() *Context { return d.ctx }

func (d *Device) check(method string) error {
	if d.failOn == method {
		return fmt.Errorf("null: %s failed", method)
	}
	if d.Released {
		return fmt.Errorf("null: %s on released device", method)
	}
	return nil
}

func (d *Device) track(r renderer.Resource) {
	d.Created = append(d.Created, r)
}

func (d *Device) CreateBuffer(desc renderer.BufferDesc, initialData []byte) (renderer.Buffer, error) {
	if err := d.check("CreateBuffer"); err != nil {
		return nil, err
	}
	if desc.ByteWidth == 0 {
		return nil, fmt.Errorf("null: zero sized buffer")
	}
	if desc.Usage == renderer.USAGE_IMMUTABLE && initialData == nil {
		return nil, fmt.Errorf("null: immutable buffer without initial data")
	}
	b := &Buffer{Object: newObject("Buffer"), desc: desc, Data: make([]byte, desc.ByteWidth)}
	copy(b.Data, initialData)
	d.track(b)
	return b, nil
}

func (d *Device) CreateTexture2D(desc renderer.Texture2DDesc, initialData []byte) (renderer.Texture2D, error) {
	if err := d.check("CreateTexture2D"); err != nil {
		return nil, err
	}
	if desc.Width == 0 || desc.Height == 0 {
		return nil, fmt.Errorf("null: zero sized texture")
	}
	t := &Texture2D{Object: newObject("Texture2D"), desc: desc}
	if initialData != nil {
		t.Data = append([]byte(nil), initialData...)
	}
	d.track(t)
	return t, nil
}

func (d *Device) createView(kind string, texture renderer.Texture2D) (*View, error) {
	if err := d.check("Create" + kind); err != nil {
		return nil, err
	}
	tex, ok := texture.(*Texture2D)
	if !ok {
		return nil, fmt.Errorf("null: %s of foreign texture %T", kind, texture)
	}
	v := &View{Object: newObject(kind), Texture: tex}
	d.track(v)
	return v, nil
}

func (d *Device) CreateShaderResourceView(texture renderer.Texture2D) (renderer.ShaderResourceView, error) {
	return d.createView("ShaderResourceView", texture)
}

func (d *Device) CreateRenderTargetView(texture renderer.Texture2D) (renderer.RenderTargetView, error) {
	return d.createView("RenderTargetView", texture)
}

func (d *Device) CreateDepthStencilView(texture renderer.Texture2D) (renderer.DepthStencilView, error) {
	return d.createView("DepthStencilView", texture)
}

func (d *Device) CreateInputLayout(elements []renderer.InputElementDesc, vertexShaderBytecode []byte) (renderer.InputLayout, error) {
	if err := d.check("CreateInputLayout"); err != nil {
		return nil, err
	}
	if len(vertexShaderBytecode) == 0 {
		return nil, fmt.Errorf("null: input layout without shader signature")
	}
	l := &InputLayout{Object: newObject("InputLayout"), Elements: append([]renderer.InputElementDesc(nil), elements...)}
	d.track(l)
	return l, nil
}

func (d *Device) createShader(kind string, bytecode []byte) (*Shader, error) {
	if err := d.check("Create" + kind); err != nil {
		return nil, err
	}
	if len(bytecode) == 0 {
		return nil, fmt.Errorf("null: empty %s bytecode", kind)
	}
	s := &Shader{Object: newObject(kind), Bytecode: bytecode}
	d.track(s)
	return s, nil
}

func (d *Device) CreateVertexShader(bytecode []byte) (renderer.VertexShader, error) {
	return d.createShader("VertexShader", bytecode)
}

func (d *Device) CreatePixelShader(bytecode []byte) (renderer.PixelShader, error) {
	return d.createShader("PixelShader", bytecode)
}

func (d *Device) CreateBlendState(desc renderer.BlendDesc) (renderer.BlendState, error) {
	if err := d.check("CreateBlendState"); err != nil {
		return nil, err
	}
	s := &BlendState{Object: newObject("BlendState"), Desc: desc}
	d.track(s)
	return s, nil
}

func (d *Device) CreateDepthStencilState(desc renderer.DepthStencilDesc) (renderer.DepthStencilState, error) {
	if err := d.check("CreateDepthStencilState"); err != nil {
		return nil, err
	}
	s := &DepthStencilState{Object: newObject("DepthStencilState"), Desc: desc}
	d.track(s)
	return s, nil
}

func (d *Device) CreateRasterizerState(desc renderer.RasterizerDesc) (renderer.RasterizerState, error) {
	if err := d.check("CreateRasterizerState"); err != nil {
		return nil, err
	}
	s := &RasterizerState{Object: newObject("RasterizerState"), Desc: desc}
	d.track(s)
	return s, nil
}

func (d *Device) CreateSamplerState(desc renderer.SamplerDesc) (renderer.SamplerState, error) {
	if err := d.check("CreateSamplerState"); err != nil {
		return nil, err
	}
	s := &SamplerState{Object: newObject("SamplerState"), Desc: desc}
	d.track(s)
	return s, nil
}

// Live returns the resources created by this device that were not released.
func (d *Device) Live() []renderer.Resource {
	var live []renderer.Resource
	for _, r := range d.Created {
		if o, ok := r.(interface{ released() bool }); ok && o.released() {
			continue
		}
		live = append(live, r)
	}
	return live
}

func (o *Object) released() bool { return o.Released }

type SwapChain struct {
	Object
	device   *Device
	Width    uint32
	Height   uint32
	Format   renderer.Format
	Presents int
	Resizes  int
	// Space is returned by ColorSpace.
	Space renderer.ColorSpace
}

func (s *SwapChain) GetBuffer() (renderer.Texture2D, error) {
	if s.Released {
		return nil, fmt.Errorf("null: GetBuffer on released swap chain")
	}
	t := &Texture2D{Object: newObject("BackBuffer"), desc: renderer.Texture2DDesc{
		Width:     s.Width,
		Height:    s.Height,
		MipLevels: 1,
		ArraySize: 1,
		Format:    s.Format,
		BindFlags: renderer.BIND_RENDER_TARGET,
	}}
	s.device.track(t)
	return t, nil
}

func (s *SwapChain) ResizeBuffers(width, height uint32) error {
	if s.device.removed {
		return core.ErrDeviceLost
	}
	s.Width = width
	s.Height = height
	s.Resizes++
	return nil
}

func (s *SwapChain) Present(vsync bool) error {
	if s.device.removed {
		return core.ErrDeviceLost
	}
	s.Presents++
	s.device.ctx.record(Call{Name: "Present"})
	return nil
}

func (s *SwapChain) ColorSpace() renderer.ColorSpace {
	return s.Space
}
