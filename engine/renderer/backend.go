package renderer

import "unsafe"

type RendererType uint8

const (
	Null RendererType = iota
	Direct3D11
	Vulkan
)

func (t RendererType) String() string {
	switch t {
	case Direct3D11:
		return "d3d11"
	case Vulkan:
		return "vulkan"
	default:
		return "null"
	}
}

// Window is the surface a swap chain presents to. Backends type-assert for the
// native handles they need.
type Window interface {
	FramebufferSize() (width, height int)
}

// Win32Window is implemented by windows that expose an HWND.
type Win32Window interface {
	Window
	Win32Handle() uintptr
}

// VulkanWindow is implemented by windows that can host a Vulkan surface.
type VulkanWindow interface {
	Window
	RequiredInstanceExtensions() []string
	// GetInstanceProcAddress returns the loader's vkGetInstanceProcAddr.
	GetInstanceProcAddress() unsafe.Pointer
	// CreateWindowSurface creates a VkSurfaceKHR for a VkInstance handle.
	CreateWindowSurface(instance interface{}) (uintptr, error)
}

// Driver creates devices and swap chains for one graphics API.
type Driver interface {
	Type() RendererType
	// ShaderExtension is the file extension of compiled shaders for this API.
	ShaderExtension() string
	CreateDevice(debug bool) (Device, Context, error)
	CreateSwapChain(device Device, window Window, width, height uint32, format Format, bufferCount uint32) (SwapChain, error)
}
