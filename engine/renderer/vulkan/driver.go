// Package vulkan implements the renderer interfaces on Vulkan. The Direct3D 11
// device and immediate-context model is emulated: state objects are folded into
// cached pipelines, dynamic buffers live in a per-frame upload ring and render
// passes start lazily on the first draw to a target.
package vulkan

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

const validationLayer = "VK_LAYER_KHRONOS_validation"

// Driver implements renderer.Driver for one window.
type Driver struct {
	window renderer.VulkanWindow
}

// NewDriver loads the Vulkan entry points through the window system.
func NewDriver(window renderer.VulkanWindow) (*Driver, error) {
	procAddr := window.GetInstanceProcAddress()
	if procAddr == nil {
		return nil, fmt.Errorf("vkGetInstanceProcAddr is nil: %w", core.ErrUnsupportedBackend)
	}
	vk.SetGetInstanceProcAddr(procAddr)
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("initializing vulkan: %w", err)
	}
	return &Driver{window: window}, nil
}

func (d *Driver) Type() renderer.RendererType { return renderer.Vulkan }

func (d *Driver) ShaderExtension() string { return ".spv" }

// CreateDevice builds the instance, surface, device and frame resources.
func (d *Driver) CreateDevice(debug bool) (renderer.Device, renderer.Context, error) {
	context := &VulkanContext{}
	ok := false
	defer func() {
		if !ok {
			context.destroy()
		}
	}()

	if err := createInstance(context, d.window.RequiredInstanceExtensions(), debug); err != nil {
		return nil, nil, err
	}

	core.LogDebug("Creating Vulkan surface...")
	surface, err := d.window.CreateWindowSurface(context.Instance)
	if err != nil {
		return nil, nil, fmt.Errorf("creating window surface: %w", err)
	}
	context.Surface = vk.SurfaceFromPointer(surface)

	if context.Device, err = SelectPhysicalDevice(context); err != nil {
		return nil, nil, err
	}
	if err := DeviceCreate(context); err != nil {
		return nil, nil, err
	}

	if context.layout, err = newPipelineLayout(context); err != nil {
		return nil, nil, err
	}
	context.pipelines = newPipelineCache(context)
	context.renderpasses = newRenderpassCache()
	context.framebuffers = newFramebufferCache()
	for i := range context.frames {
		if context.frames[i], err = newFrame(context); err != nil {
			return nil, nil, err
		}
	}
	if context.placeholders, err = newPlaceholders(context); err != nil {
		return nil, nil, err
	}

	ok = true
	return &Device{context: context}, newImmediateContext(context), nil
}

func (d *Driver) CreateSwapChain(device renderer.Device, window renderer.Window, width, height uint32, format renderer.Format, bufferCount uint32) (renderer.SwapChain, error) {
	dev, ok := device.(*Device)
	if !ok || dev.released {
		return nil, fmt.Errorf("device %T was not created by the vulkan driver", device)
	}
	if dev.context.swapchain != nil {
		return nil, fmt.Errorf("device already has a swap chain")
	}
	return newSwapChain(dev.context, width, height, format, bufferCount)
}

func instanceLayers() []string {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success || count == 0 {
		return nil
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return nil
	}
	names := make([]string, 0, count)
	for i := range available {
		available[i].Deref()
		names = append(names, vk.ToString(available[i].LayerName[:]))
	}
	return names
}

func createInstance(context *VulkanContext, windowExtensions []string, debug bool) error {
	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString("Game Template"),
		PEngineName:        VulkanSafeString("Game Template"),
	}
	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	extensions := append([]string(nil), windowExtensions...)
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}

	var layers []string
	if debug {
		found := false
		for _, name := range instanceLayers() {
			if name == validationLayer {
				found = true
				break
			}
		}
		if found {
			layers = append(layers, validationLayer)
			extensions = append(extensions, vk.ExtDebugReportExtensionName)
			core.LogInfo("Validation layers enabled.")
		} else {
			core.LogWarn("debug layer requested but %s is not installed", validationLayer)
		}
	}
	core.LogDebug("Required instance extensions: %v", extensions)

	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, context.Allocator, &instance); res != vk.Success {
		return resultError("vkCreateInstance", res)
	}
	context.Instance = instance
	if err := vk.InitInstance(instance); err != nil {
		return fmt.Errorf("loading instance functions: %w", err)
	}
	core.LogInfo("Vulkan Instance created.")

	if len(layers) > 0 {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if err := vk.Error(vk.CreateDebugReportCallback(instance, &debugCreateInfo, context.Allocator, &dbg)); err != nil {
			core.LogWarn("vkCreateDebugReportCallbackEXT failed: %s", err)
		} else {
			context.debugCallback = dbg
			core.LogDebug("Vulkan debugger created.")
		}
	}
	return nil
}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("ERROR: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
		core.LogWarn("PERFORMANCE WARNING: [%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogDebug("[%s] Code %d : %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}

// destroy tears down everything in reverse creation order. It tolerates a
// partially created context.
func (vc *VulkanContext) destroy() {
	if vc.Device != nil && vc.Device.LogicalDevice != nil {
		vc.waitIdle()
		if vc.swapchain != nil {
			vc.swapchain.Release()
		}
		vc.collectGarbage(math.MaxUint64)
		if vc.pipelines != nil {
			vc.pipelines.destroy(vc)
		}
		if vc.framebuffers != nil {
			vc.framebuffers.destroy(vc)
		}
		if vc.renderpasses != nil {
			vc.renderpasses.destroy(vc)
		}
		if vc.placeholders != nil {
			vc.placeholders.destroy(vc)
			vc.placeholders = nil
		}
		for i, f := range vc.frames {
			if f != nil {
				f.destroy(vc)
				vc.frames[i] = nil
			}
		}
		if vc.layout != nil {
			vc.layout.destroy(vc)
			vc.layout = nil
		}
		DeviceDestroy(vc)
	}
	if vc.Surface != vk.NullSurface && vc.Instance != nil {
		vk.DestroySurface(vc.Instance, vc.Surface, vc.Allocator)
		vc.Surface = vk.NullSurface
	}
	if vc.debugCallback != vk.NullDebugReportCallback && vc.Instance != nil {
		vk.DestroyDebugReportCallback(vc.Instance, vc.debugCallback, vc.Allocator)
		vc.debugCallback = vk.NullDebugReportCallback
	}
	if vc.Instance != nil {
		vk.DestroyInstance(vc.Instance, vc.Allocator)
		vc.Instance = nil
		core.LogInfo("Vulkan instance destroyed.")
	}
	vc.immediate = nil
	vc.frameActive = false
	vc.garbage = nil
}
