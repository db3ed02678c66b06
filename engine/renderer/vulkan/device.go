package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	SwapchainSupport   VulkanSwapchainSupportInfo
	GraphicsQueueIndex int32
	PresentQueueIndex  int32

	GraphicsQueue vk.Queue
	PresentQueue  vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Features   vk.PhysicalDeviceFeatures
	Memory     vk.PhysicalDeviceMemoryProperties

	DepthFormat vk.Format
}

type VulkanSwapchainSupportInfo struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

type VulkanPhysicalDeviceQueueFamilyInfo struct {
	GraphicsFamilyIndex int32
	PresentFamilyIndex  int32
}

func (q VulkanPhysicalDeviceQueueFamilyInfo) complete() bool {
	return q.GraphicsFamilyIndex >= 0 && q.PresentFamilyIndex >= 0
}

// SelectPhysicalDevice picks the first discrete GPU that can render and present
// to the surface, or the first suitable device of any type.
func SelectPhysicalDevice(context *VulkanContext) (*VulkanDevice, error) {
	var physicalDeviceCount uint32
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return nil, resultError("vkEnumeratePhysicalDevices", res)
	}
	if physicalDeviceCount == 0 {
		return nil, fmt.Errorf("no devices which support Vulkan were found")
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return nil, resultError("vkEnumeratePhysicalDevices", res)
	}

	var selected *VulkanDevice
	for _, physicalDevice := range physicalDevices {
		device, ok := evaluatePhysicalDevice(physicalDevice, context.Surface)
		if !ok {
			continue
		}
		if selected == nil || (device.Properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu &&
			selected.Properties.DeviceType != vk.PhysicalDeviceTypeDiscreteGpu) {
			selected = device
		}
	}
	if selected == nil {
		return nil, fmt.Errorf("no physical devices were found which meet the requirements")
	}

	core.LogInfo("Selected device: '%s' (%s)", vk.ToString(selected.Properties.DeviceName[:]), deviceTypeName(selected.Properties.DeviceType))
	core.LogInfo("Vulkan API version: %d.%d.%d",
		vk.Version(selected.Properties.ApiVersion).Major(),
		vk.Version(selected.Properties.ApiVersion).Minor(),
		vk.Version(selected.Properties.ApiVersion).Patch())
	for j := uint32(0); j < selected.Memory.MemoryHeapCount; j++ {
		heap := selected.Memory.MemoryHeaps[j]
		heap.Deref()
		memorySizeGib := float64(heap.Size) / 1024.0 / 1024.0 / 1024.0
		if vk.MemoryHeapFlagBits(heap.Flags)&vk.MemoryHeapDeviceLocalBit != 0 {
			core.LogInfo("Local GPU memory: %.2f GiB", memorySizeGib)
		} else {
			core.LogInfo("Shared System memory: %.2f GiB", memorySizeGib)
		}
	}
	return selected, nil
}

func deviceTypeName(t vk.PhysicalDeviceType) string {
	switch t {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "integrated"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "discrete"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "virtual"
	case vk.PhysicalDeviceTypeCpu:
		return "cpu"
	}
	return "unknown"
}

func evaluatePhysicalDevice(physicalDevice vk.PhysicalDevice, surface vk.Surface) (*VulkanDevice, bool) {
	device := &VulkanDevice{PhysicalDevice: physicalDevice}
	vk.GetPhysicalDeviceProperties(physicalDevice, &device.Properties)
	device.Properties.Deref()
	vk.GetPhysicalDeviceFeatures(physicalDevice, &device.Features)
	device.Features.Deref()
	vk.GetPhysicalDeviceMemoryProperties(physicalDevice, &device.Memory)
	device.Memory.Deref()
	name := vk.ToString(device.Properties.DeviceName[:])

	queues := findQueueFamilies(physicalDevice, surface)
	if !queues.complete() {
		core.LogDebug("%s: no graphics or present queue, skipping", name)
		return nil, false
	}
	device.GraphicsQueueIndex = queues.GraphicsFamilyIndex
	device.PresentQueueIndex = queues.PresentFamilyIndex

	if !hasDeviceExtension(physicalDevice, vk.KhrSwapchainExtensionName) {
		core.LogDebug("%s: swapchain extension missing, skipping", name)
		return nil, false
	}
	support, err := DeviceQuerySwapchainSupport(physicalDevice, surface)
	if err != nil || len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		core.LogDebug("%s: required swapchain support not present, skipping", name)
		return nil, false
	}
	device.SwapchainSupport = support

	if !DeviceDetectDepthFormat(device) {
		core.LogDebug("%s: no supported depth format, skipping", name)
		return nil, false
	}
	return device, true
}

// findQueueFamilies prefers a family that can both render and present.
func findQueueFamilies(physicalDevice vk.PhysicalDevice, surface vk.Surface) VulkanPhysicalDeviceQueueFamilyInfo {
	info := VulkanPhysicalDeviceQueueFamilyInfo{GraphicsFamilyIndex: -1, PresentFamilyIndex: -1}

	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &queueFamilyCount, queueFamilies)

	for i := range queueFamilies {
		queueFamilies[i].Deref()
		graphics := vk.QueueFlagBits(queueFamilies[i].QueueFlags)&vk.QueueGraphicsBit != 0
		var supportsPresent vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(physicalDevice, uint32(i), surface, &supportsPresent)
		present := supportsPresent == vk.True

		if graphics && present {
			info.GraphicsFamilyIndex = int32(i)
			info.PresentFamilyIndex = int32(i)
			return info
		}
		if graphics && info.GraphicsFamilyIndex < 0 {
			info.GraphicsFamilyIndex = int32(i)
		}
		if present && info.PresentFamilyIndex < 0 {
			info.PresentFamilyIndex = int32(i)
		}
	}
	return info
}

func deviceExtensions(physicalDevice vk.PhysicalDevice) []string {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(physicalDevice, "", &count, nil); res != vk.Success || count == 0 {
		return nil
	}
	available := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(physicalDevice, "", &count, available); res != vk.Success {
		return nil
	}
	names := make([]string, 0, count)
	for i := range available {
		available[i].Deref()
		names = append(names, vk.ToString(available[i].ExtensionName[:]))
	}
	return names
}

func hasDeviceExtension(physicalDevice vk.PhysicalDevice, name string) bool {
	for _, ext := range deviceExtensions(physicalDevice) {
		if ext == name {
			return true
		}
	}
	return false
}

func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface) (VulkanSwapchainSupportInfo, error) {
	var info VulkanSwapchainSupportInfo
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &info.Capabilities); res != vk.Success {
		return info, resultError("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", res)
	}
	info.Capabilities.Deref()
	info.Capabilities.CurrentExtent.Deref()
	info.Capabilities.MinImageExtent.Deref()
	info.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, nil); res != vk.Success {
		return info, resultError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
	}
	if formatCount != 0 {
		info.Formats = make([]vk.SurfaceFormat, formatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &formatCount, info.Formats); res != vk.Success {
			return info, resultError("vkGetPhysicalDeviceSurfaceFormatsKHR", res)
		}
		for i := range info.Formats {
			info.Formats[i].Deref()
		}
	}

	var presentModeCount uint32
	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, nil); res != vk.Success {
		return info, resultError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
	}
	if presentModeCount != 0 {
		info.PresentModes = make([]vk.PresentMode, presentModeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &presentModeCount, info.PresentModes); res != vk.Success {
			return info, resultError("vkGetPhysicalDeviceSurfacePresentModesKHR", res)
		}
	}
	return info, nil
}

func (d *VulkanDevice) supportsDepthFormat(format vk.Format) bool {
	if !isDepthFormat(format) {
		return false
	}
	var properties vk.FormatProperties
	vk.GetPhysicalDeviceFormatProperties(d.PhysicalDevice, format, &properties)
	properties.Deref()
	flags := vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit)
	return properties.OptimalTilingFeatures&flags == flags
}

// DeviceDetectDepthFormat picks the first depth format usable as an optimal
// tiling attachment. D24S8 comes first to match the default depth buffer.
func DeviceDetectDepthFormat(device *VulkanDevice) bool {
	candidates := []vk.Format{
		vk.FormatD24UnormS8Uint,
		vk.FormatD32SfloatS8Uint,
		vk.FormatD32Sfloat,
	}
	for _, candidate := range candidates {
		if device.supportsDepthFormat(candidate) {
			device.DepthFormat = candidate
			return true
		}
	}
	return false
}

// DeviceCreate creates the logical device, fetches the queues and creates the
// graphics command pool.
func DeviceCreate(context *VulkanContext) error {
	device := context.Device
	core.LogInfo("Creating logical device...")

	indices := []uint32{uint32(device.GraphicsQueueIndex)}
	if device.PresentQueueIndex != device.GraphicsQueueIndex {
		indices = append(indices, uint32(device.PresentQueueIndex))
	}
	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(indices))
	for i, index := range indices {
		queueCreateInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: index,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	deviceFeatures := vk.PhysicalDeviceFeatures{}
	if device.Features.SamplerAnisotropy == vk.True {
		deviceFeatures.SamplerAnisotropy = vk.True
	}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	// Portability implementations (MoltenVK) require the subset extension enabled.
	if hasDeviceExtension(device.PhysicalDevice, "VK_KHR_portability_subset") {
		core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
		extensionNames = append(extensionNames, "VK_KHR_portability_subset")
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}
	var logical vk.Device
	if res := vk.CreateDevice(device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &logical); res != vk.Success {
		return resultError("vkCreateDevice", res)
	}
	device.LogicalDevice = logical
	core.LogInfo("Logical device created.")

	var graphicsQueue, presentQueue vk.Queue
	vk.GetDeviceQueue(logical, uint32(device.GraphicsQueueIndex), 0, &graphicsQueue)
	vk.GetDeviceQueue(logical, uint32(device.PresentQueueIndex), 0, &presentQueue)
	device.GraphicsQueue = graphicsQueue
	device.PresentQueue = presentQueue

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: uint32(device.GraphicsQueueIndex),
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	var pool vk.CommandPool
	if res := vk.CreateCommandPool(logical, &poolCreateInfo, context.Allocator, &pool); res != vk.Success {
		return resultError("vkCreateCommandPool", res)
	}
	device.GraphicsCommandPool = pool
	core.LogInfo("Graphics command pool created.")
	return nil
}

func DeviceDestroy(context *VulkanContext) {
	device := context.Device
	if device == nil {
		return
	}
	device.GraphicsQueue = nil
	device.PresentQueue = nil

	if device.GraphicsCommandPool != vk.NullCommandPool {
		vk.DestroyCommandPool(device.LogicalDevice, device.GraphicsCommandPool, context.Allocator)
		device.GraphicsCommandPool = vk.NullCommandPool
	}
	if device.LogicalDevice != nil {
		core.LogInfo("Destroying logical device...")
		vk.DestroyDevice(device.LogicalDevice, context.Allocator)
		device.LogicalDevice = nil
	}
	// Physical devices are not destroyed.
	device.PhysicalDevice = nil
	device.SwapchainSupport = VulkanSwapchainSupportInfo{}
	device.GraphicsQueueIndex = -1
	device.PresentQueueIndex = -1
}

// Device implements renderer.Device on top of a VulkanContext.
type Device struct {
	context  *VulkanContext
	released bool
}

func (d *Device) CreateBuffer(desc renderer.BufferDesc, initialData []byte) (renderer.Buffer, error) {
	return newBuffer(d.context, desc, initialData)
}

func (d *Device) CreateTexture2D(desc renderer.Texture2DDesc, initialData []byte) (renderer.Texture2D, error) {
	return newTexture(d.context, desc, initialData)
}

func (d *Device) CreateShaderResourceView(texture renderer.Texture2D) (renderer.ShaderResourceView, error) {
	return newView(d.context, texture, viewShaderResource)
}

func (d *Device) CreateRenderTargetView(texture renderer.Texture2D) (renderer.RenderTargetView, error) {
	return newView(d.context, texture, viewRenderTarget)
}

func (d *Device) CreateDepthStencilView(texture renderer.Texture2D) (renderer.DepthStencilView, error) {
	return newView(d.context, texture, viewDepthStencil)
}

func (d *Device) CreateInputLayout(elements []renderer.InputElementDesc, vertexShaderBytecode []byte) (renderer.InputLayout, error) {
	return newInputLayout(d.context, elements, vertexShaderBytecode)
}

func (d *Device) CreateVertexShader(bytecode []byte) (renderer.VertexShader, error) {
	return newShader(d.context, bytecode, vk.ShaderStageVertexBit)
}

func (d *Device) CreatePixelShader(bytecode []byte) (renderer.PixelShader, error) {
	return newShader(d.context, bytecode, vk.ShaderStageFragmentBit)
}

func (d *Device) CreateBlendState(desc renderer.BlendDesc) (renderer.BlendState, error) {
	return &BlendState{context: d.context, Desc: desc}, nil
}

func (d *Device) CreateDepthStencilState(desc renderer.DepthStencilDesc) (renderer.DepthStencilState, error) {
	return &DepthStencilState{context: d.context, Desc: desc}, nil
}

func (d *Device) CreateRasterizerState(desc renderer.RasterizerDesc) (renderer.RasterizerState, error) {
	return &RasterizerState{context: d.context, Desc: desc}, nil
}

func (d *Device) CreateSamplerState(desc renderer.SamplerDesc) (renderer.SamplerState, error) {
	return newSampler(d.context, desc)
}

// Release waits for the GPU and destroys every object owned by the context,
// down to the instance. Resources still held by callers become invalid.
func (d *Device) Release() {
	if d.released {
		return
	}
	d.released = true
	d.context.destroy()
}
