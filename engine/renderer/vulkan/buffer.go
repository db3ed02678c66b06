package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

var (
	hostVisible = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit) | vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit)
	deviceLocal = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
)

func createBuffer(context *VulkanContext, size uint64, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error) {
	bufferInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if res := vk.CreateBuffer(context.device(), &bufferInfo, context.Allocator, &buffer); res != vk.Success {
		return vk.NullBuffer, vk.NullDeviceMemory, resultError("vkCreateBuffer", res)
	}

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.device(), buffer, &requirements)
	requirements.Deref()

	memoryIndex, err := context.FindMemoryIndex(requirements.MemoryTypeBits, properties)
	if err != nil {
		vk.DestroyBuffer(context.device(), buffer, context.Allocator)
		return vk.NullBuffer, vk.NullDeviceMemory, err
	}
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryIndex,
	}
	var memory vk.DeviceMemory
	if res := vk.AllocateMemory(context.device(), &allocateInfo, context.Allocator, &memory); res != vk.Success {
		vk.DestroyBuffer(context.device(), buffer, context.Allocator)
		return vk.NullBuffer, vk.NullDeviceMemory, resultError("vkAllocateMemory", res)
	}
	if res := vk.BindBufferMemory(context.device(), buffer, memory, 0); res != vk.Success {
		destroyBuffer(context, buffer, memory)
		return vk.NullBuffer, vk.NullDeviceMemory, resultError("vkBindBufferMemory", res)
	}
	return buffer, memory, nil
}

func destroyBuffer(context *VulkanContext, buffer vk.Buffer, memory vk.DeviceMemory) {
	if buffer != vk.NullBuffer {
		vk.DestroyBuffer(context.device(), buffer, context.Allocator)
	}
	if memory != vk.NullDeviceMemory {
		vk.FreeMemory(context.device(), memory, context.Allocator)
	}
}

// writeMemory copies data to the start of host-visible memory.
func writeMemory(context *VulkanContext, memory vk.DeviceMemory, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	var ptr unsafe.Pointer
	if res := vk.MapMemory(context.device(), memory, 0, vk.DeviceSize(len(data)), 0, &ptr); res != vk.Success {
		return resultError("vkMapMemory", res)
	}
	vk.Memcopy(ptr, data)
	vk.UnmapMemory(context.device(), memory)
	return nil
}

func bufferUsage(bind renderer.BindFlag) vk.BufferUsageFlags {
	var usage vk.BufferUsageFlags
	if bind&renderer.BIND_VERTEX_BUFFER != 0 {
		usage |= vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit)
	}
	if bind&renderer.BIND_INDEX_BUFFER != 0 {
		usage |= vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit)
	}
	if bind&renderer.BIND_CONSTANT_BUFFER != 0 {
		usage |= vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	}
	return usage
}

// Buffer is a vertex, index or constant buffer. DEFAULT and IMMUTABLE buffers own
// their memory. DYNAMIC buffers live in the frame's upload ring: every map takes
// a fresh range, and a CPU copy re-uploads the last contents when the buffer is
// drawn in a frame that did not map it.
type Buffer struct {
	context *VulkanContext
	desc    renderer.BufferDesc

	handle vk.Buffer
	memory vk.DeviceMemory

	shadow []byte
	// window is the ring range of the last map, valid while serial is current.
	window  []byte
	mapped  bool
	ring    vk.Buffer
	offset  uint64
	serial  uint64
}

func newBuffer(context *VulkanContext, desc renderer.BufferDesc, initialData []byte) (*Buffer, error) {
	if desc.ByteWidth == 0 {
		return nil, fmt.Errorf("buffer byte width is zero")
	}
	if uint32(len(initialData)) > desc.ByteWidth {
		return nil, fmt.Errorf("initial data (%d bytes) exceeds buffer size %d", len(initialData), desc.ByteWidth)
	}
	b := &Buffer{context: context, desc: desc}
	if desc.Usage == renderer.USAGE_DYNAMIC {
		b.shadow = make([]byte, desc.ByteWidth)
		copy(b.shadow, initialData)
		return b, nil
	}

	// TODO: upload DEFAULT buffers through a staging copy into device-local memory.
	handle, memory, err := createBuffer(context, uint64(desc.ByteWidth), bufferUsage(desc.BindFlags), hostVisible)
	if err != nil {
		return nil, err
	}
	b.handle = handle
	b.memory = memory
	if err := writeMemory(context, memory, initialData); err != nil {
		destroyBuffer(context, handle, memory)
		return nil, err
	}
	return b, nil
}

func (b *Buffer) Desc() renderer.BufferDesc { return b.desc }

func (b *Buffer) dynamic() bool { return b.desc.Usage == renderer.USAGE_DYNAMIC }

// mapDiscard allocates the range this frame's draws will read.
func (b *Buffer) mapDiscard() ([]byte, error) {
	ring := b.context.frame().upload
	offset, data, err := ring.allocate(uint64(b.desc.ByteWidth))
	if err != nil {
		return nil, err
	}
	b.ring = ring.buffer
	b.offset = offset
	b.serial = b.context.frameSerial
	b.window = data
	return data, nil
}

// mapRange exposes the buffer for writing. NO_OVERWRITE keeps the range of an
// earlier map in the same frame; otherwise a fresh range is taken.
func (b *Buffer) mapRange(mode renderer.MapMode) ([]byte, error) {
	if !b.dynamic() {
		return nil, fmt.Errorf("only DYNAMIC buffers can be mapped")
	}
	if b.mapped {
		return nil, fmt.Errorf("buffer is already mapped")
	}
	var data []byte
	var err error
	switch mode {
	case renderer.MAP_WRITE_NO_OVERWRITE:
		if b.serial == b.context.frameSerial && b.window != nil {
			data = b.window
			break
		}
		if data, err = b.mapDiscard(); err == nil {
			copy(data, b.shadow)
		}
	case renderer.MAP_WRITE_DISCARD:
		data, err = b.mapDiscard()
	default:
		return nil, fmt.Errorf("unsupported map mode %d", mode)
	}
	if err != nil {
		return nil, err
	}
	b.mapped = true
	return data, nil
}

func (b *Buffer) unmap() {
	if b.mapped {
		copy(b.shadow, b.window)
		b.mapped = false
	}
}

// resolve returns the buffer handle and offset a draw in the current frame reads.
func (b *Buffer) resolve() (vk.Buffer, uint64, error) {
	if !b.dynamic() {
		return b.handle, 0, nil
	}
	if b.serial != b.context.frameSerial {
		data, err := b.mapDiscard()
		if err != nil {
			return vk.NullBuffer, 0, err
		}
		copy(data, b.shadow)
	}
	return b.ring, b.offset, nil
}

func (b *Buffer) Release() {
	if b.context == nil {
		return
	}
	context, handle, memory := b.context, b.handle, b.memory
	b.context = nil
	b.shadow = nil
	b.window = nil
	if handle != vk.NullBuffer {
		context.deferDestroy(func() { destroyBuffer(context, handle, memory) })
	}
}
