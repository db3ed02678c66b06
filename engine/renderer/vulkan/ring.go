package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"
)

const (
	// UPLOAD_RING_SIZE is the per-frame budget for dynamic buffer writes.
	UPLOAD_RING_SIZE uint64 = 8 << 20
	// UPLOAD_ALIGNMENT covers minUniformBufferOffsetAlignment on every known device.
	UPLOAD_ALIGNMENT uint64 = 256
)

// ringAllocator hands out aligned, non-overlapping ranges of a fixed region.
// It never wraps: reset makes the whole region available again.
type ringAllocator struct {
	size uint64
	head uint64
}

func (r *ringAllocator) alloc(size, alignment uint64) (uint64, bool) {
	offset := alignUp(r.head, alignment)
	if offset+size > r.size {
		return 0, false
	}
	r.head = offset + size
	return offset, true
}

func (r *ringAllocator) reset() {
	r.head = 0
}

// uploadRing is a host-visible buffer that is persistently mapped. Every
// WRITE_DISCARD map takes a fresh range so draws recorded earlier in the frame
// keep reading the data they were recorded with.
type uploadRing struct {
	ringAllocator
	buffer vk.Buffer
	memory vk.DeviceMemory
	mapped []byte
}

func newUploadRing(context *VulkanContext, size uint64) (*uploadRing, error) {
	usage := vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit) |
		vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit) |
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit)
	buffer, memory, err := createBuffer(context, size, usage, hostVisible)
	if err != nil {
		return nil, fmt.Errorf("creating upload ring: %w", err)
	}
	var ptr unsafe.Pointer
	if res := vk.MapMemory(context.device(), memory, 0, vk.DeviceSize(size), 0, &ptr); res != vk.Success {
		vk.DestroyBuffer(context.device(), buffer, context.Allocator)
		vk.FreeMemory(context.device(), memory, context.Allocator)
		return nil, resultError("vkMapMemory", res)
	}
	return &uploadRing{
		ringAllocator: ringAllocator{size: size},
		buffer:        buffer,
		memory:        memory,
		mapped:        unsafe.Slice((*byte)(ptr), size),
	}, nil
}

// allocate returns the offset of a fresh range and the mapped bytes backing it.
func (u *uploadRing) allocate(size uint64) (uint64, []byte, error) {
	offset, ok := u.alloc(size, UPLOAD_ALIGNMENT)
	if !ok {
		return 0, nil, fmt.Errorf("upload ring exhausted: %d of %d bytes used, %d requested", u.head, u.size, size)
	}
	return offset, u.mapped[offset : offset+size : offset+size], nil
}

func (u *uploadRing) destroy(context *VulkanContext) {
	if u.memory != vk.NullDeviceMemory {
		vk.UnmapMemory(context.device(), u.memory)
	}
	destroyBuffer(context, u.buffer, u.memory)
	u.buffer = vk.NullBuffer
	u.memory = vk.NullDeviceMemory
	u.mapped = nil
}
