package vulkan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingAllocatorAlignsAndFills(t *testing.T) {
	r := ringAllocator{size: 1024}

	first, ok := r.alloc(64, 256)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), first)

	second, ok := r.alloc(10, 256)
	assert.True(t, ok)
	assert.Equal(t, uint64(256), second)

	third, ok := r.alloc(512, 256)
	assert.True(t, ok)
	assert.Equal(t, uint64(512), third)

	_, ok = r.alloc(1, 256)
	assert.False(t, ok, "ring is full")

	r.reset()
	again, ok := r.alloc(1024, 256)
	assert.True(t, ok)
	assert.Equal(t, uint64(0), again)
}

func TestAlignUp(t *testing.T) {
	assert.Equal(t, uint64(0), alignUp(0, 256))
	assert.Equal(t, uint64(256), alignUp(1, 256))
	assert.Equal(t, uint64(256), alignUp(256, 256))
	assert.Equal(t, uint64(7), alignUp(7, 0))
}
