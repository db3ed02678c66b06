package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRingQueueFIFO(t *testing.T) {
	rq := NewRingQueue[int](3)
	assert.True(t, rq.IsEmpty())

	require.NoError(t, rq.Enqueue(1))
	require.NoError(t, rq.Enqueue(2))
	require.NoError(t, rq.Enqueue(3))
	assert.True(t, rq.IsFull())
	assert.ErrorIs(t, rq.Enqueue(4), ErrQueueFull)

	front, err := rq.Peek()
	require.NoError(t, err)
	assert.Equal(t, 1, front)

	v, err := rq.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	require.NoError(t, rq.Enqueue(4))

	var got []int
	rq.Each(func(v int) { got = append(got, v) })
	assert.Equal(t, []int{2, 3, 4}, got, "order survives wrap-around")
}

func TestRingQueueEmpty(t *testing.T) {
	rq := NewRingQueue[string](2)
	_, err := rq.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	_, err = rq.Peek()
	assert.ErrorIs(t, err, ErrQueueEmpty)
}

func TestRingQueuePushDropsOldest(t *testing.T) {
	rq := NewRingQueue[float64](2)
	rq.Push(1)
	rq.Push(2)
	rq.Push(3)
	assert.Equal(t, 2, rq.Len())

	var got []float64
	rq.Each(func(v float64) { got = append(got, v) })
	assert.Equal(t, []float64{2, 3}, got)
}
