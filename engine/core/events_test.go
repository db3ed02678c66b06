package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusFireStopsAtFirstHandler(t *testing.T) {
	bus := NewEventBus()
	var order []string

	first, second := "first", "second"
	assert.True(t, bus.Register(EVENT_CODE_RESIZED, first, func(ctx EventContext, sender, listener interface{}) bool {
		order = append(order, listener.(string))
		return true
	}))
	assert.True(t, bus.Register(EVENT_CODE_RESIZED, second, func(ctx EventContext, sender, listener interface{}) bool {
		order = append(order, listener.(string))
		return false
	}))

	handled := bus.Fire(EventContext{Type: EVENT_CODE_RESIZED, Data: &WindowEvent{Width: 10, Height: 20}}, nil)
	assert.True(t, handled)
	assert.Equal(t, []string{"first"}, order)
}

func TestEventBusRejectsDuplicateListener(t *testing.T) {
	bus := NewEventBus()
	noop := func(EventContext, interface{}, interface{}) bool { return false }
	assert.True(t, bus.Register(EVENT_CODE_APPLICATION_QUIT, "l", noop))
	assert.False(t, bus.Register(EVENT_CODE_APPLICATION_QUIT, "l", noop))
	assert.False(t, bus.Register(EVENT_CODE_APPLICATION_QUIT, "other", nil))
}

func TestEventBusUnregister(t *testing.T) {
	bus := NewEventBus()
	fired := 0
	bus.Register(EVENT_CODE_KEY_PRESSED, "l", func(EventContext, interface{}, interface{}) bool {
		fired++
		return true
	})

	assert.True(t, bus.Unregister(EVENT_CODE_KEY_PRESSED, "l"))
	assert.False(t, bus.Unregister(EVENT_CODE_KEY_PRESSED, "l"))
	assert.False(t, bus.Fire(EventContext{Type: EVENT_CODE_KEY_PRESSED}, nil))
	assert.Zero(t, fired)
}
