package core

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Shuts the application down on the next frame.
	EVENT_CODE_APPLICATION_QUIT SystemEventCode = 0x01

	// Keyboard key pressed. Data: *KeyEvent
	EVENT_CODE_KEY_PRESSED SystemEventCode = 0x02

	// Keyboard key released. Data: *KeyEvent
	EVENT_CODE_KEY_RELEASED SystemEventCode = 0x03

	// Mouse button pressed. Data: *MouseEvent
	EVENT_CODE_BUTTON_PRESSED SystemEventCode = 0x04

	// Mouse button released. Data: *MouseEvent
	EVENT_CODE_BUTTON_RELEASED SystemEventCode = 0x05

	// Mouse moved. Data: *MouseEvent (PosX, PosY)
	EVENT_CODE_MOUSE_MOVED SystemEventCode = 0x06

	// Mouse wheel. Data: *MouseEvent (Scroll)
	EVENT_CODE_MOUSE_WHEEL SystemEventCode = 0x07

	// Framebuffer resized by the OS. Data: *WindowEvent (Width, Height)
	EVENT_CODE_RESIZED SystemEventCode = 0x08

	// Window moved. Data: *WindowEvent (X, Y)
	EVENT_CODE_WINDOW_MOVED SystemEventCode = 0x09

	// Window gained or lost input focus.
	EVENT_CODE_ACTIVATED   SystemEventCode = 0x0A
	EVENT_CODE_DEACTIVATED SystemEventCode = 0x0B

	// Window minimized / restored.
	EVENT_CODE_SUSPENDING SystemEventCode = 0x0C
	EVENT_CODE_RESUMING   SystemEventCode = 0x0D

	// Monitor configuration changed.
	EVENT_CODE_DISPLAY_CHANGED SystemEventCode = 0x0E

	// A watched asset changed on disk. Data: *AssetEvent
	EVENT_CODE_ASSET_RELOADED SystemEventCode = 0x0F

	MAX_EVENT_CODE SystemEventCode = 0xFF
)

type EventContext struct {
	Type SystemEventCode
	Data interface{}
}

type KeyEvent struct {
	KeyCode KeyCode
}

type MouseEvent struct {
	Button Button
	PosX   int32
	PosY   int32
	Scroll int8
}

type WindowEvent struct {
	X      int32
	Y      int32
	Width  uint32
	Height uint32
}

type AssetEvent struct {
	Path string
}

// Should return true if handled.
type FnOnEvent func(context EventContext, sender interface{}, listener interface{}) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventBus dispatches events synchronously on the goroutine that fires them.
// It is owned by the engine and is not safe for concurrent use.
type EventBus struct {
	registered map[SystemEventCode][]*registeredEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		registered: make(map[SystemEventCode][]*registeredEvent),
	}
}

/**
 * Register to listen for when events are sent with the provided code. A listener can be
 * registered only once per code; a duplicate registration returns false.
 * @param code The event code to listen for.
 * @param listener A listener instance. Can be nil, but only one nil listener per code.
 * @param onEvent The callback to be invoked when the event code is fired.
 * @returns true if the event is successfully registered; otherwise false.
 */
func (b *EventBus) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	if onEvent == nil {
		return false
	}
	for _, e := range b.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event code %d", code)
			return false
		}
	}
	b.registered[code] = append(b.registered[code], &registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// Unregister removes the registration of listener for code.
// Returns false when nothing matched.
func (b *EventBus) Unregister(code SystemEventCode, listener interface{}) bool {
	events := b.registered[code]
	for i, e := range events {
		if e.listener == listener {
			b.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

/**
 * Fires an event to listeners of the given code. If an event handler returns
 * true, the event is considered handled and is not passed on to any more listeners.
 * @returns true if handled, otherwise false.
 */
func (b *EventBus) Fire(context EventContext, sender interface{}) bool {
	for _, e := range b.registered[context.Type] {
		if e.callback(context, sender, e.listener) {
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (b *EventBus) Shutdown() {
	b.registered = make(map[SystemEventCode][]*registeredEvent)
}
