package core

type Button uint16

const (
	BUTTON_LEFT Button = iota
	BUTTON_RIGHT
	BUTTON_MIDDLE
	BUTTON_MAX_BUTTONS
)

// KeyCode values follow the Windows virtual-key table.
type KeyCode uint16

const (
	KEY_BACKSPACE KeyCode = 0x08
	KEY_TAB       KeyCode = 0x09
	KEY_ENTER     KeyCode = 0x0D
	KEY_ESCAPE    KeyCode = 0x1B
	KEY_SPACE     KeyCode = 0x20
	KEY_PRIOR     KeyCode = 0x21
	KEY_NEXT      KeyCode = 0x22
	KEY_END       KeyCode = 0x23
	KEY_HOME      KeyCode = 0x24
	KEY_LEFT      KeyCode = 0x25
	KEY_UP        KeyCode = 0x26
	KEY_RIGHT     KeyCode = 0x27
	KEY_DOWN      KeyCode = 0x28
	KEY_INSERT    KeyCode = 0x2D
	KEY_DELETE    KeyCode = 0x2E
	KEY_0         KeyCode = 0x30
	KEY_A         KeyCode = 0x41
	KEY_D         KeyCode = 0x44
	KEY_E         KeyCode = 0x45
	KEY_Q         KeyCode = 0x51
	KEY_R         KeyCode = 0x52
	KEY_S         KeyCode = 0x53
	KEY_W         KeyCode = 0x57
	KEY_Z         KeyCode = 0x5A
	KEY_F1        KeyCode = 0x70
	KEY_F12       KeyCode = 0x7B
	KEY_LSHIFT    KeyCode = 0xA0
	KEY_RSHIFT    KeyCode = 0xA1
	KEY_LCONTROL  KeyCode = 0xA2
	KEY_RCONTROL  KeyCode = 0xA3
	KEY_LMENU     KeyCode = 0xA4
	KEY_RMENU     KeyCode = 0xA5
	KEYS_MAX_KEYS KeyCode = 0x100
)

// Mouse state structure
type MouseState struct {
	X       int32
	Y       int32
	Wheel   int32
	Buttons [BUTTON_MAX_BUTTONS]bool
}

// Keyboard state structure
type KeyboardState struct {
	Keys [KEYS_MAX_KEYS]bool
}

// InputState holds current and previous keyboard and mouse snapshots. The platform
// layer feeds it through the Process* methods; Update rolls current into previous
// once per frame.
type InputState struct {
	KeyboardCurrent  KeyboardState
	KeyboardPrevious KeyboardState
	MouseCurrent     MouseState
	MousePrevious    MouseState

	events *EventBus
}

// NewInputState creates an input state. events may be nil.
func NewInputState(events *EventBus) *InputState {
	return &InputState{events: events}
}

func (s *InputState) fire(ctx EventContext) {
	if s.events != nil {
		s.events.Fire(ctx, s)
	}
}

func (s *InputState) Update(deltaTime float64) {
	s.KeyboardPrevious = s.KeyboardCurrent
	s.MousePrevious = s.MouseCurrent
}

// keyboard input
func (s *InputState) IsKeyDown(key KeyCode) bool {
	return key < KEYS_MAX_KEYS && s.KeyboardCurrent.Keys[key]
}

func (s *InputState) IsKeyUp(key KeyCode) bool {
	return !s.IsKeyDown(key)
}

func (s *InputState) WasKeyDown(key KeyCode) bool {
	return key < KEYS_MAX_KEYS && s.KeyboardPrevious.Keys[key]
}

func (s *InputState) WasKeyUp(key KeyCode) bool {
	return !s.WasKeyDown(key)
}

func (s *InputState) ProcessKey(key KeyCode, pressed bool) {
	if key >= KEYS_MAX_KEYS {
		return
	}
	// Only handle this if the state actually changed.
	if s.KeyboardCurrent.Keys[key] == pressed {
		return
	}
	s.KeyboardCurrent.Keys[key] = pressed

	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	s.fire(EventContext{Type: code, Data: &KeyEvent{KeyCode: key}})
}

// mouse input
func (s *InputState) IsButtonDown(button Button) bool {
	return button < BUTTON_MAX_BUTTONS && s.MouseCurrent.Buttons[button]
}

func (s *InputState) WasButtonDown(button Button) bool {
	return button < BUTTON_MAX_BUTTONS && s.MousePrevious.Buttons[button]
}

func (s *InputState) MousePosition() (int32, int32) {
	return s.MouseCurrent.X, s.MouseCurrent.Y
}

func (s *InputState) PreviousMousePosition() (int32, int32) {
	return s.MousePrevious.X, s.MousePrevious.Y
}

// MouseDelta is the cursor movement since the previous Update.
func (s *InputState) MouseDelta() (int32, int32) {
	return s.MouseCurrent.X - s.MousePrevious.X, s.MouseCurrent.Y - s.MousePrevious.Y
}

// WheelDelta is the accumulated wheel movement since the previous Update.
func (s *InputState) WheelDelta() int32 {
	return s.MouseCurrent.Wheel - s.MousePrevious.Wheel
}

func (s *InputState) ProcessButton(button Button, pressed bool) {
	if button >= BUTTON_MAX_BUTTONS || s.MouseCurrent.Buttons[button] == pressed {
		return
	}
	s.MouseCurrent.Buttons[button] = pressed

	code := EVENT_CODE_BUTTON_RELEASED
	if pressed {
		code = EVENT_CODE_BUTTON_PRESSED
	}
	s.fire(EventContext{Type: code, Data: &MouseEvent{
		Button: button,
		PosX:   s.MouseCurrent.X,
		PosY:   s.MouseCurrent.Y,
	}})
}

func (s *InputState) ProcessMouseMove(x, y int32) {
	if s.MouseCurrent.X == x && s.MouseCurrent.Y == y {
		return
	}
	s.MouseCurrent.X = x
	s.MouseCurrent.Y = y
	s.fire(EventContext{Type: EVENT_CODE_MOUSE_MOVED, Data: &MouseEvent{PosX: x, PosY: y}})
}

func (s *InputState) ProcessMouseWheel(zDelta int8) {
	s.MouseCurrent.Wheel += int32(zDelta)
	s.fire(EventContext{Type: EVENT_CODE_MOUSE_WHEEL, Data: &MouseEvent{Scroll: zDelta}})
}
