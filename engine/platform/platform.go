package platform

import (
	"fmt"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// Platform is a glfw window. Its callbacks feed the input state, which fires the
// input events, and fire window events on the event bus.
type Platform struct {
	Window_ *glfw.Window
	events  *core.EventBus
	input   *core.InputState
	focused bool
}

func New(events *core.EventBus, input *core.InputState) *Platform {
	return &Platform{
		events: events,
		input:  input,
	}
}

func (p *Platform) Startup(applicationName string, x, y, width, height int) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan and D3D11.

	window, err := glfw.CreateWindow(width, height, applicationName, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		glfw.Terminate()
		return err
	}
	p.Window_ = window

	window.SetKeyCallback(p.keyCallback)
	window.SetMouseButtonCallback(p.mouseButtonCallback)
	window.SetCursorPosCallback(p.cursorPosCallback)
	window.SetScrollCallback(p.scrollCallback)
	window.SetFramebufferSizeCallback(p.framebufferSizeCallback)
	window.SetPosCallback(p.posCallback)
	window.SetFocusCallback(p.focusCallback)
	window.SetIconifyCallback(p.iconifyCallback)
	window.SetCloseCallback(p.closeCallback)
	glfw.SetMonitorCallback(p.monitorCallback)

	window.SetPos(x, y)
	window.Show()
	return nil
}

func (p *Platform) Shutdown() error {
	if p.Window_ != nil {
		p.Window_.Destroy()
		p.Window_ = nil
	}
	glfw.Terminate()
	return nil
}

// PumpMessages polls pending window events and reports whether the window is open.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return p.Window_ != nil && !p.Window_.ShouldClose()
}

func (p *Platform) Window() renderer.Window {
	return &Window{glw: p.Window_}
}

func (p *Platform) fire(code core.SystemEventCode, data interface{}) {
	p.events.Fire(core.EventContext{Type: code, Data: data}, p)
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	code, ok := TranslateKey(key)
	if !ok || action == glfw.Repeat {
		return
	}
	p.input.ProcessKey(code, action == glfw.Press)
}

func (p *Platform) mouseButtonCallback(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	var b core.Button
	switch button {
	case glfw.MouseButtonLeft:
		b = core.BUTTON_LEFT
	case glfw.MouseButtonRight:
		b = core.BUTTON_RIGHT
	case glfw.MouseButtonMiddle:
		b = core.BUTTON_MIDDLE
	default:
		return
	}
	p.input.ProcessButton(b, action == glfw.Press)
}

func (p *Platform) cursorPosCallback(w *glfw.Window, xpos, ypos float64) {
	p.input.ProcessMouseMove(int32(xpos), int32(ypos))
}

func (p *Platform) scrollCallback(w *glfw.Window, xoff, yoff float64) {
	switch {
	case yoff > 0:
		p.input.ProcessMouseWheel(1)
	case yoff < 0:
		p.input.ProcessMouseWheel(-1)
	}
}

func (p *Platform) framebufferSizeCallback(w *glfw.Window, width, height int) {
	p.fire(core.EVENT_CODE_RESIZED, &core.WindowEvent{Width: uint32(width), Height: uint32(height)})
}

func (p *Platform) posCallback(w *glfw.Window, xpos, ypos int) {
	p.fire(core.EVENT_CODE_WINDOW_MOVED, &core.WindowEvent{X: int32(xpos), Y: int32(ypos)})
}

func (p *Platform) focusCallback(w *glfw.Window, focused bool) {
	if focused == p.focused {
		return
	}
	p.focused = focused
	if focused {
		p.fire(core.EVENT_CODE_ACTIVATED, nil)
	} else {
		p.fire(core.EVENT_CODE_DEACTIVATED, nil)
	}
}

func (p *Platform) iconifyCallback(w *glfw.Window, iconified bool) {
	if iconified {
		p.fire(core.EVENT_CODE_SUSPENDING, nil)
	} else {
		p.fire(core.EVENT_CODE_RESUMING, nil)
	}
}

func (p *Platform) closeCallback(w *glfw.Window) {
	p.fire(core.EVENT_CODE_APPLICATION_QUIT, nil)
}

func (p *Platform) monitorCallback(monitor *glfw.Monitor, event glfw.PeripheralEvent) {
	p.fire(core.EVENT_CODE_DISPLAY_CHANGED, nil)
}

// Window adapts a glfw window to the renderer's window interfaces.
type Window struct {
	glw *glfw.Window
}

func (w *Window) FramebufferSize() (int, int) {
	return w.glw.GetFramebufferSize()
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.glw.GetRequiredInstanceExtensions()
}

func (w *Window) GetInstanceProcAddress() unsafe.Pointer {
	return glfw.GetVulkanGetInstanceProcAddress()
}

func (w *Window) CreateWindowSurface(instance interface{}) (uintptr, error) {
	surface, err := w.glw.CreateWindowSurface(instance, nil)
	if err != nil {
		return 0, fmt.Errorf("creating window surface: %w", err)
	}
	return surface, nil
}
