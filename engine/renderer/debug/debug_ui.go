package debug

import (
	"fmt"

	"github.com/spaghettifunk/gametemplate/engine/assets/loaders"
	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/math"
	"github.com/spaghettifunk/gametemplate/engine/renderer"
)

// UIInput is the subset of the input state the UI reads.
type UIInput interface {
	IsButtonDown(button core.Button) bool
	WasButtonDown(button core.Button) bool
	MousePosition() (int32, int32)
}

const (
	UI_PADDING         float32 = 6
	UI_MIN_PANEL_WIDTH float32 = 200
)

var (
	uiPanelColor       = math.Vec4{X: 0.06, Y: 0.06, Z: 0.06, W: 0.94}
	uiTitleColor       = math.Vec4{X: 0.04, Y: 0.04, Z: 0.04, W: 1}
	uiTitleActiveColor = math.Vec4{X: 0.16, Y: 0.29, Z: 0.48, W: 1}
)

type uiPanel struct {
	title    string
	x, y     float32
	width    float32
	height   float32
	rows     []string
	visible  bool
	dragging bool
}

func (p *uiPanel) contains(x, y float32) bool {
	return x >= p.x && x < p.x+p.width && y >= p.y && y < p.y+p.height
}

/**
 * @brief A minimal immediate mode UI: titled panels holding text rows. Each frame
 * the caller runs NewFrame, then Begin/Text/End per panel, then Render. Clicking a
 * panel focuses it, clicking elsewhere clears the focus, and dragging the title bar
 * moves it. Panel positions persist across frames.
 */
type DebugUI struct {
	font  *loaders.FontData
	atlas *Texture
	white *Texture
	batch *SpriteBatch

	panels  map[string]*uiPanel
	order   []*uiPanel
	focused *uiPanel
	current *uiPanel

	mouseX, mouseY int32
	lastX, lastY   int32
}

func NewDebugUI(device renderer.Device, shaders ShaderSource, font *loaders.FontData) (_ *DebugUI, err error) {
	if font == nil || font.Atlas == nil {
		return nil, fmt.Errorf("debug ui: %w", core.ErrInvalidFont)
	}
	ui := &DebugUI{font: font, panels: map[string]*uiPanel{}}
	defer func() {
		if err != nil {
			ui.Release()
		}
	}()
	if ui.atlas, err = NewTexture(device, font.Atlas); err != nil {
		return nil, fmt.Errorf("debug ui atlas: %w", err)
	}
	if ui.white, err = NewWhiteTexture(device); err != nil {
		return nil, fmt.Errorf("debug ui texture: %w", err)
	}
	if ui.batch, err = NewSpriteBatch(device, shaders); err != nil {
		return nil, err
	}
	return ui, nil
}

// NewFrame samples the input for this frame and handles focus and dragging.
func (ui *DebugUI) NewFrame(input UIInput) {
	ui.lastX, ui.lastY = ui.mouseX, ui.mouseY
	ui.mouseX, ui.mouseY = input.MousePosition()
	for _, p := range ui.order {
		p.visible = false
	}

	down := input.IsButtonDown(core.BUTTON_LEFT)
	pressed := down && !input.WasButtonDown(core.BUTTON_LEFT)
	mx, my := float32(ui.mouseX), float32(ui.mouseY)

	if pressed {
		ui.focused = nil
		// Topmost panel is drawn last.
		for i := len(ui.order) - 1; i >= 0; i-- {
			p := ui.order[i]
			if p.contains(mx, my) {
				ui.focused = p
				p.dragging = my < p.y+ui.titleHeight()
				break
			}
		}
	}

	if ui.focused != nil && ui.focused.dragging {
		if !down {
			ui.focused.dragging = false
		} else if !pressed {
			ui.focused.x += float32(ui.mouseX - ui.lastX)
			ui.focused.y += float32(ui.mouseY - ui.lastY)
		}
	}
}

// Begin opens the panel with the given title; panels are created on first use.
func (ui *DebugUI) Begin(title string) bool {
	p, ok := ui.panels[title]
	if !ok {
		offset := float32(len(ui.order)) * 24
		p = &uiPanel{title: title, x: 20 + offset, y: 20 + offset}
		ui.panels[title] = p
		ui.order = append(ui.order, p)
	}
	p.rows = p.rows[:0]
	p.visible = true
	ui.current = p
	return true
}

// Text adds a row to the current panel.
func (ui *DebugUI) Text(format string, args ...interface{}) {
	if ui.current == nil {
		return
	}
	ui.current.rows = append(ui.current.rows, fmt.Sprintf(format, args...))
}

// IsWindowFocused reports whether the current panel has focus.
func (ui *DebugUI) IsWindowFocused() bool {
	return ui.current != nil && ui.current == ui.focused
}

// WantCaptureMouse reports whether the mouse is over or dragging any panel.
func (ui *DebugUI) WantCaptureMouse() bool {
	mx, my := float32(ui.mouseX), float32(ui.mouseY)
	for _, p := range ui.order {
		if p.visible && (p.dragging || p.contains(mx, my)) {
			return true
		}
	}
	return false
}

// End closes the current panel and sizes it to its content.
func (ui *DebugUI) End() {
	p := ui.current
	if p == nil {
		return
	}
	width, _ := ui.font.MeasureString(p.title)
	for _, row := range p.rows {
		if w, _ := ui.font.MeasureString(row); w > width {
			width = w
		}
	}
	p.width = math.Max(width+2*UI_PADDING, UI_MIN_PANEL_WIDTH)
	p.height = ui.titleHeight() + float32(len(p.rows))*ui.font.LineSpacing + 2*UI_PADDING
	ui.current = nil
}

func (ui *DebugUI) titleHeight() float32 {
	return ui.font.LineSpacing + 2*UI_PADDING
}

// Render draws the panels opened this frame.
func (ui *DebugUI) Render(ctx renderer.Context, viewport renderer.Viewport) error {
	ui.batch.Begin(ctx, viewport)
	full := Rect{W: 1, H: 1}
	for _, p := range ui.order {
		if !p.visible {
			continue
		}
		title := uiTitleColor
		if p == ui.focused {
			title = uiTitleActiveColor
		}
		th := ui.titleHeight()
		ui.batch.Draw(ui.white, Rect{X: p.x, Y: p.y, W: p.width, H: p.height}, full, uiPanelColor)
		ui.batch.Draw(ui.white, Rect{X: p.x, Y: p.y, W: p.width, H: th}, full, title)
		drawText(ui.batch, ui.font, ui.atlas, p.x+UI_PADDING, p.y+UI_PADDING, ColorWhite, p.title)
		for i, row := range p.rows {
			drawText(ui.batch, ui.font, ui.atlas, p.x+UI_PADDING, p.y+th+UI_PADDING+float32(i)*ui.font.LineSpacing, ColorWhite, row)
		}
	}
	return ui.batch.End()
}

func (ui *DebugUI) Release() {
	if ui.batch != nil {
		ui.batch.Release()
		ui.batch = nil
	}
	if ui.white != nil {
		ui.white.Release()
		ui.white = nil
	}
	if ui.atlas != nil {
		ui.atlas.Release()
		ui.atlas = nil
	}
}
