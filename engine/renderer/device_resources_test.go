package renderer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gametemplate/engine/renderer"
	"github.com/spaghettifunk/gametemplate/engine/renderer/null"
)

type testWindow struct{ w, h int }

func (t testWindow) FramebufferSize() (int, int) { return t.w, t.h }

type recordingNotify struct {
	events []string
}

func (r *recordingNotify) OnDeviceLost() {
	r.events = append(r.events, "lost")
}

func (r *recordingNotify) OnDeviceRestored() error {
	r.events = append(r.events, "restored")
	return nil
}

func newDeviceResources(t *testing.T) (*renderer.DeviceResources, *null.Driver) {
	t.Helper()
	driver := null.NewDriver()
	dr := renderer.NewDeviceResources(driver, renderer.DefaultDeviceResourcesOptions())
	dr.SetWindow(testWindow{1280, 720}, 1280, 720)
	require.NoError(t, dr.CreateDeviceResources())
	require.NoError(t, dr.CreateWindowSizeDependentResources())
	return dr, driver
}

func TestDeviceResourcesCreatesTargets(t *testing.T) {
	dr, driver := newDeviceResources(t)

	assert.NotNil(t, dr.Device())
	assert.NotNil(t, dr.Context())
	assert.NotNil(t, dr.RenderTargetView())
	assert.NotNil(t, dr.DepthStencilView())
	assert.Equal(t, renderer.Viewport{Width: 1280, Height: 720, MaxDepth: 1}, dr.ScreenViewport())

	sc := driver.LastSwapChain()
	require.NotNil(t, sc)
	assert.Equal(t, renderer.FORMAT_B8G8R8A8_UNORM, sc.Format)
	assert.Equal(t, uint32(1280), sc.Width)
}

func TestWindowSizeChangedSameSizeIsNoop(t *testing.T) {
	dr, driver := newDeviceResources(t)
	rtv := dr.RenderTargetView()

	changed, err := dr.WindowSizeChanged(1280, 720)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Same(t, rtv, dr.RenderTargetView())
	assert.Zero(t, driver.LastSwapChain().Resizes)
}

func TestWindowSizeChangedResizesAndClamps(t *testing.T) {
	dr, driver := newDeviceResources(t)
	oldRTV := dr.RenderTargetView().(*null.View)

	changed, err := dr.WindowSizeChanged(0, -5)
	require.NoError(t, err)
	assert.True(t, changed)

	w, h := dr.OutputSize()
	assert.Equal(t, uint32(1), w)
	assert.Equal(t, uint32(1), h)
	assert.Equal(t, 1, driver.LastSwapChain().Resizes)
	assert.True(t, oldRTV.Released)
	assert.NotSame(t, oldRTV, dr.RenderTargetView())
}

func TestPresentRecoversLostDevice(t *testing.T) {
	dr, driver := newDeviceResources(t)
	notify := &recordingNotify{}
	dr.RegisterDeviceNotify(notify)
	firstDevice := driver.LastDevice()
	firstGeneration := dr.Generation()

	firstDevice.SimulateDeviceRemoved()
	require.NoError(t, dr.Present())

	assert.Equal(t, []string{"lost", "restored"}, notify.events)
	assert.Len(t, driver.Devices, 2)
	assert.True(t, firstDevice.Released)
	assert.Empty(t, firstDevice.Live())
	assert.NotEqual(t, firstGeneration, dr.Generation())
	assert.Same(t, driver.LastDevice(), dr.Device())
	assert.NotNil(t, dr.RenderTargetView())
}

func TestPresentCountsFrames(t *testing.T) {
	dr, driver := newDeviceResources(t)
	require.NoError(t, dr.Present())
	require.NoError(t, dr.Present())
	assert.Equal(t, 2, driver.LastSwapChain().Presents)
}

func TestCreateWindowSizeDependentResourcesNeedsWindow(t *testing.T) {
	dr := renderer.NewDeviceResources(null.NewDriver(), renderer.DefaultDeviceResourcesOptions())
	require.NoError(t, dr.CreateDeviceResources())
	assert.Error(t, dr.CreateWindowSizeDependentResources())
}
