package components

import (
	"github.com/chewxy/math32"

	"github.com/spaghettifunk/gametemplate/engine/core"
	"github.com/spaghettifunk/gametemplate/engine/math"
)

// Input is the subset of the input state the camera reads.
type Input interface {
	IsKeyDown(key core.KeyCode) bool
	IsButtonDown(button core.Button) bool
	WasButtonDown(button core.Button) bool
	MouseDelta() (int32, int32)
	WheelDelta() int32
}

const (
	DEFAULT_CAMERA_DISTANCE float32 = 5.0
	MIN_CAMERA_DISTANCE     float32 = 0.5
	MAX_CAMERA_DISTANCE     float32 = 90.0
	// 89 degrees, keeps the view matrix away from the up-vector singularity.
	PITCH_LIMIT float32 = 1.55334306
)

/**
 * @brief An orbit camera for debugging. It circles a target point: dragging with the
 * left mouse button rotates, the wheel zooms and WASD/QE slide the target.
 * With no input it looks from (0, 0, 5) at the origin.
 */
type DebugCamera struct {
	/** @brief The point the camera orbits and looks at. */
	Target math.Vec3
	/** @brief Distance from the eye to the target. */
	Distance float32
	/** @brief Rotation around the world Y axis, in radians. */
	Yaw float32
	/** @brief Elevation above the XZ plane, in radians. */
	Pitch float32

	RotateSpeed float32 // radians per pixel dragged
	ZoomStep    float32 // world units per wheel notch
	MoveSpeed   float32 // world units per second

	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty    bool
	viewMatrix math.Mat4
}

func NewDebugCamera() *DebugCamera {
	camera := &DebugCamera{
		RotateSpeed: 0.01,
		ZoomStep:    0.5,
		MoveSpeed:   5.0,
	}
	camera.Reset()
	return camera
}

func (c *DebugCamera) Reset() {
	c.Target = math.NewVec3Zero()
	c.Distance = DEFAULT_CAMERA_DISTANCE
	c.Yaw = 0
	c.Pitch = 0
	c.IsDirty = true
}

// Eye returns the camera position.
func (c *DebugCamera) Eye() math.Vec3 {
	cp := math32.Cos(c.Pitch)
	offset := math.NewVec3(math32.Sin(c.Yaw)*cp, math32.Sin(c.Pitch), math32.Cos(c.Yaw)*cp)
	return c.Target.Add(offset.MulScalar(c.Distance))
}

func (c *DebugCamera) GetView() math.Mat4 {
	if c.IsDirty {
		c.viewMatrix = math.NewMat4View(c.Eye(), c.Target, math.NewVec3Up())
		c.IsDirty = false
	}
	return c.viewMatrix
}

// Forward is the horizontal viewing direction.
func (c *DebugCamera) Forward() math.Vec3 {
	return math.NewVec3(-math32.Sin(c.Yaw), 0, -math32.Cos(c.Yaw))
}

func (c *DebugCamera) Right() math.Vec3 {
	return c.Forward().Cross(math.NewVec3Up()).Normalized()
}

func (c *DebugCamera) move(direction math.Vec3, amount float32) {
	c.Target = c.Target.Add(direction.MulScalar(amount))
	c.IsDirty = true
}

func (c *DebugCamera) MoveForward(amount float32) { c.move(c.Forward(), amount) }
func (c *DebugCamera) MoveRight(amount float32)   { c.move(c.Right(), amount) }
func (c *DebugCamera) MoveUp(amount float32)      { c.move(math.NewVec3Up(), amount) }

func (c *DebugCamera) Rotate(yaw, pitch float32) {
	c.Yaw += yaw
	c.Pitch = math.Clamp(c.Pitch+pitch, -PITCH_LIMIT, PITCH_LIMIT)
	c.IsDirty = true
}

func (c *DebugCamera) Zoom(amount float32) {
	c.Distance = math.Clamp(c.Distance-amount, MIN_CAMERA_DISTANCE, MAX_CAMERA_DISTANCE)
	c.IsDirty = true
}

// Update applies one frame of input. deltaTime is in seconds.
func (c *DebugCamera) Update(input Input, deltaTime float32) {
	if input.IsButtonDown(core.BUTTON_LEFT) && input.WasButtonDown(core.BUTTON_LEFT) {
		dx, dy := input.MouseDelta()
		if dx != 0 || dy != 0 {
			c.Rotate(-float32(dx)*c.RotateSpeed, float32(dy)*c.RotateSpeed)
		}
	}

	if wheel := input.WheelDelta(); wheel != 0 {
		c.Zoom(float32(wheel) * c.ZoomStep)
	}

	speed := c.MoveSpeed * deltaTime
	if input.IsKeyDown(core.KEY_LSHIFT) || input.IsKeyDown(core.KEY_RSHIFT) {
		speed *= 3
	}
	if input.IsKeyDown(core.KEY_W) {
		c.MoveForward(speed)
	}
	if input.IsKeyDown(core.KEY_S) {
		c.MoveForward(-speed)
	}
	if input.IsKeyDown(core.KEY_D) {
		c.MoveRight(speed)
	}
	if input.IsKeyDown(core.KEY_A) {
		c.MoveRight(-speed)
	}
	if input.IsKeyDown(core.KEY_E) {
		c.MoveUp(speed)
	}
	if input.IsKeyDown(core.KEY_Q) {
		c.MoveUp(-speed)
	}
}
