package math

import (
	"github.com/chewxy/math32"
)

const (
	/** @brief An approximate representation of PI. */
	K_PI float32 = 3.14159265358979323846
	/** @brief An approximate representation of PI multiplied by 2. */
	K_PI_2 float32 = 2.0 * K_PI
	/** @brief An approximate representation of PI divided by 2. */
	K_HALF_PI float32 = 0.5 * K_PI
	/** @brief An approximate representation of PI divided by 4. */
	K_QUARTER_PI float32 = 0.25 * K_PI
	/** @brief A multiplier used to convert degrees to radians. */
	K_DEG2RAD_MULTIPLIER float32 = K_PI / 180.0
	/** @brief A multiplier used to convert radians to degrees. */
	K_RAD2DEG_MULTIPLIER float32 = 180.0 / K_PI
	/** @brief Smallest positive number where 1.0 + FLOAT_EPSILON != 0 */
	K_FLOAT_EPSILON float32 = 1.192092896e-07
)

// ------------------------------------------
// Vector 2
// ------------------------------------------

func NewVec2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

func (v Vec2) MulScalar(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// ------------------------------------------
// Vector 3
// ------------------------------------------

func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func NewVec3Zero() Vec3 {
	return Vec3{}
}

// NewVec3Up returns (0, 1, 0).
func NewVec3Up() Vec3 {
	return Vec3{Y: 1}
}

// NewVec3Forward returns (0, 0, -1), the right-handed forward direction.
func NewVec3Forward() Vec3 {
	return Vec3{Z: -1}
}

func NewVec3Right() Vec3 {
	return Vec3{X: 1}
}

func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

func (v Vec3) MulScalar(scalar float32) Vec3 {
	return Vec3{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

func (v Vec3) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vec3) Length() float32 {
	return math32.Sqrt(v.LengthSquared())
}

/**
 * @brief Returns a normalized copy of the vector. A zero vector is returned unchanged.
 */
func (v Vec3) Normalized() Vec3 {
	l := v.Length()
	if l < K_FLOAT_EPSILON {
		return v
	}
	return v.MulScalar(1.0 / l)
}

func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

/**
 * @brief Compares all elements of v and other and ensures the difference is less than tolerance.
 */
func (v Vec3) Compare(other Vec3, tolerance float32) bool {
	return math32.Abs(v.X-other.X) <= tolerance &&
		math32.Abs(v.Y-other.Y) <= tolerance &&
		math32.Abs(v.Z-other.Z) <= tolerance
}

func (v Vec3) Distance(other Vec3) float32 {
	return v.Sub(other).Length()
}

/**
 * @brief Transforms v as a point (w = 1) by the matrix m.
 */
func (v Vec3) Transform(m Mat4) Vec3 {
	d := &m.Data
	return Vec3{
		X: v.X*d[0] + v.Y*d[4] + v.Z*d[8] + d[12],
		Y: v.X*d[1] + v.Y*d[5] + v.Z*d[9] + d[13],
		Z: v.X*d[2] + v.Y*d[6] + v.Z*d[10] + d[14],
	}
}

// ------------------------------------------
// Vector 4
// ------------------------------------------

func NewVec4(x, y, z, w float32) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}

// Transform multiplies the row vector v by m.
func (v Vec4) Transform(m Mat4) Vec4 {
	d := &m.Data
	return Vec4{
		X: v.X*d[0] + v.Y*d[4] + v.Z*d[8] + v.W*d[12],
		Y: v.X*d[1] + v.Y*d[5] + v.Z*d[9] + v.W*d[13],
		Z: v.X*d[2] + v.Y*d[6] + v.Z*d[10] + v.W*d[14],
		W: v.X*d[3] + v.Y*d[7] + v.Z*d[11] + v.W*d[15],
	}
}

// ------------------------------------------
// Mat4
// ------------------------------------------

func NewMat4Identity() Mat4 {
	return Mat4{Data: [16]float32{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}}
}

/**
 * @brief Returns mt * other. With row vectors this applies mt first.
 */
func (mt Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for i := 0; i < 4; i++ {
				sum += mt.Data[row*4+i] * other.Data[i*4+col]
			}
			out.Data[row*4+col] = sum
		}
	}
	return out
}

func (mt Mat4) Transposed() Mat4 {
	var out Mat4
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out.Data[col*4+row] = mt.Data[row*4+col]
		}
	}
	return out
}

func (mt Mat4) Compare(other Mat4, tolerance float32) bool {
	for i := range mt.Data {
		if math32.Abs(mt.Data[i]-other.Data[i]) > tolerance {
			return false
		}
	}
	return true
}

func NewMat4Translation(position Vec3) Mat4 {
	out := NewMat4Identity()
	out.Data[12] = position.X
	out.Data[13] = position.Y
	out.Data[14] = position.Z
	return out
}

func NewMat4Scale(scale Vec3) Mat4 {
	out := NewMat4Identity()
	out.Data[0] = scale.X
	out.Data[5] = scale.Y
	out.Data[10] = scale.Z
	return out
}

/**
 * @brief Creates a right-handed view matrix looking from eye towards focus.
 * Columns hold the camera basis; the last row holds the negated eye projections.
 */
func NewMat4View(eye, focus, up Vec3) Mat4 {
	z := eye.Sub(focus).Normalized()
	x := up.Cross(z).Normalized()
	y := z.Cross(x)

	return Mat4{Data: [16]float32{
		x.X, y.X, z.X, 0,
		x.Y, y.Y, z.Y, 0,
		x.Z, y.Z, z.Z, 0,
		-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1,
	}}
}

/**
 * @brief Creates a right-handed perspective projection with a [0, 1] depth range.
 * @param fovY The vertical field of view in radians.
 * @param aspect Width divided by height.
 */
func NewMat4Perspective(fovY, aspect, nearClip, farClip float32) Mat4 {
	yScale := 1.0 / math32.Tan(fovY*0.5)
	xScale := yScale / aspect
	rangeInv := farClip / (nearClip - farClip)

	return Mat4{Data: [16]float32{
		xScale, 0, 0, 0,
		0, yScale, 0, 0,
		0, 0, rangeInv, -1,
		0, 0, rangeInv * nearClip, 0,
	}}
}

/**
 * @brief Creates a right-handed off-center orthographic projection with a [0, 1] depth range.
 * With left=0, right=w, bottom=h, top=0 it maps pixel coordinates to clip space.
 */
func NewMat4OrthographicOffCenter(left, right, bottom, top, nearClip, farClip float32) Mat4 {
	return Mat4{Data: [16]float32{
		2 / (right - left), 0, 0, 0,
		0, 2 / (top - bottom), 0, 0,
		0, 0, 1 / (nearClip - farClip), 0,
		(left + right) / (left - right), (top + bottom) / (bottom - top), nearClip / (nearClip - farClip), 1,
	}}
}

// NewMat4RotationX rotates counter-clockwise around +X when looking down the axis.
func NewMat4RotationX(angleRadians float32) Mat4 {
	c, s := math32.Cos(angleRadians), math32.Sin(angleRadians)
	out := NewMat4Identity()
	out.Data[5] = c
	out.Data[6] = s
	out.Data[9] = -s
	out.Data[10] = c
	return out
}

func NewMat4RotationY(angleRadians float32) Mat4 {
	c, s := math32.Cos(angleRadians), math32.Sin(angleRadians)
	out := NewMat4Identity()
	out.Data[0] = c
	out.Data[2] = -s
	out.Data[8] = s
	out.Data[10] = c
	return out
}

func DegToRad(degrees float32) float32 {
	return degrees * K_DEG2RAD_MULTIPLIER
}

func RadToDeg(radians float32) float32 {
	return radians * K_RAD2DEG_MULTIPLIER
}
