package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/**
 * @brief a 4x4 matrix stored row-major (Data[row*4+col]) and used with row vectors,
 * so that v' = v * M and transforms compose left to right.
 */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

/**
 * @brief Represents the extents of a 2d object, e.g. a screen-space rectangle.
 */
type Extents2D struct {
	/** @brief The minimum extents of the object. */
	Min Vec2
	/** @brief The maximum extents of the object. */
	Max Vec2
}

// Contains reports whether p lies inside the extents, edges included.
func (e Extents2D) Contains(p Vec2) bool {
	return p.X >= e.Min.X && p.X <= e.Max.X && p.Y >= e.Min.Y && p.Y <= e.Max.Y
}

/** @brief A vertex holding only a position. Stride 12. */
type VertexPosition struct {
	Position Vec3
}

/** @brief A vertex with a position and a colour. Stride 28. */
type VertexPositionColor struct {
	Position Vec3
	Colour   Vec4
}

/** @brief A vertex with a position, a colour and a texture coordinate. Stride 36. */
type VertexPositionColorTexture struct {
	Position Vec3
	Colour   Vec4
	Texcoord Vec2
}
