package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewMatrixLooksDownNegativeZ(t *testing.T) {
	view := NewMat4View(NewVec3(0, 0, 5), NewVec3Zero(), NewVec3Up())

	assert.True(t, view.Compare(NewMat4Translation(NewVec3(0, 0, -5)), 1e-6))
	assert.True(t, NewVec3Zero().Transform(view).Compare(NewVec3(0, 0, -5), 1e-6))
}

func TestViewMatrixBasisIsOrthonormal(t *testing.T) {
	view := NewMat4View(NewVec3(3, 4, 5), NewVec3(1, 0, -2), NewVec3Up())
	d := view.Data
	x := NewVec3(d[0], d[4], d[8])
	y := NewVec3(d[1], d[5], d[9])
	z := NewVec3(d[2], d[6], d[10])

	assert.InDelta(t, 1, x.Length(), 1e-5)
	assert.InDelta(t, 1, y.Length(), 1e-5)
	assert.InDelta(t, 1, z.Length(), 1e-5)
	assert.InDelta(t, 0, x.Dot(y), 1e-5)
	assert.InDelta(t, 0, y.Dot(z), 1e-5)
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := NewMat4Perspective(DegToRad(45), 16.0/9.0, 0.1, 100)

	near := NewVec4(0, 0, -0.1, 1).Transform(proj)
	far := NewVec4(0, 0, -100, 1).Transform(proj)

	assert.InDelta(t, 0, near.Z/near.W, 1e-5)
	assert.InDelta(t, 1, far.Z/far.W, 1e-5)
	assert.InDelta(t, proj.Data[5]/(16.0/9.0), proj.Data[0], 1e-6)
	assert.InDelta(t, 2.4142135, proj.Data[5], 1e-5)
}

func TestOrthographicOffCenterMapsPixels(t *testing.T) {
	ortho := NewMat4OrthographicOffCenter(0, 800, 600, 0, 0, 1)

	topLeft := NewVec3(0, 0, 0).Transform(ortho)
	bottomRight := NewVec3(800, 600, 0).Transform(ortho)

	assert.True(t, topLeft.Compare(NewVec3(-1, 1, 0), 1e-6))
	assert.True(t, bottomRight.Compare(NewVec3(1, -1, 0), 1e-6))
}

func TestMulAndTranspose(t *testing.T) {
	a := NewMat4Translation(NewVec3(1, 2, 3))
	b := NewMat4Scale(NewVec3(2, 2, 2))

	p := NewVec3(1, 1, 1).Transform(a.Mul(b))
	assert.True(t, p.Compare(NewVec3(4, 6, 8), 1e-6))

	at := a.Transposed()
	assert.Equal(t, float32(1), at.Data[3])
	assert.Equal(t, a, at.Transposed())
}

func TestRotationY(t *testing.T) {
	p := NewVec3(1, 0, 0).Transform(NewMat4RotationY(K_HALF_PI))
	assert.True(t, p.Compare(NewVec3(0, 0, -1), 1e-6))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.5, Clamp(3.0, -1.5, 1.5))
	assert.Equal(t, -2, Clamp(-5, -2, 2))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
}
