package loaders

import (
	"encoding/binary"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gametemplate/engine/core"
)

func TestShaderLoaderValidatesContainers(t *testing.T) {
	dxbc := append([]byte("DXBC"), make([]byte, 28)...)
	spirv := make([]byte, 20)
	binary.LittleEndian.PutUint32(spirv, spirvMagic)

	fsys := fstest.MapFS{
		"VertexShader.cso": {Data: dxbc},
		"VertexShader.spv": {Data: spirv},
		"Broken.cso":       {Data: []byte("nope")},
		"Broken.spv":       {Data: make([]byte, 20)},
	}
	loader := &ShaderLoader{}

	res, err := loader.Load(fsys, "VertexShader.cso", nil)
	require.NoError(t, err)
	assert.Equal(t, dxbc, res.Data)
	assert.Equal(t, uint64(32), res.DataSize)

	_, err = loader.Load(fsys, "VertexShader.spv", nil)
	assert.NoError(t, err)

	_, err = loader.Load(fsys, "Broken.cso", nil)
	assert.ErrorContains(t, err, "DXBC")
	_, err = loader.Load(fsys, "Broken.spv", nil)
	assert.ErrorContains(t, err, "SPIR-V")

	_, err = loader.Load(fsys, "PixelShader.cso", nil)
	assert.ErrorIs(t, err, core.ErrShaderNotFound)
}
