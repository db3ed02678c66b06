package assets

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/gametemplate/engine/assets/loaders"
	"github.com/spaghettifunk/gametemplate/engine/core"
)

func TestDetermineAssetType(t *testing.T) {
	assert.Equal(t, loaders.ResourceTypeShader, DetermineAssetType("Resources/Shaders/VertexShader.cso"))
	assert.Equal(t, loaders.ResourceTypeShader, DetermineAssetType("x.SPV"))
	assert.Equal(t, loaders.ResourceTypeSpriteFont, DetermineAssetType("Resources/Font/SegoeUI_18.spritefont"))
	assert.Equal(t, loaders.ResourceTypeBitmapFont, DetermineAssetType("font.fnt"))
	assert.Equal(t, loaders.ResourceTypeSystemFont, DetermineAssetType("C:/Windows/Fonts/ARIAL.ttf"))
	assert.Equal(t, loaders.ResourceTypeNone, DetermineAssetType("readme.md"))
}

func TestLoadAssetIndexesLoadedFiles(t *testing.T) {
	am := NewAssetManagerFS(fstest.MapFS{"data.bin": {Data: []byte{1, 2, 3}}})
	defer am.Close()

	res, err := am.LoadAsset("data.bin", loaders.ResourceTypeBinary, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, res.Data)

	info, ok := am.Asset("data.bin")
	require.True(t, ok)
	assert.Equal(t, loaders.ResourceTypeBinary, info.Type)

	require.NoError(t, am.UnloadAsset(res))
	assert.Nil(t, res.Data)

	_, err = am.LoadAsset("data.bin", loaders.ResourceTypeNone, nil)
	assert.Error(t, err)
}

func TestWatchRequiresOSRoot(t *testing.T) {
	am := NewAssetManagerFS(fstest.MapFS{})
	assert.Error(t, am.Watch("."))
}

func TestWatchReportsShaderChanges(t *testing.T) {
	root := t.TempDir()
	shaderDir := filepath.Join(root, "Resources", "Shaders")
	require.NoError(t, os.MkdirAll(shaderDir, 0o755))
	shader := filepath.Join(shaderDir, "VertexShader.cso")
	require.NoError(t, os.WriteFile(shader, []byte("old"), 0o644))

	am := NewAssetManager(root)
	defer am.Close()
	require.NoError(t, am.Watch("Resources"))

	_, indexed := am.Asset("Resources/Shaders/VertexShader.cso")
	assert.True(t, indexed, "existing files are indexed when watching starts")

	require.NoError(t, os.WriteFile(filepath.Join(shaderDir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(shader, []byte("new"), 0o644))

	select {
	case got := <-am.Changes():
		assert.Equal(t, "Resources/Shaders/VertexShader.cso", got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}

func TestWatchCoalescesWritesOfOneSave(t *testing.T) {
	root := t.TempDir()
	shaderDir := filepath.Join(root, "Resources", "Shaders")
	require.NoError(t, os.MkdirAll(shaderDir, 0o755))
	shader := filepath.Join(shaderDir, "PixelShader.cso")
	require.NoError(t, os.WriteFile(shader, []byte("old"), 0o644))

	am := NewAssetManager(root)
	am.QuietPeriod = 200 * time.Millisecond
	defer am.Close()
	require.NoError(t, am.Watch("Resources"))

	// Truncate, then write in two chunks, the way a compiler rewrites its output.
	f, err := os.OpenFile(shader, os.O_WRONLY|os.O_TRUNC, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte("DXBC"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	_, err = f.Write(make([]byte, 28))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case got := <-am.Changes():
		assert.Equal(t, "Resources/Shaders/PixelShader.cso", got)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case got := <-am.Changes():
		t.Fatalf("second change reported for one save: %s", got)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestShaderLibrary(t *testing.T) {
	dxbc := append([]byte("DXBC"), make([]byte, 28)...)
	am := NewAssetManagerFS(fstest.MapFS{
		"Resources/Shaders/VertexShader.cso": {Data: dxbc},
	})
	defer am.Close()

	lib := NewShaderLibrary(am, "Resources\\Shaders\\", ".cso")
	assert.Equal(t, "Resources/Shaders/VertexShader.cso", lib.Path("VertexShader"))

	code, err := lib.Shader("VertexShader")
	require.NoError(t, err)
	assert.Equal(t, dxbc, code)

	_, err = lib.Shader("PixelShader")
	assert.ErrorIs(t, err, core.ErrShaderNotFound)

	assert.True(t, lib.Owns("Resources/Shaders/PixelShader.cso"))
	assert.False(t, lib.Owns("Resources/Shaders/PixelShader.spv"))
	assert.False(t, lib.Owns("Resources/Font/SegoeUI_18.spritefont"))
}
