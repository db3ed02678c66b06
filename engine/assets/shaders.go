package assets

import (
	"fmt"
	"path"
	"strings"

	"github.com/spaghettifunk/gametemplate/engine/assets/loaders"
)

// ShaderLibrary resolves shader names such as "VertexShader" to compiled files in
// one directory, using the extension of the active backend (".cso" or ".spv").
type ShaderLibrary struct {
	manager   *AssetManager
	dir       string
	extension string
}

func NewShaderLibrary(manager *AssetManager, dir, extension string) *ShaderLibrary {
	return &ShaderLibrary{
		manager:   manager,
		dir:       path.Clean(strings.ReplaceAll(dir, "\\", "/")),
		extension: extension,
	}
}

// Path returns the asset path of the named shader.
func (sl *ShaderLibrary) Path(name string) string {
	return path.Join(sl.dir, name+sl.extension)
}

// Shader loads the bytecode of the named shader.
func (sl *ShaderLibrary) Shader(name string) ([]byte, error) {
	res, err := sl.manager.LoadAsset(sl.Path(name), loaders.ResourceTypeShader, nil)
	if err != nil {
		return nil, err
	}
	data, ok := res.Data.([]byte)
	if !ok {
		return nil, fmt.Errorf("shader %s: unexpected data %T", name, res.Data)
	}
	return data, nil
}

// Owns reports whether a changed asset path is a shader of this library.
func (sl *ShaderLibrary) Owns(assetPath string) bool {
	return path.Dir(assetPath) == sl.dir && strings.EqualFold(path.Ext(assetPath), sl.extension)
}
