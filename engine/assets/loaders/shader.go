package loaders

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/spaghettifunk/gametemplate/engine/core"
)

const spirvMagic uint32 = 0x07230203

// ShaderLoader reads compiled shader bytecode: DXBC containers (.cso) or
// SPIR-V modules (.spv). The container header is checked, the code is not.
type ShaderLoader struct{}

func (sl *ShaderLoader) Load(fsys fs.FS, name string, params interface{}) (*Resource, error) {
	data, err := readFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", name, core.ErrShaderNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := validateShader(path.Ext(name), data); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &Resource{
		Name:     path.Base(name),
		FullPath: name,
		Type:     ResourceTypeShader,
		DataSize: uint64(len(data)),
		Data:     data,
	}, nil
}

func (sl *ShaderLoader) Unload(resource *Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

func validateShader(ext string, data []byte) error {
	switch ext {
	case ".spv":
		if len(data) < 20 || len(data)%4 != 0 {
			return fmt.Errorf("SPIR-V module has invalid size %d", len(data))
		}
		if binary.LittleEndian.Uint32(data) != spirvMagic {
			return fmt.Errorf("missing SPIR-V magic number")
		}
	case ".cso":
		if len(data) < 32 || string(data[:4]) != "DXBC" {
			return fmt.Errorf("missing DXBC header")
		}
	}
	return nil
}
