package loaders

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// BinaryLoader reads a file verbatim.
type BinaryLoader struct{}

func (bl *BinaryLoader) Load(fsys fs.FS, name string, params interface{}) (*Resource, error) {
	data, err := readFile(fsys, name)
	if err != nil {
		return nil, err
	}
	return &Resource{
		Name:     path.Base(name),
		FullPath: name,
		Type:     ResourceTypeBinary,
		DataSize: uint64(len(data)),
		Data:     data,
	}, nil
}

func (bl *BinaryLoader) Unload(resource *Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// readFile reads absolute paths from the OS and everything else from fsys.
func readFile(fsys fs.FS, name string) ([]byte, error) {
	if filepath.IsAbs(name) || fsys == nil {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return data, nil
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, nil
}
