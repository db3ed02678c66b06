package assets

import (
	"io/fs"

	"github.com/spaghettifunk/gametemplate/engine/assets/loaders"
)

type Loader interface {
	// params carries loader specific options, e.g. loaders.SystemFontParams.
	Load(fsys fs.FS, path string, params interface{}) (*loaders.Resource, error)
	Unload(*loaders.Resource) error
}
