package loaders

type ResourceType uint8

const (
	ResourceTypeNone ResourceType = iota
	ResourceTypeBinary
	ResourceTypeShader
	ResourceTypeSpriteFont
	ResourceTypeBitmapFont
	ResourceTypeSystemFont
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeBinary:
		return "binary"
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeSpriteFont:
		return "spritefont"
	case ResourceTypeBitmapFont:
		return "bitmapfont"
	case ResourceTypeSystemFont:
		return "systemfont"
	default:
		return "none"
	}
}

// Resource is the result of a loader. Data holds the loader specific payload:
// []byte for binaries and shaders, *FontData for fonts.
type Resource struct {
	Name     string
	FullPath string
	Type     ResourceType
	DataSize uint64
	Data     interface{}
}
