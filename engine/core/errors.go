package core

import (
	"errors"
)

var (
	ErrSwapchainBooting   = errors.New("swapchain resized or recreated, booting")
	ErrDeviceLost         = errors.New("graphics device removed or reset")
	ErrNotInitialized     = errors.New("not initialized")
	ErrUnsupportedBackend = errors.New("renderer backend not supported on this platform")
	ErrInvalidFont        = errors.New("invalid font data")
	ErrShaderNotFound     = errors.New("compiled shader not found")
	ErrUnknown            = errors.New("unknown")
)
