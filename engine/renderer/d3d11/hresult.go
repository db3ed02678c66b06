package d3d11

import (
	"fmt"

	"github.com/spaghettifunk/gametemplate/engine/core"
)

type hresult uint32

const (
	dxgiErrorDeviceRemoved       hresult = 0x887A0005
	dxgiErrorDeviceHung          hresult = 0x887A0006
	dxgiErrorDeviceReset         hresult = 0x887A0007
	dxgiErrorDriverInternal      hresult = 0x887A0020
	dxgiErrorInvalidCall         hresult = 0x887A0001
	dxgiErrorSDKComponentMissing hresult = 0x887A002D
	eInvalidArg                  hresult = 0x80070057
	eOutOfMemory                 hresult = 0x8007000E
	eFail                        hresult = 0x80004005
)

var hresultNames = map[hresult]string{
	dxgiErrorDeviceRemoved:       "DXGI_ERROR_DEVICE_REMOVED",
	dxgiErrorDeviceHung:          "DXGI_ERROR_DEVICE_HUNG",
	dxgiErrorDeviceReset:         "DXGI_ERROR_DEVICE_RESET",
	dxgiErrorDriverInternal:      "DXGI_ERROR_DRIVER_INTERNAL_ERROR",
	dxgiErrorInvalidCall:         "DXGI_ERROR_INVALID_CALL",
	dxgiErrorSDKComponentMissing: "DXGI_ERROR_SDK_COMPONENT_MISSING",
	eInvalidArg:                  "E_INVALIDARG",
	eOutOfMemory:                 "E_OUTOFMEMORY",
	eFail:                        "E_FAIL",
}

func (hr hresult) failed() bool { return int32(hr) < 0 }

func (hr hresult) String() string {
	if name, ok := hresultNames[hr]; ok {
		return name
	}
	return fmt.Sprintf("HRESULT(%#08x)", uint32(hr))
}

func (hr hresult) deviceLost() bool {
	switch hr {
	case dxgiErrorDeviceRemoved, dxgiErrorDeviceHung, dxgiErrorDeviceReset, dxgiErrorDriverInternal:
		return true
	}
	return false
}

// check wraps a failed HRESULT. Device removal codes map to core.ErrDeviceLost.
func check(op string, hr hresult) error {
	if !hr.failed() {
		return nil
	}
	if hr.deviceLost() {
		return fmt.Errorf("%s: %s: %w", op, hr, core.ErrDeviceLost)
	}
	return fmt.Errorf("%s: %s", op, hr)
}
