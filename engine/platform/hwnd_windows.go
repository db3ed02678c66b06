//go:build windows

package platform

import "unsafe"

// Win32Handle returns the HWND backing the window.
func (w *Window) Win32Handle() uintptr {
	return uintptr(unsafe.Pointer(w.glw.GetWin32Window()))
}
