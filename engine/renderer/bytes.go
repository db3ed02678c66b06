package renderer

import "unsafe"

// AsBytes reinterprets a slice of plain-data values as bytes without copying.
// T must not contain pointers.
func AsBytes[T any](values []T) []byte {
	if len(values) == 0 {
		return nil
	}
	size := int(unsafe.Sizeof(values[0])) * len(values)
	return unsafe.Slice((*byte)(unsafe.Pointer(&values[0])), size)
}

// ValueBytes returns the bytes of a single plain-data value.
func ValueBytes[T any](value *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(value)), unsafe.Sizeof(*value))
}
