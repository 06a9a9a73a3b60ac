package mem

import (
	"unsafe"
)

// AllocAligned allocates a zeroed byte slice of the given size whose base
// address is a multiple of align (which must be a power of two).
//
// Note: this allocates slightly more than requested to find an aligned
// offset; the underlying array is kept alive by the returned slice.
func AllocAligned(size, align int) []byte {
	if size <= 0 {
		return nil
	}
	if align <= 1 {
		return make([]byte, size)
	}

	buf := make([]byte, size+align)
	addr := uintptr(unsafe.Pointer(&buf[0]))
	offset := (uintptr(align) - (addr & uintptr(align-1))) & uintptr(align-1)
	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// Int32s reinterprets b as a little-endian []int32 view sharing the same
// memory. The slice must be 4-byte aligned and a multiple of 4 long.
func Int32s(b []byte) []int32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&b[0])), len(b)/4)
}

// Float32s reinterprets b as a []float32 view sharing the same memory.
func Float32s(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

// Int8s reinterprets b as an []int8 view sharing the same memory.
func Int8s(b []byte) []int8 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*int8)(unsafe.Pointer(&b[0])), len(b))
}
