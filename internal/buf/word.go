package buf

import (
	"encoding/binary"
	"unsafe"
)

// WordSize is the size in bytes of a machine word (and of a pointer).
const WordSize = int(unsafe.Sizeof(uintptr(0)))

// Word reads the native-endian machine word at b[off:]. Returns 0 when the
// word does not fit.
func Word(b []byte, off int) uintptr {
	w, ok := Slice(b, off, WordSize)
	if !ok {
		return 0
	}
	if WordSize == 8 {
		return uintptr(binary.NativeEndian.Uint64(w))
	}
	return uintptr(binary.NativeEndian.Uint32(w))
}

// PutWord writes v as a native-endian machine word at b[off:]. It reports
// false, leaving b untouched, when the word does not fit.
func PutWord(b []byte, off int, v uintptr) bool {
	w, ok := Slice(b, off, WordSize)
	if !ok {
		return false
	}
	if WordSize == 8 {
		binary.NativeEndian.PutUint64(w, uint64(v))
	} else {
		binary.NativeEndian.PutUint32(w, uint32(v))
	}
	return true
}

// ScanWords calls fn for every word-aligned word that lies fully inside b,
// in ascending offset order. Alignment is relative to the absolute address of
// b[0], so a slice that starts mid-word is scanned from its first aligned
// offset. Scanning stops early when fn returns false.
func ScanWords(b []byte, fn func(off int, w uintptr) bool) {
	if len(b) < WordSize {
		return
	}
	base := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	off := AlignUp(int(base%uintptr(WordSize)), WordSize) - int(base%uintptr(WordSize))
	for ; off+WordSize <= len(b); off += WordSize {
		if !fn(off, Word(b, off)) {
			return
		}
	}
}

// Addr returns the address of b[0], or 0 for an empty slice.
func Addr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
