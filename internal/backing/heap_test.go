package backing

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestHeapReservePageAligned(t *testing.T) {
	h := NewHeap()
	b, err := h.Reserve(1000)
	require.NoError(t, err)
	require.Len(t, b, 1000)
	require.Equal(t, 1000, cap(b))

	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	require.Zero(t, addr%uintptr(PageSize), "region should be page aligned")
	require.Equal(t, 1, h.Outstanding())

	require.NoError(t, h.ForcePhysical(b))
	require.NoError(t, h.Release(b))
	require.Equal(t, 0, h.Outstanding())

	// Releasing twice is a no-op.
	require.NoError(t, h.Release(b))
}

func TestHeapLimit(t *testing.T) {
	h := NewHeap()
	h.Limit = 4096

	a, err := h.Reserve(4096)
	require.NoError(t, err)

	_, err = h.Reserve(1)
	require.True(t, errors.Is(err, ErrExhausted))

	require.NoError(t, h.Release(a))
	_, err = h.Reserve(16)
	require.NoError(t, err)
}

func TestHeapRejectsBadSize(t *testing.T) {
	_, err := NewHeap().Reserve(-5)
	require.ErrorIs(t, err, ErrInvalidSize)
}
