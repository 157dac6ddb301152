//go:build unit

package memory

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockedAllocateAndDeallocate(t *testing.T) {
	t.Parallel()

	res := NewLocked()

	p, err := res.Allocate(32, 16)
	require.NoError(t, err)
	assert.Zero(t, uintptr(p)&15, "allocation must be 16-byte aligned")
	assert.Equal(t, 1, res.Live())

	secret := unsafe.Slice((*byte)(p), 32)
	for i := range secret {
		assert.Zero(t, secret[i], "locked storage must start wiped")
	}

	copy(secret, []byte("hunter2"))

	res.Deallocate(p, 32, 16)
	assert.Zero(t, res.Live())
}

func TestLockedAllocateValidation(t *testing.T) {
	t.Parallel()

	res := NewLocked()

	_, err := res.Allocate(0, 8)
	require.ErrorIs(t, err, ErrBadSize)

	_, err = res.Allocate(8, 3)
	require.ErrorIs(t, err, ErrBadAlignment)
}

func TestLockedDeallocateForeignPointerTraps(t *testing.T) {
	t.Parallel()

	res := NewLocked()

	var stray int

	assert.Panics(t, func() {
		res.Deallocate(unsafe.Pointer(&stray), 8, 8)
	})
}

func TestLockedDoubleDeallocateTraps(t *testing.T) {
	t.Parallel()

	res := NewLocked()

	p, err := res.Allocate(16, 8)
	require.NoError(t, err)

	res.Deallocate(p, 16, 8)

	assert.Panics(t, func() {
		res.Deallocate(p, 16, 8)
	})
}
