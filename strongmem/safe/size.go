package safe

import "errors"

// ErrSizeOverflow is returned when a size computation would wrap around.
var ErrSizeOverflow = errors.New("size computation overflows uintptr")

// ErrNotPowerOfTwo is returned when an alignment is not a power of two.
var ErrNotPowerOfTwo = errors.New("alignment must be a non-zero power of two")

// IsPowerOfTwo reports whether n is a non-zero power of two.
func IsPowerOfTwo(n uintptr) bool {
	return n != 0 && n&(n-1) == 0
}

// AlignUp rounds n up to the next multiple of align.
// Returns ErrNotPowerOfTwo for invalid alignments and ErrSizeOverflow when
// rounding would wrap around.
//
// Example:
//
//	padded, err := safe.AlignUp(size, align)
//	if err != nil {
//	    return nil, fmt.Errorf("compute padded size: %w", err)
//	}
func AlignUp(n, align uintptr) (uintptr, error) {
	if !IsPowerOfTwo(align) {
		return 0, ErrNotPowerOfTwo
	}

	if n > ^uintptr(0)-(align-1) {
		return 0, ErrSizeOverflow
	}

	return (n + align - 1) &^ (align - 1), nil
}

// Add returns a+b, or ErrSizeOverflow if the sum wraps around.
func Add(a, b uintptr) (uintptr, error) {
	sum := a + b
	if sum < a {
		return 0, ErrSizeOverflow
	}

	return sum, nil
}

// Mul returns a*b, or ErrSizeOverflow if the product wraps around.
func Mul(a, b uintptr) (uintptr, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}

	product := a * b
	if product/a != b {
		return 0, ErrSizeOverflow
	}

	return product, nil
}
