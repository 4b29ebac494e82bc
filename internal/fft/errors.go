package fft

import (
	"errors"
	"fmt"
)

// ErrInvalidLength indicates a length that is not a power of two, or real and
// imaginary arrays that do not match each other or the plan.
var ErrInvalidLength = errors.New("fft: invalid length")

// LengthError describes the offending lengths. It unwraps to ErrInvalidLength.
type LengthError struct {
	Real, Imag int
	// Want is the plan size, zero when no plan was involved.
	Want int
}

func (e *LengthError) Error() string {
	switch {
	case e.Real != e.Imag:
		return fmt.Sprintf("fft: mismatched lengths (real=%d, imag=%d)", e.Real, e.Imag)
	case e.Want != 0:
		return fmt.Sprintf("fft: length %d does not match plan size %d", e.Real, e.Want)
	default:
		return fmt.Sprintf("fft: length %d is not a power of two", e.Real)
	}
}

func (e *LengthError) Unwrap() error {
	return ErrInvalidLength
}
