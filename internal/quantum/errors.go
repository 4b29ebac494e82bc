package quantum

import (
	"errors"

	"github.com/san-kum/qtunnel/internal/fft"
)

// Domain errors for solver operations.
var (
	// ErrInvalidLength indicates a grid size that is not a power of two, or
	// state arrays whose lengths disagree. It is the fft sentinel, so
	// errors.Is matches at either layer.
	ErrInvalidLength = fft.ErrInvalidLength

	// ErrDegenerateState indicates a wave packet that cannot be normalized.
	ErrDegenerateState = errors.New("quantum: degenerate state (zero normalization)")

	// ErrParameterBounds indicates a parameter value outside its valid range.
	ErrParameterBounds = errors.New("quantum: parameter out of valid bounds")
)
