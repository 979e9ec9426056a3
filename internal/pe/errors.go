package pe

import (
	"errors"
	"fmt"
)

// Configuration errors. They are detected at construction or first use and
// are never retried.
var (
	// ErrInvalidGridSpec indicates a non-positive bin size or a negative range.
	ErrInvalidGridSpec = errors.New("pe: invalid grid specification")

	// ErrMissingSeafloorSpec indicates neither a bathymetry provider nor a flat
	// seafloor depth was given.
	ErrMissingSeafloorSpec = errors.New("pe: no bathymetry provider or flat seafloor depth")

	// ErrFrequencyNotSet indicates the seafloor refractive index was requested
	// before a frequency was bound.
	ErrFrequencyNotSet = errors.New("pe: frequency not set")

	// ErrDepthOutOfRange indicates a receiver depth outside the vertical grid.
	ErrDepthOutOfRange = errors.New("pe: depth outside vertical grid")

	// ErrUnsupportedStarterMethod indicates an unknown starter method name.
	ErrUnsupportedStarterMethod = errors.New("pe: unsupported starter method")

	// ErrInvalidAperture indicates a starter aperture outside (0, 90) degrees.
	ErrInvalidAperture = errors.New("pe: starter aperture must be in (0, 90) degrees")

	// ErrInvalidCadence indicates an update cadence that is neither positive
	// nor Never.
	ErrInvalidCadence = errors.New("pe: update cadence must be positive or Never")

	// ErrInvalidDensity indicates a non-positive water or bottom density.
	ErrInvalidDensity = errors.New("pe: density must be positive")

	// ErrInvalidBottomLoss indicates a bottom attenuation with no physical
	// complex sound speed.
	ErrInvalidBottomLoss = errors.New("pe: bottom loss has no physical solution")

	// ErrNonFiniteField indicates the marched field diverged (NaN or Inf).
	ErrNonFiniteField = errors.New("pe: field is not finite")
)

// StepError wraps a failure raised while marching with the range step at
// which it happened.
type StepError struct {
	Step    int
	Range   float64
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (r=%.1f m): %v", e.Step, e.Range, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}
