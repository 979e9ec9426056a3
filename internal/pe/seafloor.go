package pe

import (
	"fmt"
	"math"
)

// Seafloor describes the homogeneous bottom half-space.
type Seafloor struct {
	C         float64 // sound speed, m/s
	Density   float64 // g/cm^3
	Thickness float64 // m
	Loss      float64 // attenuation, dB per wavelength

	frequency float64
}

// DefaultSeafloor returns a sandy-silt bottom.
func DefaultSeafloor() *Seafloor {
	return &Seafloor{C: 1700, Density: 1.5, Thickness: 2000, Loss: 0.5}
}

// SetFrequency binds the acoustic frequency in Hz.
func (s *Seafloor) SetFrequency(f float64) {
	s.frequency = f
}

// Frequency returns the bound frequency, zero when unset.
func (s *Seafloor) Frequency() float64 {
	return s.frequency
}

// N2 returns the complex refractive index squared (c0/cb)^2 where cb
// carries the attenuation as a negative imaginary part.
func (s *Seafloor) N2(c0 float64) (complex128, error) {
	if s.frequency <= 0 {
		return 0, ErrFrequencyNotSet
	}
	return bottomN2(c0, s.C, s.Loss, s.frequency)
}

// bottomN2 converts an attenuation in dB/lambda into the imaginary sound
// speed ci solving beta*ci^2 - ci + beta*cb^2 = 0 with 0 <= ci < cb.
func bottomN2(c0, cb, loss, freq float64) (complex128, error) {
	ki := loss / (cb / freq) / 20 / math.Log10(math.E)
	beta := ki / 2 / math.Pi / freq

	disc := 1 - 4*beta*beta*cb*cb
	if disc < 0 || loss < 0 {
		return 0, fmt.Errorf("%w: loss=%g dB/lambda", ErrInvalidBottomLoss, loss)
	}
	// smaller root, written to stay finite as beta -> 0
	ci := 2 * beta * cb * cb / (1 + math.Sqrt(disc))
	if ci >= cb {
		return 0, fmt.Errorf("%w: loss=%g dB/lambda", ErrInvalidBottomLoss, loss)
	}

	c := complex(cb, -ci)
	n := complex(c0, 0) / c
	return n * n, nil
}
