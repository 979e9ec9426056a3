package pe

import (
	"fmt"
	"math"
	"strings"

	"github.com/mjibson/go-dsp/fft"
)

// StarterMethod selects the closed-form approximation of the point source
// used as the field at r = 0.
type StarterMethod int

const (
	Gaussian StarterMethod = iota
	Greene
	Thomson
)

func (m StarterMethod) String() string {
	switch m {
	case Gaussian:
		return "GAUSSIAN"
	case Greene:
		return "GREENE"
	case Thomson:
		return "THOMSON"
	default:
		return fmt.Sprintf("StarterMethod(%d)", int(m))
	}
}

// ParseStarterMethod accepts GAUSSIAN, GREENE or THOMSON in any case.
func ParseStarterMethod(s string) (StarterMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "GAUSSIAN":
		return Gaussian, nil
	case "GREENE":
		return Greene, nil
	case "THOMSON":
		return Thomson, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedStarterMethod, s)
}

// taperStart is where the aperture window starts rolling off, as a
// fraction of the cut-off wavenumber.
const taperStart = 0.75

// Starter evaluates the initial field on the vertical grid.
type Starter struct {
	grid     *Grid
	k0       float64
	method   StarterMethod
	aperture float64 // degrees
}

// NewStarter returns a starter for the given method and aperture (half
// angle of the admitted angular spectrum, in degrees).
func NewStarter(grid *Grid, k0 float64, method StarterMethod, aperture float64) (*Starter, error) {
	if method < Gaussian || method > Thomson {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedStarterMethod, method)
	}
	if aperture <= 0 || aperture >= 90 {
		return nil, fmt.Errorf("%w: got %g", ErrInvalidAperture, aperture)
	}
	return &Starter{grid: grid, k0: k0, method: method, aperture: aperture}, nil
}

// Eval returns the starting field, length Nz in FFT order, for a source zs
// metres below the surface. The pressure-release surface is modelled with a
// negative image source at zs above it.
func (s *Starter) Eval(zs float64) ([]complex128, error) {
	if zs < 0 || zs > s.grid.Zmax {
		return nil, fmt.Errorf("%w: source depth %g m", ErrDepthOutOfRange, zs)
	}
	switch s.method {
	case Gaussian:
		return s.gaussian(zs), nil
	case Greene:
		return s.greene(zs), nil
	default:
		return s.thomson(zs), nil
	}
}

// Broadcast copies a vertical field into every angular bin, [q][z].
func Broadcast(field []complex128, nq int) [][]complex128 {
	psi := make([][]complex128, nq)
	for q := range psi {
		psi[q] = make([]complex128, len(field))
		copy(psi[q], field)
	}
	return psi
}

func (s *Starter) gaussian(zs float64) []complex128 {
	k0 := s.k0
	tan := math.Tan(s.aperture * math.Pi / 180)
	f := func(dz float64) float64 {
		return math.Sqrt(k0) * tan * math.Exp(-k0*k0*dz*dz*tan*tan/2)
	}
	out := make([]complex128, s.grid.Nz)
	for i, z := range s.grid.Z {
		out[i] = complex(f(z+zs)-f(z-zs), 0)
	}
	return out
}

func (s *Starter) greene(zs float64) []complex128 {
	k0 := s.k0
	f := func(dz float64) float64 {
		a := k0 * k0 * dz * dz
		return math.Sqrt(k0) * (1.4467 - 0.4201*a) * math.Exp(-a/3.0512)
	}
	out := make([]complex128, s.grid.Nz)
	for i, z := range s.grid.Z {
		out[i] = complex(f(z+zs)-f(z-zs), 0)
	}

	spec := fft.FFT(out)
	for m, kz := range s.grid.Kz {
		spec[m] *= complex(s.window(kz), 0)
	}
	return fft.IFFT(spec)
}

// thomson builds the wide-angle spectrum sqrt(2pi/k0) (1-kz^2/k0^2)^(-1/4)
// of the source and its image, band-limited to the aperture.
func (s *Starter) thomson(zs float64) []complex128 {
	k0 := s.k0
	amp := math.Sqrt(2 * math.Pi / k0)
	spec := make([]complex128, s.grid.Nz)
	for m, kz := range s.grid.Kz {
		w := s.window(kz)
		if w == 0 {
			continue
		}
		r := kz / k0
		a := amp * w / math.Pow(1-r*r, 0.25)
		// exp(i kz zs) - exp(-i kz zs)
		spec[m] = complex(a, 0) * 2i * complex(math.Sin(kz*zs), 0)
	}

	out := fft.IFFT(spec)
	inv := complex(1/s.grid.Dz, 0)
	for i := range out {
		out[i] *= inv
	}
	return out
}

// window is a cosine-squared taper that passes |kz| below taperStart*kc
// and reaches zero at kc = k0 sin(aperture).
func (s *Starter) window(kz float64) float64 {
	kc := s.k0 * math.Sin(s.aperture*math.Pi/180)
	k := math.Abs(kz)
	kt := taperStart * kc
	switch {
	case k <= kt:
		return 1
	case k >= kc:
		return 0
	}
	c := math.Cos(math.Pi / 2 * (k - kt) / (kc - kt))
	return c * c
}
