package pe

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ceilTol absorbs round-off when a range is an exact multiple of its step.
const ceilTol = 1e-9

// Grid is the discretised cylindrical (r, q, z) mesh. It is immutable once
// built and shared read-only by the starter, propagator and environment.
//
// Q, Z and Kz are stored in FFT order: Q[0] = 0 and Z[0] = 0 (sea surface),
// positive indices first, then the negative half. Z is positive above the
// surface and negative below it, so Z[Nz-i] == -Z[i].
type Grid struct {
	Dr   float64
	Rmax float64
	Nr   int

	Dq   float64
	Qmax float64
	Nq   int

	Dz   float64
	Zmax float64
	Nz   int

	R  []float64
	Q  []float64
	Z  []float64
	Kz []float64
}

// NewGrid builds a grid that tiles [0, rmax] radially, qmax radians in
// angle and [-zmax, zmax] vertically.
func NewGrid(dr, rmax, dq, qmax, dz, zmax float64) (*Grid, error) {
	if dr <= 0 || dq <= 0 || dz <= 0 {
		return nil, fmt.Errorf("%w: steps must be positive (dr=%g dq=%g dz=%g)", ErrInvalidGridSpec, dr, dq, dz)
	}
	if rmax < 0 || qmax < 0 || zmax < 0 {
		return nil, fmt.Errorf("%w: ranges must be non-negative (rmax=%g qmax=%g zmax=%g)", ErrInvalidGridSpec, rmax, qmax, zmax)
	}

	g := &Grid{Dr: dr, Rmax: rmax, Dq: dq, Qmax: qmax, Dz: dz}

	g.Nr = int(math.Ceil(rmax/dr - ceilTol))
	if g.Nr < 0 {
		g.Nr = 0
	}
	g.R = make([]float64, g.Nr+1)
	if g.Nr > 0 {
		floats.Span(g.R, 0, float64(g.Nr)*dr)
	}

	g.Nq = max(1, int(math.Ceil(qmax/dq-ceilTol)))
	g.Q = fftOrder(g.Nq, dq)

	half := max(1, int(math.Ceil(zmax/dz-ceilTol)))
	g.Nz = 2 * half
	g.Zmax = float64(half) * dz
	g.Z = fftOrder(g.Nz, dz)
	g.Kz = fftOrder(g.Nz, 2*math.Pi/(float64(g.Nz)*dz))

	return g, nil
}

// fftOrder returns i*d for the first (n+1)/2 indices and (i-n)*d for the
// rest, the numpy fftfreq layout scaled by d*n.
func fftOrder(n int, d float64) []float64 {
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < (n+1)/2 {
			v[i] = float64(i) * d
		} else {
			v[i] = float64(i-n) * d
		}
	}
	return v
}

// ShiftIndex maps a position in ascending (natural) order to its index in
// FFT order for an axis of length n.
func ShiftIndex(j, n int) int {
	return (j - n/2 + n) % n
}

// Angles returns the angular bins in ascending order.
func (g *Grid) Angles() []float64 {
	out := make([]float64, g.Nq)
	for j := range out {
		out[j] = g.Q[ShiftIndex(j, g.Nq)]
	}
	return out
}

// DepthIndex returns the grid index of the bin k*dz below the surface.
func (g *Grid) DepthIndex(k int) int {
	return ((-k % g.Nz) + g.Nz) % g.Nz
}

// DepthWeights locates depth (metres, positive below the surface) between
// two vertical bins for linear interpolation: value = (1-w)*f[i0] + w*f[i1].
func (g *Grid) DepthWeights(depth float64) (i0, i1 int, w float64, err error) {
	if math.IsNaN(depth) || math.Abs(depth) > g.Zmax {
		return 0, 0, 0, fmt.Errorf("%w: %g m not in [-%g, %g]", ErrDepthOutOfRange, depth, g.Zmax, g.Zmax)
	}
	p := depth / g.Dz
	k := math.Floor(p)
	w = p - k
	i0 = g.DepthIndex(int(k))
	i1 = g.DepthIndex(int(k) + 1)
	return i0, i1, w, nil
}
