package pe

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Medium supplies the per-step refraction operator and the density
// scaling used to recover pressure. Environment implements it.
type Medium interface {
	Update(dist float64) [][]complex128
	DensityScale() [][]float64
}

// Observer is notified after every range step.
type Observer interface {
	OnStep(step int, dist float64)
}

// Output is the complex pressure history of a run. Column 0 along the range
// axis holds the starting field at r = 0, which carries no spreading factor.
type Output struct {
	Depths []float64

	// Horizontal is indexed [depth][q][n], n = 0..Nr.
	Horizontal [][][]complex128

	// Vertical is indexed [q][k][n] for the Nz/2 bins k*dz below the
	// surface. Nil unless a vertical slice was requested.
	Vertical [][][]complex128
}

// Propagator marches the field outward in range with the split-step
// Fourier method.
type Propagator struct {
	grid      *Grid
	k0        float64
	env       Medium
	free      []complex128
	observers []Observer
}

// NewPropagator precomputes the free-space diffraction half-step
// exp(i dr/2 (sqrt(k0^2 - kz^2) - k0)).
func NewPropagator(grid *Grid, k0 float64, env Medium) *Propagator {
	free := make([]complex128, grid.Nz)
	half := complex(0, grid.Dr/2)
	for m, kz := range grid.Kz {
		kr := Csqrt(complex(k0*k0-kz*kz, 0))
		free[m] = cmplx.Exp(half * (kr - complex(k0, 0)))
	}
	return &Propagator{
		grid: grid,
		k0:   k0,
		env:  env,
		free: free,
	}
}

func (p *Propagator) AddObserver(o Observer) { p.observers = append(p.observers, o) }

// Run is RunContext with a background context.
func (p *Propagator) Run(psi0 [][]complex128, depths []float64, verticalSlice bool) (*Output, error) {
	return p.RunContext(context.Background(), psi0, depths, verticalSlice)
}

// RunContext marches psi0 (indexed [q][z]) through all Nr range steps and
// records the pressure at the receiver depths and, optionally, on the full
// vertical plane of every angular bin. psi0 is not modified.
func (p *Propagator) RunContext(ctx context.Context, psi0 [][]complex128, depths []float64, verticalSlice bool) (*Output, error) {
	g := p.grid
	if len(psi0) != g.Nq {
		return nil, fmt.Errorf("pe: starting field has %d angular bins, grid has %d", len(psi0), g.Nq)
	}

	type tap struct {
		i0, i1 int
		w      float64
	}
	taps := make([]tap, len(depths))
	for d, depth := range depths {
		i0, i1, w, err := g.DepthWeights(depth)
		if err != nil {
			return nil, err
		}
		taps[d] = tap{i0, i1, w}
	}

	psi := make([][]complex128, g.Nq)
	for q, col := range psi0 {
		if len(col) != g.Nz {
			return nil, fmt.Errorf("pe: starting field has %d vertical bins, grid has %d", len(col), g.Nz)
		}
		psi[q] = make([]complex128, g.Nz)
		copy(psi[q], col)
	}

	out := &Output{
		Depths:     append([]float64(nil), depths...),
		Horizontal: make([][][]complex128, len(depths)),
	}
	for d := range depths {
		out.Horizontal[d] = make([][]complex128, g.Nq)
		for q := range psi {
			row := make([]complex128, g.Nr+1)
			t := taps[d]
			row[0] = complex(1-t.w, 0)*psi[q][t.i0] + complex(t.w, 0)*psi[q][t.i1]
			out.Horizontal[d][q] = row
		}
	}

	half := g.Nz / 2
	if verticalSlice {
		out.Vertical = make([][][]complex128, g.Nq)
		for q := range psi {
			out.Vertical[q] = make([][]complex128, half)
			for k := 0; k < half; k++ {
				row := make([]complex128, g.Nr+1)
				row[0] = psi[q][g.DepthIndex(k)]
				out.Vertical[q][k] = row
			}
		}
	}

	for n := 1; n <= g.Nr; n++ {
		select {
		case <-ctx.Done():
			return out, &StepError{Step: n, Range: g.R[n], Wrapped: ctx.Err()}
		default:
		}

		u := p.env.Update(g.R[n-1] + g.Dr/2)
		scale := p.env.DensityScale()
		spread := complex(math.Sqrt(2/(math.Pi*p.k0*g.R[n])), 0)

		for q := range psi {
			col := p.diffract(psi[q])
			for z := range col {
				col[z] *= u[q][z]
			}
			col = p.diffract(col)
			psi[q] = col

			sq := scale[q]
			for d, t := range taps {
				v := complex((1-t.w)*sq[t.i0], 0)*col[t.i0] + complex(t.w*sq[t.i1], 0)*col[t.i1]
				v *= spread
				if cmplx.IsNaN(v) || cmplx.IsInf(v) {
					return out, &StepError{Step: n, Range: g.R[n], Wrapped: ErrNonFiniteField}
				}
				out.Horizontal[d][q][n] = v
			}
			if verticalSlice {
				for k := 0; k < half; k++ {
					i := g.DepthIndex(k)
					out.Vertical[q][k][n] = complex(sq[i], 0) * col[i] * spread
				}
			}
		}

		for _, o := range p.observers {
			o.OnStep(n, g.R[n])
		}
	}

	return out, nil
}

// diffract applies one free-space half-step in the vertical wavenumber
// domain and returns a new slice.
func (p *Propagator) diffract(col []complex128) []complex128 {
	spec := fft.FFT(col)
	for m := range spec {
		spec[m] *= p.free[m]
	}
	return fft.IFFT(spec)
}
