package tl

import (
	"errors"
	"math"
	"time"

	"github.com/san-kum/pesim/internal/pe"
)

var ErrNoVerticalSlice = errors.New("tl: vertical slice not computed")

// Result holds the transmission loss of one run, in dB re 1 m (positive
// loss). Angles run in ascending order from -AngularRange/2.
type Result struct {
	Frequency      float64
	SourceDepth    float64
	ReceiverDepths []float64
	Grid           *pe.Grid

	// TL is indexed [depth][angle][range] and starts at the first range
	// step, so it has Nr columns.
	TL [][][]float64

	// Vertical is indexed [k][range][angle] for the Nz/2 bins k*dz below
	// the surface, including r = 0. Nil unless requested. The surface row
	// sits on the pressure-release boundary, so its loss is very large.
	Vertical [][][]float64

	Elapsed time.Duration
}

// Horizontal returns the [angle][range] plane when a single receiver depth
// was computed, nil otherwise.
func (r *Result) Horizontal() [][]float64 {
	if len(r.TL) != 1 {
		return nil
	}
	return r.TL[0]
}

// Angles returns the angular bins in degrees, ascending.
func (r *Result) Angles() []float64 {
	q := r.Grid.Angles()
	for i := range q {
		q[i] *= 180 / math.Pi
	}
	return q
}

// Ranges returns the radial distances of the TL columns.
func (r *Result) Ranges() []float64 {
	return append([]float64(nil), r.Grid.R[1:]...)
}

// VerticalDepths returns the depths of the rows of Vertical.
func (r *Result) VerticalDepths() []float64 {
	d := make([]float64, r.Grid.Nz/2)
	for k := range d {
		d[k] = float64(k) * r.Grid.Dz
	}
	return d
}

// AngleIndex returns the bin nearest angleDeg, accounting for wrap-around.
func (r *Result) AngleIndex(angleDeg float64) int {
	best, bestDiff := 0, math.Inf(1)
	for j, a := range r.Angles() {
		d := math.Mod(math.Abs(a-angleDeg), 360)
		d = math.Min(d, 360-d)
		if d < bestDiff {
			best, bestDiff = j, d
		}
	}
	return best
}

// VerticalAt returns the [depth][range] slice of the angular bin nearest
// angleDeg, along with the bin's actual angle.
func (r *Result) VerticalAt(angleDeg float64) ([][]float64, float64, error) {
	if r.Vertical == nil {
		return nil, 0, ErrNoVerticalSlice
	}
	j := r.AngleIndex(angleDeg)
	out := make([][]float64, len(r.Vertical))
	for k, plane := range r.Vertical {
		row := make([]float64, len(plane))
		for n, v := range plane {
			row[n] = v[j]
		}
		out[k] = row
	}
	return out, r.Angles()[j], nil
}
