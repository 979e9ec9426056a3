package ocean

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// Gridded serves bathymetry from a regular lat/lon elevation grid and sound
// speed from a single depth profile applied everywhere.
//
// Elevation is indexed [lat][lon]. Lats and Lons must be strictly
// increasing. Points outside the grid read as NaN.
type Gridded struct {
	Lats      []float64
	Lons      []float64
	Elevation [][]float64

	ProfileDepths []float64
	ProfileSpeeds []float64

	ssp    interp.PiecewiseLinear
	flat   float64
	loaded bool
}

// Load checks the grid and fits the sound speed profile. The region only
// needs to be valid; parts of it the grid does not cover read as NaN.
func (g *Gridded) Load(ctx context.Context, b Bounds) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	if err := g.validateGrid(); err != nil {
		return err
	}
	if err := g.fitProfile(); err != nil {
		return err
	}
	g.loaded = true
	return nil
}

func (g *Gridded) validateGrid() error {
	if len(g.Lats) < 2 || len(g.Lons) < 2 {
		return fmt.Errorf("%w: need at least 2x2 nodes, got %dx%d", ErrInvalidGrid, len(g.Lats), len(g.Lons))
	}
	if !increasing(g.Lats) || !increasing(g.Lons) {
		return fmt.Errorf("%w: axes must be strictly increasing", ErrInvalidGrid)
	}
	if len(g.Elevation) != len(g.Lats) {
		return fmt.Errorf("%w: %d elevation rows for %d latitudes", ErrInvalidGrid, len(g.Elevation), len(g.Lats))
	}
	for i, row := range g.Elevation {
		if len(row) != len(g.Lons) {
			return fmt.Errorf("%w: row %d has %d values for %d longitudes", ErrInvalidGrid, i, len(row), len(g.Lons))
		}
	}
	return nil
}

func (g *Gridded) fitProfile() error {
	n := len(g.ProfileDepths)
	if n == 0 || n != len(g.ProfileSpeeds) {
		return fmt.Errorf("%w: %d depths, %d speeds", ErrInvalidProfile, n, len(g.ProfileSpeeds))
	}
	if floats.HasNaN(g.ProfileSpeeds) || floats.Min(g.ProfileSpeeds) <= 0 {
		return fmt.Errorf("%w: speeds must be positive", ErrInvalidProfile)
	}
	if n == 1 {
		g.flat = g.ProfileSpeeds[0]
		return nil
	}
	if !increasing(g.ProfileDepths) {
		return fmt.Errorf("%w: depths must be strictly increasing", ErrInvalidProfile)
	}
	return g.ssp.Fit(g.ProfileDepths, g.ProfileSpeeds)
}

func (g *Gridded) Bathy(lat, lon []float64) []float64 {
	out := make([]float64, len(lat))
	for n := range out {
		i, u, okLat := cell(g.Lats, lat[n])
		j, v, okLon := cell(g.Lons, lon[n])
		if !g.loaded || !okLat || !okLon {
			out[n] = math.NaN()
			continue
		}
		e := g.Elevation
		out[n] = (1-u)*(1-v)*e[i][j] + (1-u)*v*e[i][j+1] + u*(1-v)*e[i+1][j] + u*v*e[i+1][j+1]
	}
	return out
}

// BathyDeriv differentiates the bilinear surface inside the containing cell.
func (g *Gridded) BathyDeriv(lat, lon []float64, axis Axis) []float64 {
	out := make([]float64, len(lat))
	for n := range out {
		i, u, okLat := cell(g.Lats, lat[n])
		j, v, okLon := cell(g.Lons, lon[n])
		if !g.loaded || !okLat || !okLon {
			out[n] = math.NaN()
			continue
		}
		e := g.Elevation
		switch axis {
		case Lat:
			d := (1-v)*(e[i+1][j]-e[i][j]) + v*(e[i+1][j+1]-e[i][j+1])
			out[n] = d / (g.Lats[i+1] - g.Lats[i])
		default:
			d := (1-u)*(e[i][j+1]-e[i][j]) + u*(e[i+1][j+1]-e[i+1][j])
			out[n] = d / (g.Lons[j+1] - g.Lons[j])
		}
	}
	return out
}

// SoundSpeed interpolates the profile linearly in depth. Depths beyond the
// profile take the nearest end value.
func (g *Gridded) SoundSpeed(lat, lon, depth []float64) []float64 {
	out := make([]float64, len(depth))
	for n, d := range depth {
		switch {
		case !g.loaded || math.IsNaN(d):
			out[n] = math.NaN()
		case len(g.ProfileDepths) == 1:
			out[n] = g.flat
		default:
			out[n] = g.ssp.Predict(d)
		}
	}
	return out
}

// cell locates x on the axis and returns the lower node and the fractional
// position within the cell.
func cell(axis []float64, x float64) (int, float64, bool) {
	last := len(axis) - 1
	if math.IsNaN(x) || x < axis[0] || x > axis[last] {
		return 0, 0, false
	}
	i := sort.SearchFloat64s(axis, x) - 1
	i = max(0, min(i, last-1))
	return i, (x - axis[i]) / (axis[i+1] - axis[i]), true
}

func increasing(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if !(v[i] > v[i-1]) {
			return false
		}
	}
	return true
}
