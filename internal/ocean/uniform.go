package ocean

import (
	"context"
	"fmt"
	"math"
)

// Uniform is an ocean of constant depth, temperature and salinity. It
// covers every point, so Load only validates the region.
type Uniform struct {
	Depth       float64 // metres, positive
	Temperature float64 // deg C
	Salinity    float64 // ppt

	bounds Bounds
}

func NewUniform(depth, temp, salinity float64) (*Uniform, error) {
	if depth < 0 || math.IsNaN(depth) {
		return nil, fmt.Errorf("ocean: uniform depth must be non-negative, got %g", depth)
	}
	return &Uniform{Depth: depth, Temperature: temp, Salinity: salinity}, nil
}

func (u *Uniform) Load(ctx context.Context, b Bounds) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.Validate(); err != nil {
		return err
	}
	u.bounds = b
	return nil
}

// Loaded returns the last region passed to Load.
func (u *Uniform) Loaded() Bounds { return u.bounds }

func (u *Uniform) Bathy(lat, lon []float64) []float64 {
	out := make([]float64, len(lat))
	for i := range out {
		out[i] = -u.Depth
	}
	return out
}

func (u *Uniform) BathyDeriv(lat, lon []float64, axis Axis) []float64 {
	return make([]float64, len(lat))
}

func (u *Uniform) SoundSpeed(lat, lon, depth []float64) []float64 {
	out := make([]float64, len(depth))
	for i, d := range depth {
		out[i] = Mackenzie(u.Temperature, u.Salinity, d)
	}
	return out
}
