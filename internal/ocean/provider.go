package ocean

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidBounds  = errors.New("ocean: invalid bounds")
	ErrInvalidProfile = errors.New("ocean: invalid sound speed profile")
	ErrInvalidGrid    = errors.New("ocean: invalid bathymetry grid")
	ErrNotLoaded      = errors.New("ocean: provider not loaded")
)

// Axis selects the direction of a bathymetry derivative.
type Axis int

const (
	Lat Axis = iota
	Lon
)

func (a Axis) String() string {
	switch a {
	case Lat:
		return "lat"
	case Lon:
		return "lon"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// Bounds is a lat/lon box in degrees.
type Bounds struct {
	South, North float64
	West, East   float64
}

func (b Bounds) Validate() error {
	for _, v := range []float64{b.South, b.North, b.West, b.East} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite edge", ErrInvalidBounds)
		}
	}
	if b.South > b.North || b.West > b.East {
		return fmt.Errorf("%w: south=%g north=%g west=%g east=%g", ErrInvalidBounds, b.South, b.North, b.West, b.East)
	}
	if b.South < -90 || b.North > 90 {
		return fmt.Errorf("%w: latitude outside [-90, 90]", ErrInvalidBounds)
	}
	return nil
}

func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}

// Provider answers point queries about the ocean once a region is loaded.
// Elevations are metres, negative below sea level. Missing coverage is
// reported as NaN rather than an error.
type Provider interface {
	Load(ctx context.Context, b Bounds) error
	Bathy(lat, lon []float64) []float64
	// BathyDeriv is the elevation gradient along axis, metres per degree.
	BathyDeriv(lat, lon []float64, axis Axis) []float64
	SoundSpeed(lat, lon, depth []float64) []float64
}

// Circle returns the lat/lon box enclosing a circle of the given radius
// (metres) about a centre point.
func Circle(lat, lon, radius float64) Bounds {
	const n = 360
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		a := 2 * math.Pi * float64(i) / n
		x[i] = radius * math.Cos(a)
		y[i] = radius * math.Sin(a)
	}
	lats, lons := XYToLL(x, y, lat, lon)
	b := Bounds{South: lats[0], North: lats[0], West: lons[0], East: lons[0]}
	for i := range lats {
		b.South = math.Min(b.South, lats[i])
		b.North = math.Max(b.North, lats[i])
		b.West = math.Min(b.West, lons[i])
		b.East = math.Max(b.East, lons[i])
	}
	b.South = math.Max(b.South, -90)
	b.North = math.Min(b.North, 90)
	return b
}
