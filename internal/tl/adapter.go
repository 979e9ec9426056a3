package tl

import (
	"github.com/san-kum/pesim/internal/ocean"
)

// oceanBathymetry exposes a provider in local coordinates about the source.
type oceanBathymetry struct {
	p              ocean.Provider
	latRef, lonRef float64
	perLat, perLon float64
}

func newOceanBathymetry(p ocean.Provider, lat, lon float64) *oceanBathymetry {
	perLat, perLon := ocean.MetresPerDegree(lat)
	return &oceanBathymetry{p: p, latRef: lat, lonRef: lon, perLat: perLat, perLon: perLon}
}

func (b *oceanBathymetry) Elevation(x, y []float64) []float64 {
	lat, lon := ocean.XYToLL(x, y, b.latRef, b.lonRef)
	return b.p.Bathy(lat, lon)
}

// Slope converts the provider's per-degree derivatives to per-metre.
func (b *oceanBathymetry) Slope(x, y []float64) (dx, dy []float64) {
	lat, lon := ocean.XYToLL(x, y, b.latRef, b.lonRef)
	dx = b.p.BathyDeriv(lat, lon, ocean.Lon)
	dy = b.p.BathyDeriv(lat, lon, ocean.Lat)
	for i := range dx {
		dx[i] /= b.perLon
	}
	for i := range dy {
		dy[i] /= b.perLat
	}
	return dx, dy
}

type oceanSoundSpeed struct {
	p              ocean.Provider
	latRef, lonRef float64
}

func (s *oceanSoundSpeed) SoundSpeed(x, y, depth []float64) []float64 {
	lat, lon := ocean.XYToLL(x, y, s.latRef, s.lonRef)
	return s.p.SoundSpeed(lat, lon, depth)
}
