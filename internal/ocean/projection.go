package ocean

import "math"

// EarthRadius is the equatorial radius used by the local projection, metres.
const EarthRadius = 6378.1e3

const deg = math.Pi / 180

// MetresPerDegree returns the length of one degree of latitude and of
// longitude at the given latitude.
func MetresPerDegree(lat float64) (perLat, perLon float64) {
	perLat = EarthRadius * deg
	perLon = perLat * math.Cos(lat*deg)
	return perLat, perLon
}

// XYToLL converts local east/north offsets (metres) about a reference point
// to latitude and longitude, using an equirectangular projection tangent at
// the reference latitude.
func XYToLL(x, y []float64, latRef, lonRef float64) (lat, lon []float64) {
	perLat, perLon := MetresPerDegree(latRef)
	lat = make([]float64, len(y))
	lon = make([]float64, len(x))
	for i := range y {
		lat[i] = latRef + y[i]/perLat
	}
	for i := range x {
		lon[i] = lonRef + x[i]/perLon
	}
	return lat, lon
}

// LLToXY is the inverse of XYToLL.
func LLToXY(lat, lon []float64, latRef, lonRef float64) (x, y []float64) {
	perLat, perLon := MetresPerDegree(latRef)
	x = make([]float64, len(lon))
	y = make([]float64, len(lat))
	for i := range lon {
		x[i] = (lon[i] - lonRef) * perLon
	}
	for i := range lat {
		y[i] = (lat[i] - latRef) * perLat
	}
	return x, y
}
