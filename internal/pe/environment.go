package pe

import (
	"fmt"
	"math"
	"math/cmplx"
)

// Never is the update cadence of a range-independent input: it is sampled
// once on the first update and never refreshed.
const Never = -1

// Bathymetry samples the seafloor in local coordinates (metres east and
// north of the source origin). Elevation is negative below sea level and
// NaN where no data is available.
type Bathymetry interface {
	Elevation(x, y []float64) []float64
	Slope(x, y []float64) (dx, dy []float64)
}

// SoundSpeed samples the water sound speed in m/s at local coordinates and
// depth (metres, positive below the surface).
type SoundSpeed interface {
	SoundSpeed(x, y, depth []float64) []float64
}

// EnvConfig holds everything needed to build an Environment.
type EnvConfig struct {
	K0      float64
	Grid    *Grid
	SourceX float64
	SourceY float64

	// Steps between refreshes, positive or Never.
	BathyCadence      int
	SoundSpeedCadence int

	C0           float64
	WaterDensity float64

	// Seafloor must be bound to the run frequency with SetFrequency.
	Seafloor *Seafloor

	// Tanh transition widths across the seafloor. Zero picks the defaults:
	// machine epsilon for sound speed, a quarter wavelength for density.
	SmoothingSoundSpeed float64
	SmoothingDensity    float64

	// Absorption layer thickness as a fraction of the vertical half-extent.
	AbsorptionLayer float64

	Bathymetry          Bathymetry
	FlatDepth           float64 // used instead of Bathymetry when > 0
	SoundSpeed          SoundSpeed
	IgnoreBathyGradient bool
}

// Environment produces the per-step refraction operator U for every
// angular and vertical bin. It caches the sampled bathymetry and sound
// speed between scheduled refreshes and recomputes derived quantities only
// for angular bins whose inputs changed.
//
// The first Update is a bootstrap that samples and computes every bin
// unconditionally; later calls are incremental. An Environment is owned by
// a single propagation run and is not safe for concurrent use.
type Environment struct {
	cfg  EnvConfig
	grid *Grid
	k0   float64
	dr   float64

	cosq, sinq []float64
	n2b        complex128
	att        []complex128

	bootstrapped bool
	nextBathy    float64
	nextSound    float64

	// per angular bin
	depthOld []float64
	depth    []float64
	gradient []float64
	changed  []bool

	// per angular bin, per vertical bin
	height    [][]float64
	n2w       [][]float64
	n2wNew    [][]float64
	n2in      [][]complex128
	denin     [][]float64
	ddenin    [][]float64
	d2denin   [][]float64
	sqrtDenin [][]float64
	scale     [][]float64
	u         [][]complex128

	bathyRefreshes int
	soundRefreshes int
	recomputed     int
}

// NewEnvironment validates cfg and allocates the caches. No sampling
// happens until the first Update.
func NewEnvironment(cfg EnvConfig) (*Environment, error) {
	if cfg.Grid == nil {
		return nil, fmt.Errorf("%w: nil grid", ErrInvalidGridSpec)
	}
	if cfg.Seafloor == nil || (cfg.Bathymetry == nil && cfg.FlatDepth <= 0) {
		return nil, ErrMissingSeafloorSpec
	}
	n2b, err := cfg.Seafloor.N2(cfg.C0)
	if err != nil {
		return nil, err
	}
	if !validCadence(cfg.BathyCadence) || !validCadence(cfg.SoundSpeedCadence) {
		return nil, fmt.Errorf("%w: bathy=%d sound speed=%d", ErrInvalidCadence, cfg.BathyCadence, cfg.SoundSpeedCadence)
	}
	if cfg.WaterDensity <= 0 || cfg.Seafloor.Density <= 0 {
		return nil, fmt.Errorf("%w: water=%g bottom=%g", ErrInvalidDensity, cfg.WaterDensity, cfg.Seafloor.Density)
	}
	if cfg.SmoothingSoundSpeed <= 0 {
		cfg.SmoothingSoundSpeed = machineEpsilon
	}
	if cfg.SmoothingDensity <= 0 {
		cfg.SmoothingDensity = cfg.C0 / cfg.Seafloor.Frequency() / 4
	}
	sf := *cfg.Seafloor
	cfg.Seafloor = &sf

	g := cfg.Grid
	e := &Environment{
		cfg:      cfg,
		grid:     g,
		k0:       cfg.K0,
		dr:       g.Dr,
		n2b:      n2b,
		cosq:     make([]float64, g.Nq),
		sinq:     make([]float64, g.Nq),
		depthOld: make([]float64, g.Nq),
		depth:    make([]float64, g.Nq),
		gradient: make([]float64, g.Nq),
		changed:  make([]bool, g.Nq),
		att:      absorption(g, cfg.AbsorptionLayer),

		height:    newReal(g.Nq, g.Nz),
		n2w:       newReal(g.Nq, g.Nz),
		n2wNew:    newReal(g.Nq, g.Nz),
		n2in:      newComplex(g.Nq, g.Nz),
		denin:     newReal(g.Nq, g.Nz),
		ddenin:    newReal(g.Nq, g.Nz),
		d2denin:   newReal(g.Nq, g.Nz),
		sqrtDenin: newReal(g.Nq, g.Nz),
		scale:     newReal(g.Nq, g.Nz),
		u:         newComplex(g.Nq, g.Nz),
	}
	for q, theta := range g.Q {
		e.sinq[q], e.cosq[q] = math.Sincos(theta)
	}
	return e, nil
}

const machineEpsilon = 2.220446049250313e-16

func validCadence(n int) bool {
	return n >= 1 || n == Never
}

// absorption is the imaginary refractive-index term of the artificial
// layer at the top and bottom of the vertical domain.
func absorption(g *Grid, layer float64) []complex128 {
	att := make([]complex128, g.Nz)
	if layer <= 0 {
		return att
	}
	coeff := 1 / math.Log10(math.E) / math.Pi
	d := layer * g.Zmax / 3
	for i, z := range g.Z {
		x := (math.Abs(z) - g.Zmax) / d
		att[i] = complex(0, coeff*math.Exp(-x*x))
	}
	return att
}

func newReal(nq, nz int) [][]float64 {
	a := make([][]float64, nq)
	for q := range a {
		a[q] = make([]float64, nz)
	}
	return a
}

func newComplex(nq, nz int) [][]complex128 {
	a := make([][]complex128, nq)
	for q := range a {
		a[q] = make([]complex128, nz)
	}
	return a
}

// Update advances the environment to dist metres from the source and
// returns the propagation operator U indexed [q][z]. The returned slices
// are owned by the Environment and overwritten by later calls.
func (e *Environment) Update(dist float64) [][]complex128 {
	for q := range e.changed {
		e.changed[q] = false
	}

	// Half a step of slack absorbs rounding in the range axis.
	first := !e.bootstrapped
	slack := e.dr / 2
	if first || dist >= e.nextBathy-slack {
		e.refreshBathy(dist, first)
	}
	if first || (e.cfg.SoundSpeedCadence != Never && dist >= e.nextSound-slack) {
		e.refreshSoundSpeed(dist, first)
	}
	e.bootstrapped = true

	for q, c := range e.changed {
		if c {
			e.recompute(q)
		}
	}
	return e.u
}

func nextRefresh(dist float64, cadence int, dr float64) float64 {
	if cadence == Never {
		return math.Inf(1)
	}
	return dist + float64(cadence)*dr
}

// circle returns the local coordinates of the Nq points at distance dist
// from the source.
func (e *Environment) circle(dist float64) (x, y []float64) {
	x = make([]float64, len(e.cosq))
	y = make([]float64, len(e.cosq))
	for q := range e.cosq {
		x[q] = e.cfg.SourceX + e.cosq[q]*dist
		y[q] = e.cfg.SourceY + e.sinq[q]*dist
	}
	return x, y
}

func (e *Environment) refreshBathy(dist float64, first bool) {
	e.nextBathy = nextRefresh(dist, e.cfg.BathyCadence, e.dr)
	e.bathyRefreshes++

	depthNew, gradNew := e.seafloor(dist)

	for q, d := range depthNew {
		prev := e.depthOld[q]
		e.depthOld[q] = d

		if math.IsNaN(d) {
			if !first {
				continue
			}
			d = 0
		} else if !first && d == prev {
			continue
		}

		grad := gradNew[q]
		if math.IsNaN(grad) {
			grad = 0
		}
		e.depth[q] = d
		e.gradient[q] = grad
		for z, zz := range e.grid.Z {
			e.height[q][z] = math.Abs(zz) - d
		}
		e.changed[q] = true
	}
}

// seafloor returns depth (positive below the surface) and the depth
// gradient along each ray at distance dist.
func (e *Environment) seafloor(dist float64) (depth, gradient []float64) {
	n := e.grid.Nq
	depth = make([]float64, n)
	gradient = make([]float64, n)

	if e.cfg.FlatDepth > 0 {
		for q := range depth {
			depth[q] = e.cfg.FlatDepth
		}
		return depth, gradient
	}

	x, y := e.circle(dist)
	elev := e.cfg.Bathymetry.Elevation(x, y)
	for q := range depth {
		depth[q] = -elev[q]
	}
	if e.cfg.IgnoreBathyGradient {
		return depth, gradient
	}

	dx, dy := e.cfg.Bathymetry.Slope(x, y)
	for q := range gradient {
		gradient[q] = -(e.cosq[q]*dx[q] + e.sinq[q]*dy[q])
	}
	return depth, gradient
}

func (e *Environment) refreshSoundSpeed(dist float64, first bool) {
	e.nextSound = nextRefresh(dist, e.cfg.SoundSpeedCadence, e.dr)
	e.soundRefreshes++

	g := e.grid
	half := g.Nz / 2
	below := half + 1 // surface bin plus the Nz/2 bins below it

	var c []float64
	if e.cfg.SoundSpeed != nil {
		x, y := e.circle(dist)
		px := make([]float64, 0, g.Nq*below)
		py := make([]float64, 0, g.Nq*below)
		pd := make([]float64, 0, g.Nq*below)
		for q := 0; q < g.Nq; q++ {
			for k := 0; k < below; k++ {
				px = append(px, x[q])
				py = append(py, y[q])
				pd = append(pd, float64(k)*g.Dz)
			}
		}
		c = e.cfg.SoundSpeed.SoundSpeed(px, py, pd)
	}

	for q := 0; q < g.Nq; q++ {
		cur, next := e.n2w[q], e.n2wNew[q]
		copy(next, cur)

		diff := first
		for k := 0; k < below; k++ {
			i := g.DepthIndex(k)
			v := 1.0
			if c != nil {
				cs := c[q*below+k]
				switch {
				case !math.IsNaN(cs) && cs > 0:
					r := e.cfg.C0 / cs
					v = r * r
				case !first:
					v = cur[i]
				}
			}
			next[i] = v
			if next[i] != cur[i] {
				diff = true
			}
		}
		if !diff {
			continue
		}

		// mirror the profile about the surface
		for i := 1; i < half; i++ {
			next[i] = next[g.Nz-i]
		}
		copy(cur, next)
		e.changed[q] = true
	}
}

// recompute refreshes the smoothed refractive index, density profile and U
// for one angular bin.
func (e *Environment) recompute(q int) {
	e.recomputed++

	ls := e.cfg.SmoothingSoundSpeed
	lr := e.cfg.SmoothingDensity
	rw := e.cfg.WaterDensity
	drho := e.cfg.Seafloor.Density - rw
	g2 := 1 + e.gradient[q]*e.gradient[q]
	k0 := e.k0
	phase := complex(0, e.dr*k0)

	for z := range e.grid.Z {
		h := e.height[q][z]

		hc := (1 + math.Tanh(h/ls/2)) / 2
		n2 := complex(e.n2w[q][z], 0)
		n2in := n2 + (e.n2b-n2)*complex(hc, 0)
		if z == 0 && e.depth[q] == 0 {
			n2in = e.n2b
		}
		e.n2in[q][z] = n2in

		th := math.Tanh(h / lr / 2)
		den := rw + drho*(1+th)/2
		sech := 1 / math.Cosh(h/lr/2)
		sech2 := sech * sech
		dd := drho / 2 * sech2 / lr / 2 * math.Sqrt(g2)
		d2 := drho / 2 * (-sech2 / lr / 2 * (th / lr * g2))

		e.denin[q][z] = den
		e.ddenin[q][z] = dd
		e.d2denin[q][z] = d2
		e.sqrtDenin[q][z] = math.Sqrt(den)
		e.scale[q][z] = math.Sqrt(den / rw)

		corr := (d2/den - 1.5*(dd/den)*(dd/den)) / (2 * k0 * k0)
		arg := n2in + e.att[z] + complex(corr, 0)
		e.u[q][z] = cmplx.Exp(phase * (Csqrt(arg) - 1))
	}
}

// DensityScale returns sqrt(rho/rho_water) indexed [q][z], the factor that
// converts the marched field back to pressure.
func (e *Environment) DensityScale() [][]float64 {
	return e.scale
}

// U returns the current propagation operator indexed [q][z].
func (e *Environment) U() [][]complex128 {
	return e.u
}

// WaterN2 returns the cached water refractive index squared, [q][z].
func (e *Environment) WaterN2() [][]float64 {
	return e.n2w
}

// RefractiveIndex returns the smoothed complex refractive index squared,
// [q][z].
func (e *Environment) RefractiveIndex() [][]complex128 {
	return e.n2in
}

// Density returns the smoothed density profile and its first and second
// derivatives normal to the seafloor, each [q][z].
func (e *Environment) Density() (den, dden, d2den [][]float64) {
	return e.denin, e.ddenin, e.d2denin
}

// Depths returns the cached seafloor depth per angular bin.
func (e *Environment) Depths() []float64 {
	return e.depth
}

// BottomN2 returns the complex refractive index squared of the seafloor.
func (e *Environment) BottomN2() complex128 {
	return e.n2b
}

// Refreshes reports how many bathymetry and sound-speed samples were taken
// and how many angular-bin recomputations followed.
func (e *Environment) Refreshes() (bathy, soundSpeed, recomputed int) {
	return e.bathyRefreshes, e.soundRefreshes, e.recomputed
}
