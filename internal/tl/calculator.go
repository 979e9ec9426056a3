package tl

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"github.com/san-kum/pesim/internal/ocean"
	"github.com/san-kum/pesim/internal/pe"
	"gonum.org/v1/gonum/floats"
)

// Options configures a Calculator. Zero numeric fields take the defaults
// noted on each field; DefaultOptions fills the rest.
type Options struct {
	Ocean    ocean.Provider
	Seafloor *pe.Seafloor

	// SoundSpeed overrides the provider's sound speed. It is treated as
	// range independent and sampled once.
	SoundSpeed pe.SoundSpeed

	// FlatSeafloorDepth replaces the provider's bathymetry when > 0.
	FlatSeafloorDepth float64

	SourceLat float64
	SourceLon float64

	RefSoundSpeed float64 // c0, default 1500 m/s
	WaterDensity  float64 // default 1 g/cm^3

	RadialBin     float64 // metres, default half a wavelength
	RadialRange   float64 // metres, default 50 km
	AngularBin    float64 // degrees, default 10
	AngularRange  float64 // degrees, default 360
	VerticalBin   float64 // metres, default a quarter wavelength
	VerticalRange float64 // metres, default from the deepest bathymetry

	AbsorptionLayer float64 // fraction of the vertical range, default 1/6

	StarterMethod   pe.StarterMethod
	StarterAperture float64 // degrees, default 88

	BathyCadence      int // steps between refreshes, default 1
	SoundSpeedCadence int // default 1, or pe.Never

	// Margin is added to the radial range when loading the provider,
	// default 10 km.
	Margin float64

	Observers []pe.Observer
}

func DefaultOptions() Options {
	return Options{
		Seafloor:          pe.DefaultSeafloor(),
		RefSoundSpeed:     1500,
		WaterDensity:      1,
		RadialRange:       50e3,
		AngularBin:        10,
		AngularRange:      360,
		AbsorptionLayer:   1.0 / 6,
		StarterMethod:     pe.Thomson,
		StarterAperture:   88,
		BathyCadence:      1,
		SoundSpeedCadence: 1,
		Margin:            10e3,
	}
}

func (o *Options) setDefaults() {
	d := DefaultOptions()
	if o.RefSoundSpeed <= 0 {
		o.RefSoundSpeed = d.RefSoundSpeed
	}
	if o.WaterDensity == 0 {
		o.WaterDensity = d.WaterDensity
	}
	if o.RadialRange == 0 {
		o.RadialRange = d.RadialRange
	}
	if o.AngularBin == 0 {
		o.AngularBin = d.AngularBin
	}
	if o.AngularRange == 0 {
		o.AngularRange = d.AngularRange
	}
	if o.AbsorptionLayer == 0 {
		o.AbsorptionLayer = d.AbsorptionLayer
	}
	if o.StarterAperture == 0 {
		o.StarterAperture = d.StarterAperture
	}
	if o.BathyCadence == 0 {
		o.BathyCadence = d.BathyCadence
	}
	if o.SoundSpeedCadence == 0 {
		o.SoundSpeedCadence = d.SoundSpeedCadence
	}
	if o.Margin == 0 {
		o.Margin = d.Margin
	}
}

// Calculator computes transmission loss around a source with the
// parabolic equation.
type Calculator struct {
	opts Options
	last *Result

	// set when the provider has already been loaded for this source
	preloaded bool
}

func NewCalculator(opts Options) (*Calculator, error) {
	opts.setDefaults()
	if opts.Seafloor == nil {
		return nil, fmt.Errorf("%w: no seafloor", pe.ErrMissingSeafloorSpec)
	}
	if opts.Ocean == nil && opts.FlatSeafloorDepth <= 0 {
		return nil, fmt.Errorf("%w: need an ocean provider or a flat seafloor depth", pe.ErrMissingSeafloorSpec)
	}
	if opts.RadialRange < 0 || opts.AngularBin < 0 || opts.AngularRange < 0 || opts.RadialBin < 0 || opts.VerticalBin < 0 || opts.VerticalRange < 0 {
		return nil, fmt.Errorf("%w: bins and ranges must be non-negative", pe.ErrInvalidGridSpec)
	}
	if opts.AbsorptionLayer < 0 {
		return nil, fmt.Errorf("%w: absorption layer %g", pe.ErrInvalidGridSpec, opts.AbsorptionLayer)
	}
	return &Calculator{opts: opts}, nil
}

// Options returns the effective options after defaults.
func (c *Calculator) Options() Options { return c.opts }

// Last returns the result of the most recent successful Run, or nil.
func (c *Calculator) Last() *Result { return c.last }

// Run computes the transmission loss at the given frequency (Hz) for a
// source at sourceDepth on horizontal planes at each receiver depth, and
// optionally on the vertical plane of every angular bin.
func (c *Calculator) Run(ctx context.Context, frequency, sourceDepth float64, receiverDepths []float64, verticalSlice, ignoreBathyGradient bool) (*Result, error) {
	start := time.Now()
	o := c.opts
	if frequency <= 0 || math.IsNaN(frequency) {
		return nil, fmt.Errorf("%w: frequency %g Hz", pe.ErrFrequencyNotSet, frequency)
	}
	if len(receiverDepths) == 0 {
		receiverDepths = []float64{0.1}
	}

	o.Seafloor.SetFrequency(frequency)

	if o.Ocean != nil && !c.preloaded {
		b := ocean.Circle(o.SourceLat, o.SourceLon, o.RadialRange+o.Margin)
		if err := o.Ocean.Load(ctx, b); err != nil {
			return nil, fmt.Errorf("load ocean data: %w", err)
		}
	}

	grid, err := c.grid(frequency)
	if err != nil {
		return nil, err
	}

	k0 := 2 * math.Pi * frequency / o.RefSoundSpeed
	starter, err := pe.NewStarter(grid, k0, o.StarterMethod, o.StarterAperture)
	if err != nil {
		return nil, err
	}
	field, err := starter.Eval(sourceDepth)
	if err != nil {
		return nil, err
	}

	env, err := pe.NewEnvironment(c.envConfig(grid, k0, frequency, ignoreBathyGradient))
	if err != nil {
		return nil, err
	}

	prop := pe.NewPropagator(grid, k0, env)
	for _, obs := range o.Observers {
		prop.AddObserver(obs)
	}

	out, err := prop.RunContext(ctx, pe.Broadcast(field, grid.Nq), receiverDepths, verticalSlice)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Frequency:      frequency,
		SourceDepth:    sourceDepth,
		ReceiverDepths: append([]float64(nil), receiverDepths...),
		Grid:           grid,
		TL:             horizontalTL(grid, out.Horizontal),
	}
	if verticalSlice {
		res.Vertical = verticalTL(grid, out.Vertical)
	}
	res.Elapsed = time.Since(start)

	c.last = res
	return res, nil
}

func (c *Calculator) grid(frequency float64) (*pe.Grid, error) {
	o := c.opts
	lambda := o.RefSoundSpeed / frequency

	dr := o.RadialBin
	if dr == 0 {
		dr = lambda / 2
	}
	dz := o.VerticalBin
	if dz == 0 {
		dz = lambda / 4
	}
	zmax := o.VerticalRange
	if zmax == 0 {
		zmax = (c.maxDepth() + o.Seafloor.Thickness) * (1 + o.AbsorptionLayer)
	}
	deg := math.Pi / 180
	return pe.NewGrid(dr, o.RadialRange, o.AngularBin*deg, o.AngularRange*deg, dz, zmax)
}

// maxDepth is the deepest point of a polar lattice over the query region.
func (c *Calculator) maxDepth() float64 {
	o := c.opts
	if o.FlatSeafloorDepth > 0 {
		return o.FlatSeafloorDepth
	}

	const nAngles, nRanges = 72, 64
	ranges := make([]float64, nRanges)
	floats.Span(ranges, 0, o.RadialRange)
	x := make([]float64, 0, nAngles*nRanges)
	y := make([]float64, 0, nAngles*nRanges)
	for a := 0; a < nAngles; a++ {
		s, cs := math.Sincos(2 * math.Pi * float64(a) / nAngles)
		for _, r := range ranges {
			x = append(x, r*cs)
			y = append(y, r*s)
		}
	}
	lat, lon := ocean.XYToLL(x, y, o.SourceLat, o.SourceLon)

	deepest := 0.0
	for _, e := range o.Ocean.Bathy(lat, lon) {
		if !math.IsNaN(e) {
			deepest = math.Max(deepest, -e)
		}
	}
	return deepest
}

func (c *Calculator) envConfig(grid *pe.Grid, k0, frequency float64, ignoreGradient bool) pe.EnvConfig {
	o := c.opts
	cfg := pe.EnvConfig{
		K0:                  k0,
		Grid:                grid,
		BathyCadence:        o.BathyCadence,
		SoundSpeedCadence:   o.SoundSpeedCadence,
		C0:                  o.RefSoundSpeed,
		WaterDensity:        o.WaterDensity,
		Seafloor:            o.Seafloor,
		SmoothingSoundSpeed: math.Nextafter(1, 2) - 1,
		SmoothingDensity:    o.RefSoundSpeed / frequency / 4,
		AbsorptionLayer:     o.AbsorptionLayer,
		IgnoreBathyGradient: ignoreGradient,
	}

	if o.FlatSeafloorDepth > 0 {
		cfg.FlatDepth = o.FlatSeafloorDepth
	} else {
		cfg.Bathymetry = newOceanBathymetry(o.Ocean, o.SourceLat, o.SourceLon)
	}

	switch {
	case o.SoundSpeed != nil:
		cfg.SoundSpeed = o.SoundSpeed
		cfg.SoundSpeedCadence = pe.Never
	case o.Ocean != nil:
		cfg.SoundSpeed = &oceanSoundSpeed{p: o.Ocean, latRef: o.SourceLat, lonRef: o.SourceLon}
	}
	return cfg
}

// BathymetryTransect returns the seafloor depth (positive, metres) at the
// given ranges along the ray at angleDeg from the source. The provider
// must already be loaded, which Run does.
func (c *Calculator) BathymetryTransect(angleDeg float64, ranges []float64) []float64 {
	o := c.opts
	out := make([]float64, len(ranges))
	if o.FlatSeafloorDepth > 0 {
		for i := range out {
			out[i] = o.FlatSeafloorDepth
		}
		return out
	}

	s, cs := math.Sincos(angleDeg * math.Pi / 180)
	x := make([]float64, len(ranges))
	y := make([]float64, len(ranges))
	for i, r := range ranges {
		x[i] = r * cs
		y[i] = r * s
	}
	lat, lon := ocean.XYToLL(x, y, o.SourceLat, o.SourceLon)
	for i, e := range o.Ocean.Bathy(lat, lon) {
		out[i] = -e
	}
	return out
}

func lossDB(p complex128) float64 {
	return -20 * math.Log10(cmplx.Abs(p))
}

// horizontalTL drops the r = 0 column and reorders angles ascending.
func horizontalTL(g *pe.Grid, field [][][]complex128) [][][]float64 {
	tl := make([][][]float64, len(field))
	for d, plane := range field {
		tl[d] = make([][]float64, g.Nq)
		for j := range tl[d] {
			row := plane[pe.ShiftIndex(j, g.Nq)]
			out := make([]float64, g.Nr)
			for n := 1; n <= g.Nr; n++ {
				out[n-1] = lossDB(row[n])
			}
			tl[d][j] = out
		}
	}
	return tl
}

// verticalTL reorders [q][k][n] into [k][n][j] with j in ascending angle.
func verticalTL(g *pe.Grid, field [][][]complex128) [][][]float64 {
	half := g.Nz / 2
	tl := make([][][]float64, half)
	for k := range tl {
		tl[k] = make([][]float64, g.Nr+1)
		for n := range tl[k] {
			row := make([]float64, g.Nq)
			for j := range row {
				row[j] = lossDB(field[pe.ShiftIndex(j, g.Nq)][k][n])
			}
			tl[k][n] = row
		}
	}
	return tl
}
