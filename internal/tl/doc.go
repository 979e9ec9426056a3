// Package tl computes underwater transmission loss around a point source.
//
// A Calculator ties an ocean.Provider and a pe.Seafloor to the parabolic
// equation solver in package pe: it loads the region around the source,
// sizes the grid from the frequency and the deepest bathymetry, marches the
// field and converts pressure to loss in dB.
//
// # Example
//
//	u, _ := ocean.NewUniform(200, 10, 35)
//	opts := tl.DefaultOptions()
//	opts.Ocean = u
//	opts.RadialRange = 5000
//	calc, err := tl.NewCalculator(opts)
//	if err != nil {
//	    return err
//	}
//	res, err := calc.Run(ctx, 100, 50, []float64{50}, false, false)
//
// Sweep runs several frequencies concurrently.
package tl
