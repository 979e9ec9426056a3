// Package pe solves the parabolic wave equation for underwater sound on a
// cylindrical range-azimuth-depth grid.
//
// The pieces, leaf-first:
//
//   - [Grid]: the discretised (r, q, z) mesh
//   - [Seafloor]: bottom half-space properties
//   - [Environment]: bathymetry and sound-speed sampling, interface
//     smoothing and the per-step refraction operator U
//   - [Starter]: the field at r = 0 (GAUSSIAN, GREENE or THOMSON)
//   - [Propagator]: split-step Fourier marching in range
//
// # Example
//
//	grid, _ := pe.NewGrid(dr, rmax, dq, qmax, dz, zmax)
//	sf := pe.DefaultSeafloor()
//	sf.SetFrequency(100)
//	env, _ := pe.NewEnvironment(pe.EnvConfig{Grid: grid, Seafloor: sf, FlatDepth: 200, ...})
//	st, _ := pe.NewStarter(grid, k0, pe.Thomson, 88)
//	psi, _ := st.Eval(50)
//	out, _ := pe.NewPropagator(grid, k0, env).Run(pe.Broadcast(psi, grid.Nq), []float64{50}, false)
//
// # Thread Safety
//
// An Environment and its Propagator belong to a single run. Marching is
// sequential in range and nothing here is safe for concurrent use.
package pe
