package tl

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/pesim/internal/ocean"
	"golang.org/x/sync/errgroup"
)

// Sweep runs one calculation per frequency concurrently and returns the
// results in the order of freqs. The provider is loaded once up front; each
// run gets its own copy of the seafloor. Observers are not attached.
func Sweep(ctx context.Context, opts Options, freqs []float64, sourceDepth float64, receiverDepths []float64, workers int) ([]*Result, error) {
	if len(freqs) == 0 {
		return nil, nil
	}
	base, err := NewCalculator(opts)
	if err != nil {
		return nil, err
	}
	o := base.opts
	if o.Ocean != nil {
		b := ocean.Circle(o.SourceLat, o.SourceLon, o.RadialRange+o.Margin)
		if err := o.Ocean.Load(ctx, b); err != nil {
			return nil, fmt.Errorf("load ocean data: %w", err)
		}
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]*Result, len(freqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range freqs {
		g.Go(func() error {
			runOpts := o
			sf := *o.Seafloor
			runOpts.Seafloor = &sf
			runOpts.Observers = nil

			c := &Calculator{opts: runOpts, preloaded: true}
			res, err := c.Run(ctx, f, sourceDepth, receiverDepths, false, false)
			if err != nil {
				return fmt.Errorf("%g Hz: %w", f, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
