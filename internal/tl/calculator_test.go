package tl

import (
	"context"
	"math"
	"testing"

	"github.com/san-kum/pesim/internal/ocean"
	"github.com/san-kum/pesim/internal/pe"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// shallowOptions keeps the sediment layer thin and the angular mesh coarse
// so a run finishes quickly.
func shallowOptions(depth float64) Options {
	o := DefaultOptions()
	o.Seafloor = &pe.Seafloor{C: 1700, Density: 1.5, Thickness: 100, Loss: 0.5}
	o.FlatSeafloorDepth = depth
	o.AngularBin = 90
	return o
}

// bandLoss averages intensity over [lo, hi] and returns it as a loss.
func bandLoss(row, ranges []float64, lo, hi float64) float64 {
	sum, n := 0.0, 0
	for i, r := range ranges {
		if r >= lo && r <= hi {
			sum += math.Pow(10, -row[i]/10)
			n++
		}
	}
	return -10 * math.Log10(sum/float64(n))
}

func allFinite(rows [][]float64) bool {
	for _, row := range rows {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

type stepCounter struct{ steps int }

func (s *stepCounter) OnStep(int, float64) { s.steps++ }

var _ = Describe("Calculator", func() {
	ctx := context.Background()

	Describe("a 100 Hz source in 200 m of water", func() {
		var res *Result

		BeforeEach(func() {
			o := shallowOptions(200)
			o.RadialRange = 5000
			o.VerticalBin = 3
			o.VerticalRange = 384

			calc, err := NewCalculator(o)
			Expect(err).NotTo(HaveOccurred())
			res, err = calc.Run(ctx, 100, 50, []float64{50}, false, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(calc.Last()).To(BeIdenticalTo(res))
		})

		It("returns one finite row per angular bin", func() {
			tl := res.Horizontal()
			Expect(tl).To(HaveLen(4))
			for _, row := range tl {
				Expect(row).To(HaveLen(res.Grid.Nr))
			}
			Expect(res.Grid.Nr).To(Equal(667))
			Expect(allFinite(tl)).To(BeTrue())
		})

		It("loses more at the far edge than at the first step", func() {
			for _, row := range res.Horizontal() {
				Expect(row[0]).To(BeNumerically("<", row[len(row)-1]))
			}
		})

		It("reports ascending angles and the range axis", func() {
			want := []float64{-180, -90, 0, 90}
			angles := res.Angles()
			Expect(angles).To(HaveLen(len(want)))
			for i := range want {
				Expect(angles[i]).To(BeNumerically("~", want[i], 1e-9))
			}
			r := res.Ranges()
			Expect(r).To(HaveLen(res.Grid.Nr))
			Expect(r[0]).To(BeNumerically("~", 7.5, 1e-9))
		})
	})

	It("runs the stock options on a flat 200 m seafloor", func() {
		if testing.Short() {
			Skip("full-resolution run")
		}
		o := DefaultOptions()
		o.FlatSeafloorDepth = 200
		o.RadialRange = 5000

		calc, err := NewCalculator(o)
		Expect(err).NotTo(HaveOccurred())
		res, err := calc.Run(ctx, 100, 50, []float64{50}, false, false)
		Expect(err).NotTo(HaveOccurred())

		Expect(res.Grid.Nz).To(Equal(1370))
		Expect(res.Grid.Nq).To(Equal(36))
		tl := res.Horizontal()
		Expect(allFinite(tl)).To(BeTrue())
		row := tl[res.AngleIndex(0)]
		Expect(row[0]).To(BeNumerically("~", 14.7, 1))
		Expect(row[len(row)-1]).To(BeNumerically("~", 55.3, 2))
	})

	It("loses energy with range", func() {
		o := shallowOptions(100)
		o.RadialRange = 10e3
		o.VerticalBin = 7.5
		o.VerticalRange = 240

		calc, err := NewCalculator(o)
		Expect(err).NotTo(HaveOccurred())
		res, err := calc.Run(ctx, 50, 30, []float64{30}, false, false)
		Expect(err).NotTo(HaveOccurred())

		ranges := res.Ranges()
		for _, row := range res.Horizontal() {
			near := bandLoss(row, ranges, 900, 1100)
			far := bandLoss(row, ranges, 9800, 10e3)
			Expect(far).To(BeNumerically(">", near))
		}
	})

	It("keeps one plane per receiver depth", func() {
		o := shallowOptions(100)
		o.RadialRange = 500
		calc, err := NewCalculator(o)
		Expect(err).NotTo(HaveOccurred())

		res, err := calc.Run(ctx, 100, 30, []float64{10, 40, 70}, false, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.TL).To(HaveLen(3))
		Expect(res.Horizontal()).To(BeNil())
		for _, plane := range res.TL {
			Expect(allFinite(plane)).To(BeTrue())
		}
	})

	It("matches the horizontal plane on the vertical slice", func() {
		o := shallowOptions(100)
		o.RadialRange = 300
		o.VerticalBin = 3
		o.VerticalRange = 240
		counter := &stepCounter{}
		o.Observers = []pe.Observer{counter}

		calc, err := NewCalculator(o)
		Expect(err).NotTo(HaveOccurred())
		res, err := calc.Run(ctx, 100, 30, []float64{30}, true, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(counter.steps).To(Equal(res.Grid.Nr))

		g := res.Grid
		Expect(res.Vertical).To(HaveLen(g.Nz / 2))
		Expect(res.Vertical[0]).To(HaveLen(g.Nr + 1))
		Expect(res.Vertical[0][0]).To(HaveLen(g.Nq))
		Expect(res.VerticalDepths()[10]).To(BeNumerically("~", 30, 1e-9))

		slice, angle, err := res.VerticalAt(350)
		Expect(err).NotTo(HaveOccurred())
		Expect(angle).To(BeNumerically("~", 0, 1e-9))

		j := res.AngleIndex(0)
		for n := 1; n <= g.Nr; n++ {
			Expect(slice[10][n]).To(BeNumerically("~", res.TL[0][j][n-1], 1e-9))
		}
	})

	It("refuses a vertical slice that was not computed", func() {
		o := shallowOptions(100)
		o.RadialRange = 100
		calc, err := NewCalculator(o)
		Expect(err).NotTo(HaveOccurred())
		res, err := calc.Run(ctx, 100, 30, nil, false, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.ReceiverDepths).To(Equal([]float64{0.1}))

		_, _, err = res.VerticalAt(0)
		Expect(err).To(MatchError(ErrNoVerticalSlice))
	})

	Describe("with an ocean provider", func() {
		It("loads the region around the source", func() {
			u, err := ocean.NewUniform(100, 10, 35)
			Expect(err).NotTo(HaveOccurred())

			o := shallowOptions(0)
			o.Ocean = u
			o.SourceLat, o.SourceLon = 44, -63
			o.RadialRange = 1000

			calc, err := NewCalculator(o)
			Expect(err).NotTo(HaveOccurred())
			res, err := calc.Run(ctx, 100, 30, []float64{30}, false, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(allFinite(res.Horizontal())).To(BeTrue())

			b := u.Loaded()
			perLat, _ := ocean.MetresPerDegree(44)
			Expect(b.Contains(44, -63)).To(BeTrue())
			Expect(b.North - 44).To(BeNumerically("~", 11e3/perLat, 1e-9))

			Expect(res.Grid.Zmax).To(BeNumerically(">=", (100+100)*(1+1.0/6)))
			Expect(calc.BathymetryTransect(45, []float64{0, 500, 1000})).To(Equal([]float64{100, 100, 100}))
		})

		It("agrees with a flat seafloor of the same depth", func() {
			grid := &ocean.Gridded{
				Lats:          []float64{-1, 1},
				Lons:          []float64{-1, 1},
				Elevation:     [][]float64{{-200, -200}, {-200, -200}},
				ProfileDepths: []float64{0},
				ProfileSpeeds: []float64{1500},
			}

			run := func(o Options) *Result {
				o.RadialRange = 2000
				o.VerticalBin = 3
				o.VerticalRange = 384
				calc, err := NewCalculator(o)
				Expect(err).NotTo(HaveOccurred())
				res, err := calc.Run(ctx, 100, 50, []float64{50}, false, false)
				Expect(err).NotTo(HaveOccurred())
				return res
			}

			withGrid := shallowOptions(0)
			withGrid.Ocean = grid
			a := run(withGrid)
			b := run(shallowOptions(200))

			for j := range a.Horizontal() {
				for n := range a.Horizontal()[j] {
					Expect(a.Horizontal()[j][n]).To(BeNumerically("~", b.Horizontal()[j][n], 1e-6))
				}
			}
		})
	})

	Describe("invalid input", func() {
		It("requires a seafloor description", func() {
			o := DefaultOptions()
			_, err := NewCalculator(o)
			Expect(err).To(MatchError(pe.ErrMissingSeafloorSpec))

			o = shallowOptions(100)
			o.Seafloor = nil
			_, err = NewCalculator(o)
			Expect(err).To(MatchError(pe.ErrMissingSeafloorSpec))
		})

		It("rejects negative bins", func() {
			o := shallowOptions(100)
			o.RadialBin = -1
			_, err := NewCalculator(o)
			Expect(err).To(MatchError(pe.ErrInvalidGridSpec))
		})

		It("requires a frequency", func() {
			calc, err := NewCalculator(shallowOptions(100))
			Expect(err).NotTo(HaveOccurred())
			_, err = calc.Run(ctx, 0, 30, nil, false, false)
			Expect(err).To(MatchError(pe.ErrFrequencyNotSet))
			Expect(calc.Last()).To(BeNil())
		})

		It("bounds source and receiver depths", func() {
			o := shallowOptions(100)
			o.RadialRange = 100
			o.VerticalRange = 240
			calc, err := NewCalculator(o)
			Expect(err).NotTo(HaveOccurred())

			_, err = calc.Run(ctx, 100, 1000, nil, false, false)
			Expect(err).To(MatchError(pe.ErrDepthOutOfRange))
			_, err = calc.Run(ctx, 100, 30, []float64{30, 5000}, false, false)
			Expect(err).To(MatchError(pe.ErrDepthOutOfRange))
		})

		It("stops when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			calc, err := NewCalculator(shallowOptions(100))
			Expect(err).NotTo(HaveOccurred())
			_, err = calc.Run(cctx, 100, 30, nil, false, false)
			Expect(err).To(MatchError(context.Canceled))
		})
	})
})

var _ = Describe("Sweep", func() {
	It("runs each frequency on its own seafloor copy", func() {
		o := shallowOptions(100)
		o.RadialRange = 600
		o.AngularBin = 180

		results, err := Sweep(context.Background(), o, []float64{50, 100, 150}, 30, []float64{30}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		for i, f := range []float64{50, 100, 150} {
			Expect(results[i].Frequency).To(Equal(f))
			Expect(results[i].Grid.Dr).To(BeNumerically("~", 1500/f/2, 1e-12))
			Expect(allFinite(results[i].Horizontal())).To(BeTrue())
		}
		Expect(o.Seafloor.Frequency()).To(BeZero())
	})

	It("reports the failing frequency", func() {
		o := shallowOptions(100)
		o.RadialRange = 100
		_, err := Sweep(context.Background(), o, []float64{100, -1}, 30, nil, 1)
		Expect(err).To(MatchError(pe.ErrFrequencyNotSet))
		Expect(err.Error()).To(ContainSubstring("-1 Hz"))
	})
})
