package ocean

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
)

func TestProjectionKnownPoints(t *testing.T) {
	g := NewWithT(t)

	x, y := LLToXY([]float64{45, 46}, []float64{20, 10}, 45, 10)
	g.Expect(x[0]).To(BeNumerically("~", 787e3, 2e3))
	g.Expect(y[0]).To(BeNumerically("~", 0, 1e-6))
	g.Expect(x[1]).To(BeNumerically("~", 0, 1e-6))
	g.Expect(y[1]).To(BeNumerically("~", 111.3e3, 1e3))

	x2, _ := LLToXY([]float64{45}, []float64{30}, 45, 10)
	g.Expect(x2[0]).To(BeNumerically("~", 2*x[0], 1e-6))
}

func TestProjectionRoundTrip(t *testing.T) {
	xs := []float64{0, 1500, -32000, 50e3}
	ys := []float64{0, -700, 41000, -50e3}

	lat, lon := XYToLL(xs, ys, 44.5, -63.2)
	x, y := LLToXY(lat, lon, 44.5, -63.2)
	for i := range xs {
		if math.Abs(x[i]-xs[i]) > 1e-6 || math.Abs(y[i]-ys[i]) > 1e-6 {
			t.Errorf("point %d: got (%g, %g), want (%g, %g)", i, x[i], y[i], xs[i], ys[i])
		}
	}
}

func TestCircle(t *testing.T) {
	g := NewWithT(t)

	b := Circle(45, 10, 10e3)
	g.Expect(b.Validate()).To(Succeed())
	g.Expect(b.Contains(45, 10)).To(BeTrue())

	perLat, perLon := MetresPerDegree(45)
	g.Expect(b.North - 45).To(BeNumerically("~", 10e3/perLat, 1e-9))
	g.Expect(b.East - 10).To(BeNumerically("~", 10e3/perLon, 1e-9))
	g.Expect(b.Contains(45+11e3/perLat, 10)).To(BeFalse())
}

func TestBoundsValidate(t *testing.T) {
	tests := []struct {
		name string
		b    Bounds
		ok   bool
	}{
		{"normal", Bounds{South: 40, North: 41, West: -64, East: -63}, true},
		{"point", Bounds{South: 40, North: 40, West: 1, East: 1}, true},
		{"inverted", Bounds{South: 41, North: 40, West: -64, East: -63}, false},
		{"nan", Bounds{South: math.NaN(), North: 40}, false},
		{"pole", Bounds{South: 80, North: 91}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.b.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidBounds) {
				t.Errorf("expected ErrInvalidBounds, got %v", err)
			}
		})
	}
}

func TestMackenzie(t *testing.T) {
	tests := []struct {
		temp, sal, depth float64
		want             float64
	}{
		{10, 35, 1000, 1506.2638},
		{25, 38, 500, 1545.7353},
		{0, 35, 0, 1448.96},
	}

	for _, tt := range tests {
		got := Mackenzie(tt.temp, tt.sal, tt.depth)
		if math.Abs(got-tt.want) > 1e-3 {
			t.Errorf("Mackenzie(%g, %g, %g) = %.4f, want %.4f", tt.temp, tt.sal, tt.depth, got, tt.want)
		}
	}
}

func TestUniform(t *testing.T) {
	g := NewWithT(t)

	_, err := NewUniform(-1, 10, 35)
	g.Expect(err).To(HaveOccurred())

	u, err := NewUniform(200, 10, 35)
	g.Expect(err).NotTo(HaveOccurred())

	b := Circle(45, 10, 5e3)
	g.Expect(u.Load(context.Background(), b)).To(Succeed())
	g.Expect(u.Loaded()).To(Equal(b))

	lat := []float64{45, 45.01}
	lon := []float64{10, 10.02}
	g.Expect(u.Bathy(lat, lon)).To(Equal([]float64{-200, -200}))
	g.Expect(u.BathyDeriv(lat, lon, Lon)).To(Equal([]float64{0, 0}))

	c := u.SoundSpeed(lat, lon, []float64{0, 1000})
	g.Expect(c[1]).To(BeNumerically("~", 1506.2638, 1e-3))
	g.Expect(c[1]).To(BeNumerically(">", c[0]))
}

func TestUniformLoadCancelled(t *testing.T) {
	u, _ := NewUniform(100, 10, 35)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := u.Load(ctx, Circle(0, 0, 1e3)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func slopedGrid() *Gridded {
	// elevation = -100 - 50*(lat-45) - 20*(lon-10), exact under bilinear
	lats := []float64{45, 45.5, 46}
	lons := []float64{10, 10.5, 11}
	elev := make([][]float64, len(lats))
	for i, la := range lats {
		elev[i] = make([]float64, len(lons))
		for j, lo := range lons {
			elev[i][j] = -100 - 50*(la-45) - 20*(lo-10)
		}
	}
	return &Gridded{
		Lats:          lats,
		Lons:          lons,
		Elevation:     elev,
		ProfileDepths: []float64{0, 100, 500},
		ProfileSpeeds: []float64{1500, 1480, 1490},
	}
}

func TestGriddedBathy(t *testing.T) {
	g := NewWithT(t)

	grid := slopedGrid()
	g.Expect(grid.Load(context.Background(), Bounds{South: 45, North: 46, West: 10, East: 11})).To(Succeed())

	lat := []float64{45, 45.25, 46, 45.7}
	lon := []float64{10, 10.75, 11, 9}
	z := grid.Bathy(lat, lon)
	g.Expect(z[0]).To(BeNumerically("~", -100, 1e-9))
	g.Expect(z[1]).To(BeNumerically("~", -100-12.5-15, 1e-9))
	g.Expect(z[2]).To(BeNumerically("~", -170, 1e-9))
	g.Expect(math.IsNaN(z[3])).To(BeTrue())

	dLat := grid.BathyDeriv(lat[:3], lon[:3], Lat)
	dLon := grid.BathyDeriv(lat[:3], lon[:3], Lon)
	for i := range dLat {
		g.Expect(dLat[i]).To(BeNumerically("~", -50, 1e-9))
		g.Expect(dLon[i]).To(BeNumerically("~", -20, 1e-9))
	}
}

func TestGriddedSoundSpeed(t *testing.T) {
	g := NewWithT(t)

	grid := slopedGrid()
	g.Expect(grid.Load(context.Background(), Bounds{South: 45, North: 46, West: 10, East: 11})).To(Succeed())

	c := grid.SoundSpeed(nil, nil, []float64{0, 50, 300, 2000, math.NaN()})
	g.Expect(c[0]).To(BeNumerically("~", 1500, 1e-9))
	g.Expect(c[1]).To(BeNumerically("~", 1490, 1e-9))
	g.Expect(c[2]).To(BeNumerically("~", 1485, 1e-9))
	g.Expect(c[3]).To(BeNumerically("~", 1490, 1e-9))
	g.Expect(math.IsNaN(c[4])).To(BeTrue())
}

func TestGriddedInvalid(t *testing.T) {
	b := Bounds{South: 45, North: 46, West: 10, East: 11}

	tests := []struct {
		name   string
		mutate func(*Gridded)
		want   error
	}{
		{"short axis", func(g *Gridded) { g.Lats = g.Lats[:1]; g.Elevation = g.Elevation[:1] }, ErrInvalidGrid},
		{"unsorted", func(g *Gridded) { g.Lons = []float64{10, 10.5, 10.2} }, ErrInvalidGrid},
		{"ragged", func(g *Gridded) { g.Elevation[1] = g.Elevation[1][:2] }, ErrInvalidGrid},
		{"empty profile", func(g *Gridded) { g.ProfileDepths = nil; g.ProfileSpeeds = nil }, ErrInvalidProfile},
		{"negative speed", func(g *Gridded) { g.ProfileSpeeds[1] = -1 }, ErrInvalidProfile},
		{"unsorted depths", func(g *Gridded) { g.ProfileDepths = []float64{0, 100, 50} }, ErrInvalidProfile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid := slopedGrid()
			tt.mutate(grid)
			if err := grid.Load(context.Background(), b); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGriddedNotLoaded(t *testing.T) {
	grid := slopedGrid()
	if z := grid.Bathy([]float64{45.5}, []float64{10.5}); !math.IsNaN(z[0]) {
		t.Errorf("expected NaN before Load, got %g", z[0])
	}
	if c := grid.SoundSpeed(nil, nil, []float64{10}); !math.IsNaN(c[0]) {
		t.Errorf("expected NaN before Load, got %g", c[0])
	}
}
