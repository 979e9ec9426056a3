package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/pesim/internal/ocean"
	"github.com/san-kum/pesim/internal/pe"
	"github.com/san-kum/pesim/internal/tl"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFrequency     = 100.0
	DefaultSourceDepth   = 50.0
	DefaultReceiverDepth = 50.0
	DefaultRadialRange   = 5000.0
	DefaultAngularBin    = 10.0
	DefaultDepth         = 200.0
	DefaultTemperature   = 10.0
	DefaultSalinity      = 35.0
)

const (
	OceanFlat    = "flat"
	OceanUniform = "uniform"
	OceanGridded = "gridded"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Name                string         `yaml:"name,omitempty"`
	Frequency           float64        `yaml:"frequency"`
	Frequencies         []float64      `yaml:"frequencies,omitempty"`
	SourceDepth         float64        `yaml:"source_depth"`
	ReceiverDepths      []float64      `yaml:"receiver_depths"`
	VerticalSlice       bool           `yaml:"vertical_slice"`
	IgnoreBathyGradient bool           `yaml:"ignore_bathy_gradient"`
	Source              SourceConfig   `yaml:"source"`
	Ocean               OceanConfig    `yaml:"ocean"`
	Seafloor            SeafloorConfig `yaml:"seafloor"`
	Grid                GridConfig     `yaml:"grid"`
	Starter             StarterConfig  `yaml:"starter"`
	Updates             UpdateConfig   `yaml:"updates"`
	RefSoundSpeed       float64        `yaml:"ref_sound_speed"`
	WaterDensity        float64        `yaml:"water_density"`
}

type SourceConfig struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

type OceanConfig struct {
	Kind        string        `yaml:"kind"`
	Depth       float64       `yaml:"depth"`
	Temperature float64       `yaml:"temperature"`
	Salinity    float64       `yaml:"salinity"`
	Lats        []float64     `yaml:"lats,omitempty"`
	Lons        []float64     `yaml:"lons,omitempty"`
	Elevation   [][]float64   `yaml:"elevation,omitempty"`
	Profile     ProfileConfig `yaml:"profile,omitempty"`
}

type ProfileConfig struct {
	Depths []float64 `yaml:"depths"`
	Speeds []float64 `yaml:"speeds"`
}

type SeafloorConfig struct {
	C         float64 `yaml:"c"`
	Density   float64 `yaml:"density"`
	Thickness float64 `yaml:"thickness"`
	Loss      float64 `yaml:"loss"`
}

// GridConfig mirrors tl.Options; zero means derive automatically.
type GridConfig struct {
	RadialBin       float64 `yaml:"radial_bin"`
	RadialRange     float64 `yaml:"radial_range"`
	AngularBin      float64 `yaml:"angular_bin"`
	AngularRange    float64 `yaml:"angular_range"`
	VerticalBin     float64 `yaml:"vertical_bin"`
	VerticalRange   float64 `yaml:"vertical_range"`
	AbsorptionLayer float64 `yaml:"absorption_layer"`
}

type StarterConfig struct {
	Method   string  `yaml:"method"`
	Aperture float64 `yaml:"aperture"`
}

// UpdateConfig holds the steps between environment refreshes; -1 samples
// once and never refreshes.
type UpdateConfig struct {
	Bathy      int `yaml:"bathy"`
	SoundSpeed int `yaml:"sound_speed"`
}

func DefaultConfig() *Config {
	sf := pe.DefaultSeafloor()
	return &Config{
		Frequency:      DefaultFrequency,
		SourceDepth:    DefaultSourceDepth,
		ReceiverDepths: []float64{DefaultReceiverDepth},
		Ocean: OceanConfig{
			Kind:        OceanFlat,
			Depth:       DefaultDepth,
			Temperature: DefaultTemperature,
			Salinity:    DefaultSalinity,
		},
		Seafloor: SeafloorConfig{C: sf.C, Density: sf.Density, Thickness: sf.Thickness, Loss: sf.Loss},
		Grid: GridConfig{
			RadialRange:     DefaultRadialRange,
			AngularBin:      DefaultAngularBin,
			AngularRange:    360,
			AbsorptionLayer: 1.0 / 6,
		},
		Starter:       StarterConfig{Method: pe.Thomson.String(), Aperture: 88},
		Updates:       UpdateConfig{Bathy: 1, SoundSpeed: 1},
		RefSoundSpeed: 1500,
		WaterDensity:  1,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Frequency <= 0 && len(c.Frequencies) == 0 {
		return fmt.Errorf("%w: frequency must be positive", ErrInvalidConfig)
	}
	for _, f := range c.Frequencies {
		if f <= 0 {
			return fmt.Errorf("%w: sweep frequency %g must be positive", ErrInvalidConfig, f)
		}
	}
	if c.SourceDepth < 0 {
		return fmt.Errorf("%w: source depth %g", ErrInvalidConfig, c.SourceDepth)
	}
	for _, d := range c.ReceiverDepths {
		if d < 0 {
			return fmt.Errorf("%w: receiver depth %g", ErrInvalidConfig, d)
		}
	}
	switch c.Ocean.Kind {
	case OceanFlat, OceanUniform:
		if c.Ocean.Depth <= 0 {
			return fmt.Errorf("%w: %s ocean needs a positive depth", ErrInvalidConfig, c.Ocean.Kind)
		}
	case OceanGridded:
		if len(c.Ocean.Lats) < 2 || len(c.Ocean.Lons) < 2 {
			return fmt.Errorf("%w: gridded ocean needs lats and lons", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown ocean kind %q", ErrInvalidConfig, c.Ocean.Kind)
	}
	if c.Seafloor.C <= 0 || c.Seafloor.Density <= 0 || c.Seafloor.Thickness < 0 || c.Seafloor.Loss < 0 {
		return fmt.Errorf("%w: seafloor %+v", ErrInvalidConfig, c.Seafloor)
	}
	g := c.Grid
	if g.RadialBin < 0 || g.RadialRange <= 0 || g.AngularBin <= 0 || g.AngularRange <= 0 || g.VerticalBin < 0 || g.VerticalRange < 0 || g.AbsorptionLayer < 0 {
		return fmt.Errorf("%w: grid %+v", ErrInvalidConfig, g)
	}
	if _, err := pe.ParseStarterMethod(c.Starter.Method); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Starter.Aperture <= 0 || c.Starter.Aperture >= 90 {
		return fmt.Errorf("%w: starter aperture %g", ErrInvalidConfig, c.Starter.Aperture)
	}
	for _, n := range []int{c.Updates.Bathy, c.Updates.SoundSpeed} {
		if n < 1 && n != pe.Never {
			return fmt.Errorf("%w: update interval %d", ErrInvalidConfig, n)
		}
	}
	return nil
}

// Provider builds the ocean described by the config, nil for a flat one.
func (c *Config) Provider() (ocean.Provider, error) {
	o := c.Ocean
	switch o.Kind {
	case OceanFlat:
		return nil, nil
	case OceanUniform:
		return ocean.NewUniform(o.Depth, o.Temperature, o.Salinity)
	case OceanGridded:
		return &ocean.Gridded{
			Lats:          o.Lats,
			Lons:          o.Lons,
			Elevation:     o.Elevation,
			ProfileDepths: o.Profile.Depths,
			ProfileSpeeds: o.Profile.Speeds,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown ocean kind %q", ErrInvalidConfig, o.Kind)
}

// CalculatorOptions validates the config and converts it to tl.Options.
func (c *Config) CalculatorOptions() (tl.Options, error) {
	if err := c.Validate(); err != nil {
		return tl.Options{}, err
	}
	method, _ := pe.ParseStarterMethod(c.Starter.Method)
	provider, err := c.Provider()
	if err != nil {
		return tl.Options{}, err
	}

	opts := tl.Options{
		Ocean: provider,
		Seafloor: &pe.Seafloor{
			C:         c.Seafloor.C,
			Density:   c.Seafloor.Density,
			Thickness: c.Seafloor.Thickness,
			Loss:      c.Seafloor.Loss,
		},
		SourceLat:         c.Source.Lat,
		SourceLon:         c.Source.Lon,
		RefSoundSpeed:     c.RefSoundSpeed,
		WaterDensity:      c.WaterDensity,
		RadialBin:         c.Grid.RadialBin,
		RadialRange:       c.Grid.RadialRange,
		AngularBin:        c.Grid.AngularBin,
		AngularRange:      c.Grid.AngularRange,
		VerticalBin:       c.Grid.VerticalBin,
		VerticalRange:     c.Grid.VerticalRange,
		AbsorptionLayer:   c.Grid.AbsorptionLayer,
		StarterMethod:     method,
		StarterAperture:   c.Starter.Aperture,
		BathyCadence:      c.Updates.Bathy,
		SoundSpeedCadence: c.Updates.SoundSpeed,
	}
	if c.Ocean.Kind == OceanFlat {
		opts.FlatSeafloorDepth = c.Ocean.Depth
	}
	return opts, nil
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	out.Frequencies = append([]float64(nil), c.Frequencies...)
	out.ReceiverDepths = append([]float64(nil), c.ReceiverDepths...)
	out.Ocean.Lats = append([]float64(nil), c.Ocean.Lats...)
	out.Ocean.Lons = append([]float64(nil), c.Ocean.Lons...)
	out.Ocean.Profile.Depths = append([]float64(nil), c.Ocean.Profile.Depths...)
	out.Ocean.Profile.Speeds = append([]float64(nil), c.Ocean.Profile.Speeds...)
	if c.Ocean.Elevation != nil {
		out.Ocean.Elevation = make([][]float64, len(c.Ocean.Elevation))
		for i, row := range c.Ocean.Elevation {
			out.Ocean.Elevation[i] = append([]float64(nil), row...)
		}
	}
	return &out
}
