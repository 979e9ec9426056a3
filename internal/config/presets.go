package config

import "sort"

var Presets = map[string]*Config{
	"shelf": {
		Name:           "shelf",
		Frequency:      100,
		SourceDepth:    50,
		ReceiverDepths: []float64{50},
		Ocean:          OceanConfig{Kind: OceanFlat, Depth: 200},
		Seafloor:       SeafloorConfig{C: 1700, Density: 1.5, Thickness: 200, Loss: 0.5},
		Grid:           GridConfig{RadialRange: 5000, AngularBin: 10, AngularRange: 360, AbsorptionLayer: 1.0 / 6},
		Starter:        StarterConfig{Method: "THOMSON", Aperture: 88},
		Updates:        UpdateConfig{Bathy: 1, SoundSpeed: 1},
		RefSoundSpeed:  1500,
		WaterDensity:   1,
	},
	"coastal": {
		Name:           "coastal",
		Frequency:      200,
		SourceDepth:    10,
		ReceiverDepths: []float64{5, 20},
		Ocean:          OceanConfig{Kind: OceanUniform, Depth: 60, Temperature: 14, Salinity: 31},
		Seafloor:       SeafloorConfig{C: 1650, Density: 1.8, Thickness: 100, Loss: 0.8},
		Grid:           GridConfig{RadialRange: 3000, AngularBin: 15, AngularRange: 360, AbsorptionLayer: 1.0 / 6},
		Starter:        StarterConfig{Method: "GREENE", Aperture: 60},
		Updates:        UpdateConfig{Bathy: 1, SoundSpeed: -1},
		RefSoundSpeed:  1500,
		WaterDensity:   1,
	},
	"slope": {
		Name:           "slope",
		Frequency:      50,
		SourceDepth:    30,
		ReceiverDepths: []float64{30},
		Source:         SourceConfig{Lat: 44, Lon: -63},
		Ocean: OceanConfig{
			Kind:      OceanGridded,
			Lats:      []float64{43.8, 44.2},
			Lons:      []float64{-63.3, -62.7},
			Elevation: [][]float64{{-100, -400}, {-100, -400}},
			Profile:   ProfileConfig{Depths: []float64{0, 50, 400}, Speeds: []float64{1505, 1490, 1495}},
		},
		Seafloor:      SeafloorConfig{C: 1700, Density: 1.5, Thickness: 200, Loss: 0.5},
		Grid:          GridConfig{RadialRange: 10000, AngularBin: 10, AngularRange: 360, AbsorptionLayer: 1.0 / 6},
		Starter:       StarterConfig{Method: "THOMSON", Aperture: 88},
		Updates:       UpdateConfig{Bathy: 2, SoundSpeed: -1},
		RefSoundSpeed: 1500,
		WaterDensity:  1,
	},
	"sweep": {
		Name:           "sweep",
		Frequency:      50,
		Frequencies:    []float64{25, 50, 100},
		SourceDepth:    20,
		ReceiverDepths: []float64{20},
		Ocean:          OceanConfig{Kind: OceanFlat, Depth: 100},
		Seafloor:       SeafloorConfig{C: 1700, Density: 1.5, Thickness: 100, Loss: 0.5},
		Grid:           GridConfig{RadialRange: 5000, AngularBin: 90, AngularRange: 360, AbsorptionLayer: 1.0 / 6},
		Starter:        StarterConfig{Method: "THOMSON", Aperture: 88},
		Updates:        UpdateConfig{Bathy: 1, SoundSpeed: 1},
		RefSoundSpeed:  1500,
		WaterDensity:   1,
	},
}

// GetPreset returns a copy of the named preset, nil if unknown.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
