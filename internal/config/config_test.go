package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/pesim/internal/ocean"
	"github.com/san-kum/pesim/internal/pe"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Ocean.Kind != OceanFlat {
		t.Errorf("expected flat ocean, got %s", cfg.Ocean.Kind)
	}
	if cfg.Frequency <= 0 {
		t.Error("frequency should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := GetPreset("slope")
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if loaded.Ocean.Kind != OceanGridded {
		t.Errorf("expected gridded ocean, got %s", loaded.Ocean.Kind)
	}
	if len(loaded.Ocean.Elevation) != 2 || loaded.Ocean.Elevation[0][1] != -400 {
		t.Errorf("elevation not preserved: %v", loaded.Ocean.Elevation)
	}
	if loaded.Updates.SoundSpeed != pe.Never {
		t.Errorf("expected sound speed cadence -1, got %d", loaded.Updates.SoundSpeed)
	}
	if loaded.Source.Lat != 44 || loaded.Source.Lon != -63 {
		t.Errorf("source not preserved: %+v", loaded.Source)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("frequency: 250\nreceiver_depths: [5, 15]\nocean:\n  kind: uniform\n  depth: 80\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Frequency != 250 {
		t.Errorf("expected frequency 250, got %g", cfg.Frequency)
	}
	if len(cfg.ReceiverDepths) != 2 || cfg.ReceiverDepths[1] != 15 {
		t.Errorf("unexpected receiver depths %v", cfg.ReceiverDepths)
	}
	if cfg.Ocean.Temperature != DefaultTemperature {
		t.Errorf("expected default temperature, got %g", cfg.Ocean.Temperature)
	}
	if cfg.Starter.Method != "THOMSON" {
		t.Errorf("expected default starter, got %s", cfg.Starter.Method)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero frequency", func(c *Config) { c.Frequency = 0 }},
		{"bad sweep", func(c *Config) { c.Frequencies = []float64{50, -2} }},
		{"negative source", func(c *Config) { c.SourceDepth = -1 }},
		{"negative receiver", func(c *Config) { c.ReceiverDepths = []float64{-3} }},
		{"unknown ocean", func(c *Config) { c.Ocean.Kind = "atlantic" }},
		{"dry flat ocean", func(c *Config) { c.Ocean.Depth = 0 }},
		{"empty grid", func(c *Config) { c.Ocean.Kind = OceanGridded }},
		{"bad seafloor", func(c *Config) { c.Seafloor.Density = 0 }},
		{"bad angular bin", func(c *Config) { c.Grid.AngularBin = 0 }},
		{"bad starter", func(c *Config) { c.Starter.Method = "PADE" }},
		{"bad aperture", func(c *Config) { c.Starter.Aperture = 90 }},
		{"bad cadence", func(c *Config) { c.Updates.Bathy = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestCalculatorOptions(t *testing.T) {
	tests := []struct {
		preset string
		flat   float64
		ocean  bool
		method pe.StarterMethod
	}{
		{"shelf", 200, false, pe.Thomson},
		{"coastal", 0, true, pe.Greene},
		{"slope", 0, true, pe.Thomson},
	}

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			opts, err := GetPreset(tt.preset).CalculatorOptions()
			if err != nil {
				t.Fatalf("options: %v", err)
			}
			if opts.FlatSeafloorDepth != tt.flat {
				t.Errorf("expected flat depth %g, got %g", tt.flat, opts.FlatSeafloorDepth)
			}
			if (opts.Ocean != nil) != tt.ocean {
				t.Errorf("expected provider=%v, got %T", tt.ocean, opts.Ocean)
			}
			if opts.StarterMethod != tt.method {
				t.Errorf("expected %v, got %v", tt.method, opts.StarterMethod)
			}
			if opts.Seafloor == nil || opts.Seafloor.Frequency() != 0 {
				t.Error("expected an unbound seafloor")
			}
		})
	}

	opts, _ := GetPreset("coastal").CalculatorOptions()
	if u, ok := opts.Ocean.(*ocean.Uniform); !ok || u.Depth != 60 {
		t.Errorf("expected 60 m uniform ocean, got %#v", opts.Ocean)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("shelf")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Ocean.Depth != 200 {
		t.Errorf("expected depth 200, got %f", cfg.Ocean.Depth)
	}

	cfg.ReceiverDepths[0] = 999
	if Presets["shelf"].ReceiverDepths[0] == 999 {
		t.Error("preset should be returned as a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	names := ListPresets()
	if len(names) != len(Presets) {
		t.Fatalf("expected %d presets, got %d", len(Presets), len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("presets not sorted: %v", names)
		}
	}
	for _, name := range names {
		if err := GetPreset(name).Validate(); err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
	}
}
