package automation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/san-kum/pesim/internal/config"
	"github.com/san-kum/pesim/internal/storage"
	"github.com/san-kum/pesim/internal/tl"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"
)

var ErrUnknownParam = errors.New("automation: unknown parameter")

// Scenario is a scripted sequence of TL runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset or a config file (defaults if neither)
// and applies the non-zero overrides.
type ScenarioStep struct {
	Preset         string    `yaml:"preset"`
	Config         string    `yaml:"config"`
	Frequency      float64   `yaml:"frequency"`
	SourceDepth    float64   `yaml:"source_depth"`
	ReceiverDepths []float64 `yaml:"receiver_depths"`
	Params         Params    `yaml:"params"`
	SaveAs         string    `yaml:"save_as"`
}

// Params are named overrides applied with SetParam.
type Params map[string]float64

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// StepResult pairs a scenario step's result with its stored run id, empty
// when no store was given.
type StepResult struct {
	Name   string
	RunID  string
	Result *tl.Result
}

// RunScenario executes all steps in order, printing progress to w and
// saving each result to st when st is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, w io.Writer) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.resolve()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("%s_%d", scenario.Name, i+1)
		}
		fmt.Fprintf(w, "Running step %d/%d: %s (%g Hz)\n", i+1, len(scenario.Steps), name, cfg.Frequency)

		res, err := runConfig(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Name: name, Result: res}
		if st != nil {
			if sr.RunID, err = st.Save(name, res); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)
	}

	return results, nil
}

func (s ScenarioStep) resolve() (*config.Config, error) {
	cfg := config.DefaultConfig()
	switch {
	case s.Preset != "":
		cfg = config.GetPreset(s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if s.Frequency > 0 {
		cfg.Frequency = s.Frequency
	}
	if s.SourceDepth > 0 {
		cfg.SourceDepth = s.SourceDepth
	}
	if len(s.ReceiverDepths) > 0 {
		cfg.ReceiverDepths = s.ReceiverDepths
	}
	for k, v := range s.Params {
		if err := SetParam(cfg, k, v); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func runConfig(ctx context.Context, cfg *config.Config) (*tl.Result, error) {
	opts, err := cfg.CalculatorOptions()
	if err != nil {
		return nil, err
	}
	calc, err := tl.NewCalculator(opts)
	if err != nil {
		return nil, err
	}
	return calc.Run(ctx, cfg.Frequency, cfg.SourceDepth, cfg.ReceiverDepths, cfg.VerticalSlice, cfg.IgnoreBathyGradient)
}

// SetParam sets one scalar field of cfg by name.
func SetParam(cfg *config.Config, name string, v float64) error {
	switch name {
	case "frequency":
		cfg.Frequency = v
	case "source_depth":
		cfg.SourceDepth = v
	case "depth":
		cfg.Ocean.Depth = v
	case "temperature":
		cfg.Ocean.Temperature = v
	case "salinity":
		cfg.Ocean.Salinity = v
	case "seafloor_c":
		cfg.Seafloor.C = v
	case "seafloor_density":
		cfg.Seafloor.Density = v
	case "seafloor_thickness":
		cfg.Seafloor.Thickness = v
	case "seafloor_loss":
		cfg.Seafloor.Loss = v
	case "radial_range":
		cfg.Grid.RadialRange = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParam, name)
	}
	return nil
}

// ParamNames lists the names SetParam accepts.
func ParamNames() []string {
	return []string{
		"frequency", "source_depth", "depth", "temperature", "salinity",
		"seafloor_c", "seafloor_density", "seafloor_thickness", "seafloor_loss", "radial_range",
	}
}

// ParameterSweep runs Base once per value of ParamName, evenly spaced in
// [ParamMin, ParamMax].
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult summarises the first receiver depth's loss for one value.
type SweepResult struct {
	ParamValue float64
	MeanTL     float64
	MinTL      float64
	MaxTL      float64
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, w io.Writer) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("automation: sweep needs at least one step, got %d", sweep.NumSteps)
	}
	values := make([]float64, sweep.NumSteps)
	if sweep.NumSteps == 1 {
		values[0] = sweep.ParamMin
	} else {
		floats.Span(values, sweep.ParamMin, sweep.ParamMax)
	}

	results := make([]SweepResult, 0, sweep.NumSteps)
	for i, v := range values {
		cfg := sweep.Base.Clone()
		if err := SetParam(cfg, sweep.ParamName, v); err != nil {
			return nil, err
		}
		res, err := runConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}

		sr := SweepResult{ParamValue: v}
		sr.MeanTL, sr.MinTL, sr.MaxTL = planeStats(res.TL[0])
		results = append(results, sr)

		fmt.Fprintf(w, "Sweep %d/%d: %s=%.4f mean TL %.1f dB\n", i+1, sweep.NumSteps, sweep.ParamName, v, sr.MeanTL)
	}

	return results, nil
}

// MonteCarloConfig perturbs the seafloor of Base uniformly by up to the
// given fractions to gauge how sensitive the loss is to bottom properties.
type MonteCarloConfig struct {
	Base      *config.Config
	SpeedFrac float64
	LossFrac  float64
	NumTrials int
	Seed      int64
}

type MonteCarloResult struct {
	TrialID  int
	Seafloor config.SeafloorConfig
	MeanTL   float64
}

func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, w io.Writer) ([]MonteCarloResult, error) {
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	for trial := 0; trial < cfg.NumTrials; trial++ {
		run := cfg.Base.Clone()
		run.Seafloor.C *= 1 + (rng.Float64()-0.5)*2*cfg.SpeedFrac
		run.Seafloor.Loss *= 1 + (rng.Float64()-0.5)*2*cfg.LossFrac

		res, err := runConfig(ctx, run)
		if err != nil {
			return nil, fmt.Errorf("trial %d: %w", trial, err)
		}
		mean, _, _ := planeStats(res.TL[0])

		results = append(results, MonteCarloResult{
			TrialID:  trial,
			Seafloor: run.Seafloor,
			MeanTL:   mean,
		})

		if (trial+1)%10 == 0 {
			fmt.Fprintf(w, "Monte Carlo: %d/%d trials complete\n", trial+1, cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats returns the mean and standard deviation of the trials'
// mean loss.
func MonteCarloStats(results []MonteCarloResult) (mean, std float64) {
	vals := make([]float64, 0, len(results))
	for _, r := range results {
		if !math.IsNaN(r.MeanTL) {
			vals = append(vals, r.MeanTL)
		}
	}
	if len(vals) == 0 {
		return math.NaN(), math.NaN()
	}
	if len(vals) == 1 {
		return vals[0], 0
	}
	return stat.MeanStdDev(vals, nil)
}

// planeStats skips non-finite values; NaN if none are left.
func planeStats(plane [][]float64) (mean, lo, hi float64) {
	var vals []float64
	for _, row := range plane {
		for _, v := range row {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				vals = append(vals, v)
			}
		}
	}
	if len(vals) == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	return stat.Mean(vals, nil), floats.Min(vals), floats.Max(vals)
}
