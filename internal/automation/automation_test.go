package automation

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/san-kum/pesim/internal/config"
	"github.com/san-kum/pesim/internal/storage"
)

// smallConfig is a shallow flat ocean on a coarse grid, about 70 range steps.
func smallConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Frequency = 50
	cfg.SourceDepth = 20
	cfg.ReceiverDepths = []float64{20}
	cfg.Ocean.Depth = 100
	cfg.Seafloor.Thickness = 50
	cfg.Grid.RadialRange = 1000
	cfg.Grid.AngularBin = 90
	return cfg
}

func TestSetParam(t *testing.T) {
	g := NewWithT(t)

	cfg := config.DefaultConfig()
	for _, name := range ParamNames() {
		g.Expect(SetParam(cfg, name, 7)).To(Succeed(), name)
	}
	g.Expect(cfg.Seafloor.Loss).To(Equal(7.0))
	g.Expect(cfg.Ocean.Depth).To(Equal(7.0))
	g.Expect(SetParam(cfg, "gravity", 9.8)).To(MatchError(ErrUnknownParam))
}

func TestLoadScenario(t *testing.T) {
	g := NewWithT(t)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	doc := `name: survey
description: two runs
steps:
  - preset: shelf
    frequency: 25
    save_as: low
  - config: run.yaml
    params:
      seafloor_loss: 1.5
`
	g.Expect(os.WriteFile(path, []byte(doc), 0644)).To(Succeed())

	s, err := LoadScenario(path)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(s.Name).To(Equal("survey"))
	g.Expect(s.Steps).To(HaveLen(2))
	g.Expect(s.Steps[0].Preset).To(Equal("shelf"))
	g.Expect(s.Steps[0].Frequency).To(Equal(25.0))
	g.Expect(s.Steps[1].Params).To(HaveKeyWithValue("seafloor_loss", 1.5))

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	g.Expect(err).To(HaveOccurred())
}

func TestRunScenario(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "run.yaml")
	g.Expect(config.Save(cfgPath, smallConfig())).To(Succeed())

	st := storage.New(filepath.Join(dir, "data"))
	g.Expect(st.Init()).To(Succeed())

	s := &Scenario{
		Name: "survey",
		Steps: []ScenarioStep{
			{Config: cfgPath},
			{Config: cfgPath, SourceDepth: 40, Params: Params{"seafloor_loss": 1.5}, SaveAs: "lossy"},
		},
	}
	results, err := RunScenario(context.Background(), s, st, io.Discard)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(2))
	g.Expect(results[0].Name).To(Equal("survey_1"))
	g.Expect(results[1].Name).To(Equal("lossy"))
	g.Expect(results[1].Result.SourceDepth).To(Equal(40.0))

	runs, err := st.List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(runs).To(HaveLen(2))
	g.Expect(results[0].RunID).NotTo(BeEmpty())
}

func TestRunScenarioBadStep(t *testing.T) {
	g := NewWithT(t)

	s := &Scenario{Name: "bad", Steps: []ScenarioStep{{Preset: "atlantis"}}}
	results, err := RunScenario(context.Background(), s, nil, io.Discard)
	g.Expect(err).To(MatchError(ContainSubstring("step 1")))
	g.Expect(results).To(BeEmpty())
}

func TestRunSweep(t *testing.T) {
	g := NewWithT(t)

	sweep := &ParameterSweep{
		Base:      smallConfig(),
		ParamName: "seafloor_loss",
		ParamMin:  0,
		ParamMax:  2,
		NumSteps:  3,
	}
	results, err := RunSweep(context.Background(), sweep, io.Discard)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(3))
	g.Expect(results[1].ParamValue).To(BeNumerically("~", 1, 1e-12))
	for _, r := range results {
		g.Expect(r.MinTL).To(BeNumerically("<=", r.MeanTL))
		g.Expect(r.MeanTL).To(BeNumerically("<=", r.MaxTL))
	}
	g.Expect(results[2].MeanTL).To(BeNumerically(">", results[0].MeanTL))

	// base untouched
	g.Expect(sweep.Base.Seafloor.Loss).To(Equal(0.5))

	sweep.ParamName = "gravity"
	_, err = RunSweep(context.Background(), sweep, io.Discard)
	g.Expect(err).To(MatchError(ErrUnknownParam))

	sweep.NumSteps = 0
	_, err = RunSweep(context.Background(), sweep, io.Discard)
	g.Expect(err).To(HaveOccurred())
}

func TestRunMonteCarlo(t *testing.T) {
	g := NewWithT(t)

	mc := &MonteCarloConfig{
		Base:      smallConfig(),
		SpeedFrac: 0.05,
		LossFrac:  0.5,
		NumTrials: 3,
		Seed:      7,
	}
	results, err := RunMonteCarlo(context.Background(), mc, io.Discard)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(results).To(HaveLen(3))
	for i, r := range results {
		g.Expect(r.TrialID).To(Equal(i))
		g.Expect(r.Seafloor.C).To(BeNumerically("~", 1700, 1700*0.05))
		g.Expect(r.Seafloor.Loss).To(BeNumerically("~", 0.5, 0.25))
	}
	g.Expect(results[0].Seafloor.C).NotTo(Equal(results[1].Seafloor.C))

	again, err := RunMonteCarlo(context.Background(), mc, io.Discard)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(again[2].Seafloor).To(Equal(results[2].Seafloor))

	mean, std := MonteCarloStats(results)
	g.Expect(mean).To(BeNumerically(">", 0))
	g.Expect(std).To(BeNumerically(">=", 0))
}

func TestMonteCarloStats(t *testing.T) {
	g := NewWithT(t)

	mean, std := MonteCarloStats([]MonteCarloResult{{MeanTL: 40}, {MeanTL: 50}})
	g.Expect(mean).To(BeNumerically("~", 45, 1e-12))
	g.Expect(std).To(BeNumerically("~", 7.0710678, 1e-6))

	mean, std = MonteCarloStats([]MonteCarloResult{{MeanTL: 40}})
	g.Expect(mean).To(Equal(40.0))
	g.Expect(std).To(Equal(0.0))
}
