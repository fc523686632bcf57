package app

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/config"
	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/inversion"
	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/plume"
	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/severity"
)

func testApp(cfg *config.ConfigData) (*App, *bytes.Buffer) {
	a := New(config.NewStaticProvider(cfg), zap.NewNop().Sugar())
	buf := &bytes.Buffer{}
	a.out = buf
	return a, buf
}

func TestSolverOptionsMerge(t *testing.T) {
	a, _ := testApp(&config.ConfigData{})
	def := inversion.DefaultOptions()

	opts := a.solverOptions(nil)
	if opts.LearningRate != def.LearningRate || opts.MaxIterations != def.MaxIterations {
		t.Errorf("nil config should keep defaults: %+v", opts)
	}
	if opts.Logger == nil {
		t.Error("solver logger not attached")
	}

	opts = a.solverOptions(&config.SolverData{MaxIterations: 800, ConvergenceTol: 1e-5})
	if opts.MaxIterations != 800 || opts.ConvergenceTol != 1e-5 {
		t.Errorf("overrides not applied: %+v", opts)
	}
	if opts.LearningRate != def.LearningRate || opts.PlateauPatience != def.PlateauPatience {
		t.Errorf("unset fields should keep defaults: %+v", opts)
	}
}

func TestAuditScenario(t *testing.T) {
	a, _ := testApp(&config.ConfigData{})
	solver := inversion.NewSolver(inversion.DefaultOptions())
	site := &config.SiteData{Name: "test", Latitude: 28.35, Longitude: 5.92}

	result, err := a.auditScenario(site, config.ScenarioData{
		Name:            "compressor-2",
		ClaimedRateKgHr: 180,
		SourceHeight:    5,
		Receptors:       200,
		WindSpeed:       3.0,
	}, solver)
	if err != nil {
		t.Fatalf("auditScenario: %v", err)
	}

	if !result.Converged {
		t.Error("noise-free audit did not converge")
	}
	if result.DeviationPct >= 5 {
		t.Errorf("deviation %.2f%% from a noise-free claim, expected < 5%%", result.DeviationPct)
	}
	if result.Severity != severity.Major {
		t.Errorf("severity = %v for ~180 kg/hr, want Major", result.Severity)
	}
	if result.Wind.Source != "scenario" {
		t.Errorf("pinned wind not marked: %q", result.Wind.Source)
	}
	if result.Wind.SpeedMS != 3.0 {
		t.Errorf("pinned wind speed = %g, want 3", result.Wind.SpeedMS)
	}
}

func TestAuditScenarioStabilityOverride(t *testing.T) {
	a, _ := testApp(&config.ConfigData{})
	solver := inversion.NewSolver(inversion.DefaultOptions())
	site := &config.SiteData{Latitude: 28.35, Longitude: 5.92}

	result, err := a.auditScenario(site, config.ScenarioData{
		Name:            "stable-night",
		ClaimedRateKgHr: 40,
		Receptors:       120,
		WindSpeed:       3.0,
		Stability:       "F",
	}, solver)
	if err != nil {
		t.Fatalf("auditScenario: %v", err)
	}
	if result.Wind.Class != plume.StabilityF {
		t.Errorf("stability override ignored: got %v", result.Wind.Class)
	}
}

func TestRunProducesReport(t *testing.T) {
	a, buf := testApp(&config.ConfigData{
		Site: config.SiteData{Name: "Hassi Field Station", Latitude: 28.35, Longitude: 5.92},
		Scenarios: []config.ScenarioData{
			{Name: "compressor-2", ClaimedRateKgHr: 40, Receptors: 150, WindSpeed: 4.0},
			{Name: "flare-stack", ClaimedRateKgHr: 700, Receptors: 150, WindSpeed: 5.0},
		},
	})

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	report := buf.String()
	for _, want := range []string{
		"Emission Audit Report",
		"Hassi Field Station",
		"compressor-2",
		"flare-stack",
		"Summary:",
		"Converged: 2/2 scenarios",
		"SUPER-EMITTER",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestRunNoScenarios(t *testing.T) {
	a, _ := testApp(&config.ConfigData{})
	if err := a.Run(context.Background()); err == nil {
		t.Error("expected error with no scenarios configured")
	}
}

func TestRunCancelledContext(t *testing.T) {
	a, buf := testApp(&config.ConfigData{
		Scenarios: []config.ScenarioData{
			{Name: "compressor-2", ClaimedRateKgHr: 40, Receptors: 150, WindSpeed: 4.0},
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.Run(ctx); err == nil {
		t.Error("expected error when cancelled before any scenario ran")
	}
	if buf.Len() != 0 {
		t.Errorf("no report expected after immediate cancellation, got:\n%s", buf.String())
	}
}
