package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/config"
	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/inversion"
	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/plume"
	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/severity"
	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/wind"
)

// App runs emission audits: for each configured scenario it simulates a
// measurement campaign around the claimed rate, inverts the observations
// back to an estimate, and reports how the claim held up.
type App struct {
	configProvider config.ConfigProvider
	winds          wind.Provider
	logger         *zap.SugaredLogger
	out            io.Writer
}

// New creates a new application instance
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		winds:          wind.NewSyntheticProvider(),
		logger:         logger,
		out:            os.Stdout,
	}
}

// AuditResult captures the outcome of a single scenario audit.
type AuditResult struct {
	Scenario       string
	ClaimedKgHr    float64
	EstimatedKgHr  float64
	ConfidenceLow  float64
	ConfidenceHigh float64
	DeviationPct   float64
	Severity       severity.Level
	Converged      bool
	Iterations     int
	Wind           wind.Data
}

// Run executes the configured audit scenarios and blocks until they finish
// or a shutdown signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	site, err := a.configProvider.GetSite()
	if err != nil {
		return fmt.Errorf("loading site configuration: %w", err)
	}
	solverCfg, err := a.configProvider.GetSolver()
	if err != nil {
		return fmt.Errorf("loading solver configuration: %w", err)
	}
	scenarios, err := a.configProvider.GetScenarios()
	if err != nil {
		return fmt.Errorf("loading scenarios: %w", err)
	}
	if len(scenarios) == 0 {
		return errors.New("no audit scenarios configured")
	}

	done := make(chan error, 1)
	go func() {
		done <- a.runAudits(ctx, site, solverCfg, scenarios)
	}()

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-done:
		return err
	case <-sigs:
		a.logger.Info("shutdown signal received, stopping audit run...")
		cancel()
		return <-done
	case <-ctx.Done():
		return <-done
	}
}

func (a *App) runAudits(ctx context.Context, site *config.SiteData, solverCfg *config.SolverData, scenarios []config.ScenarioData) error {
	runID := uuid.New().String()
	solver := inversion.NewSolver(a.solverOptions(solverCfg))

	a.logger.Infow("audit run starting",
		"run_id", runID, "site", site.Name, "scenarios", len(scenarios))

	results := make([]AuditResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		if ctx.Err() != nil {
			a.logger.Warnf("audit run interrupted after %d of %d scenarios", len(results), len(scenarios))
			break
		}

		result, err := a.auditScenario(site, scenario, solver)
		if err != nil {
			a.logger.Errorw("scenario failed", "run_id", runID, "scenario", scenario.Name, "error", err)
			continue
		}

		a.logger.Infow("scenario audited",
			"run_id", runID,
			"scenario", result.Scenario,
			"claimed_kg_hr", result.ClaimedKgHr,
			"estimated_kg_hr", result.EstimatedKgHr,
			"severity", result.Severity.String(),
			"converged", result.Converged,
			"iterations", result.Iterations)
		results = append(results, result)
	}

	if len(results) == 0 {
		return errors.New("no audit scenarios completed")
	}

	a.displayReport(runID, site, results)
	return nil
}

// auditScenario rebuilds the claimed release as a synthetic measurement
// campaign and inverts it. The site wind lookup supplies meteorology unless
// the scenario pins its own.
func (a *App) auditScenario(site *config.SiteData, scenario config.ScenarioData, solver *inversion.Solver) (AuditResult, error) {
	met := a.winds.Wind(site.Latitude, site.Longitude)
	if scenario.WindSpeed > 0 {
		met.SpeedMS = scenario.WindSpeed
		met.Class = wind.StabilityForSpeed(scenario.WindSpeed)
		met.Source = "scenario"
	}
	if scenario.Stability != "" {
		met.Class = plume.ParseStabilityClass(scenario.Stability)
	}

	obs := inversion.NewSyntheticObservation(inversion.SyntheticConfig{
		TrueQKgS:     scenario.ClaimedRateKgHr / plume.SecondsPerHour,
		WindSpeed:    met.SpeedMS,
		SourceHeight: scenario.SourceHeight,
		Class:        met.Class,
		Receptors:    scenario.Receptors,
		DomainM:      scenario.DomainM,
		NoiseLevel:   scenario.NoiseLevel,
	})

	res, err := solver.Invert(obs.Request())
	if err != nil {
		return AuditResult{}, err
	}

	return AuditResult{
		Scenario:       scenario.Name,
		ClaimedKgHr:    scenario.ClaimedRateKgHr,
		EstimatedKgHr:  res.QKgHr,
		ConfidenceLow:  res.ConfidenceLow,
		ConfidenceHigh: res.ConfidenceHigh,
		DeviationPct:   res.ErrorPct,
		Severity:       severity.Classify(res.QKgHr),
		Converged:      res.Converged,
		Iterations:     res.Iterations,
		Wind:           met,
	}, nil
}

// solverOptions merges configuration overrides onto the solver defaults;
// zero-valued fields keep the built-in values.
func (a *App) solverOptions(cfg *config.SolverData) inversion.Options {
	opts := inversion.DefaultOptions()
	opts.Logger = a.logger
	if cfg == nil {
		return opts
	}
	if cfg.LearningRate > 0 {
		opts.LearningRate = cfg.LearningRate
	}
	if cfg.MaxIterations > 0 {
		opts.MaxIterations = cfg.MaxIterations
	}
	if cfg.ConvergenceTol > 0 {
		opts.ConvergenceTol = cfg.ConvergenceTol
	}
	if cfg.WarmupIterations > 0 {
		opts.WarmupIterations = cfg.WarmupIterations
	}
	if cfg.PlateauPatience > 0 {
		opts.PlateauPatience = cfg.PlateauPatience
	}
	if cfg.MinLearningRate > 0 {
		opts.MinLearningRate = cfg.MinLearningRate
	}
	return opts
}

func (a *App) displayReport(runID string, site *config.SiteData, results []AuditResult) {
	fmt.Fprintf(a.out, "Emission Audit Report\n")
	fmt.Fprintf(a.out, "=====================\n\n")
	fmt.Fprintf(a.out, "Run: %s\n", runID)
	if site.Name != "" {
		fmt.Fprintf(a.out, "Site: %s (%.4f, %.4f)\n", site.Name, site.Latitude, site.Longitude)
	}
	fmt.Fprintf(a.out, "Scenarios: %d\n\n", len(results))

	fmt.Fprintf(a.out, "%-16s | %10s | %10s | %-24s | %8s | %s\n",
		"Scenario", "Claimed", "Estimated", "95% CI (kg/hr)", "Dev %", "Severity")
	fmt.Fprintf(a.out, "-----------------+------------+------------+--------------------------+----------+--------------------\n")

	deviations := make([]float64, len(results))
	converged := 0
	totalRate := 0.0
	worst := results[0]
	for i, r := range results {
		ci := fmt.Sprintf("[%.3g, %.3g]", r.ConfidenceLow, r.ConfidenceHigh)
		fmt.Fprintf(a.out, "%-16s | %10.2f | %10.2f | %-24s | %8.2f | %s\n",
			r.Scenario, r.ClaimedKgHr, r.EstimatedKgHr, ci, r.DeviationPct, r.Severity)

		deviations[i] = r.DeviationPct
		if r.Converged {
			converged++
		}
		totalRate += r.EstimatedKgHr
		if r.EstimatedKgHr > worst.EstimatedKgHr {
			worst = r
		}
	}

	fmt.Fprintf(a.out, "\nSummary:\n")
	fmt.Fprintf(a.out, "  Converged: %d/%d scenarios\n", converged, len(results))
	fmt.Fprintf(a.out, "  Mean deviation from claim: %.2f%%\n", stat.Mean(deviations, nil))
	fmt.Fprintf(a.out, "  Largest emitter: %s at %.2f kg/hr (%s)\n",
		worst.Scenario, worst.EstimatedKgHr, worst.Severity.Urgency())
	fmt.Fprintf(a.out, "  Audited sources total: %.1f t CH4/yr (%.0f t CO2e, GWP-20)\n",
		severity.AnnualTonnes(totalRate), severity.CO2EquivalentTonnes(totalRate))
}
