package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Site      SiteYAML       `yaml:"site,omitempty"`
		Solver    SolverYAML     `yaml:"solver,omitempty"`
		Scenarios []ScenarioYAML `yaml:"scenarios"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Site: SiteData{
			Name:      yamlConfig.Site.Name,
			Latitude:  yamlConfig.Site.Latitude,
			Longitude: yamlConfig.Site.Longitude,
		},
		Solver: SolverData{
			LearningRate:     yamlConfig.Solver.LearningRate,
			MaxIterations:    yamlConfig.Solver.MaxIterations,
			ConvergenceTol:   yamlConfig.Solver.ConvergenceTol,
			WarmupIterations: yamlConfig.Solver.WarmupIterations,
			PlateauPatience:  yamlConfig.Solver.PlateauPatience,
			MinLearningRate:  yamlConfig.Solver.MinLearningRate,
		},
		Scenarios: make([]ScenarioData, len(yamlConfig.Scenarios)),
	}

	for i, scenario := range yamlConfig.Scenarios {
		config.Scenarios[i] = ScenarioData{
			Name:            scenario.Name,
			ClaimedRateKgHr: scenario.ClaimedRateKgHr,
			SourceHeight:    scenario.SourceHeight,
			Receptors:       scenario.Receptors,
			DomainM:         scenario.DomainM,
			NoiseLevel:      scenario.NoiseLevel,
			WindSpeed:       scenario.WindSpeed,
			Stability:       scenario.Stability,
		}
	}

	y.config = config
	return config, nil
}

// GetSite returns the site configuration
func (y *YAMLProvider) GetSite() (*SiteData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Site, nil
}

// GetSolver returns the solver override configuration
func (y *YAMLProvider) GetSolver() (*SolverData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return &y.config.Solver, nil
}

// GetScenarios returns the audit scenario configurations
func (y *YAMLProvider) GetScenarios() ([]ScenarioData, error) {
	if y.config == nil {
		_, err := y.LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	return y.config.Scenarios, nil
}

// IsReadOnly returns true since YAML files are read-only through this interface
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}

// YAML-specific structs with proper YAML tags for parsing the original format
type SiteYAML struct {
	Name      string  `yaml:"name,omitempty"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
}

type SolverYAML struct {
	LearningRate     float64 `yaml:"learning-rate,omitempty"`
	MaxIterations    int     `yaml:"max-iterations,omitempty"`
	ConvergenceTol   float64 `yaml:"convergence-tol,omitempty"`
	WarmupIterations int     `yaml:"warmup-iterations,omitempty"`
	PlateauPatience  int     `yaml:"plateau-patience,omitempty"`
	MinLearningRate  float64 `yaml:"min-learning-rate,omitempty"`
}

type ScenarioYAML struct {
	Name            string  `yaml:"name"`
	ClaimedRateKgHr float64 `yaml:"claimed-rate-kg-hr"`
	SourceHeight    float64 `yaml:"source-height,omitempty"`
	Receptors       int     `yaml:"receptors,omitempty"`
	DomainM         float64 `yaml:"domain-m,omitempty"`
	NoiseLevel      float64 `yaml:"noise-level,omitempty"`
	WindSpeed       float64 `yaml:"wind-speed,omitempty"`
	Stability       string  `yaml:"stability,omitempty"`
}
