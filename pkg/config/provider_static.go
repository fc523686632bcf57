package config

// StaticProvider implements ConfigProvider for configuration assembled in
// code, such as the built-in demo scenarios.
type StaticProvider struct {
	config *ConfigData
}

// NewStaticProvider creates a provider backed by an in-memory configuration
func NewStaticProvider(config *ConfigData) *StaticProvider {
	return &StaticProvider{config: config}
}

// LoadConfig returns the wrapped configuration
func (s *StaticProvider) LoadConfig() (*ConfigData, error) {
	return s.config, nil
}

// GetSite returns the site configuration
func (s *StaticProvider) GetSite() (*SiteData, error) {
	return &s.config.Site, nil
}

// GetSolver returns the solver override configuration
func (s *StaticProvider) GetSolver() (*SolverData, error) {
	return &s.config.Solver, nil
}

// GetScenarios returns the audit scenario configurations
func (s *StaticProvider) GetScenarios() ([]ScenarioData, error) {
	return s.config.Scenarios, nil
}

// IsReadOnly returns true; static configuration cannot be modified
func (s *StaticProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for static provider
func (s *StaticProvider) Close() error {
	return nil
}
