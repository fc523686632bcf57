package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSite() (*SiteData, error)
	GetSolver() (*SolverData, error)
	GetScenarios() ([]ScenarioData, error)

	// Configuration management
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Site      SiteData       `json:"site,omitempty"`
	Solver    SolverData     `json:"solver,omitempty"`
	Scenarios []ScenarioData `json:"scenarios"`
}

// SiteData identifies the monitored site; the coordinates drive the
// wind lookup for every scenario that does not pin its own wind.
type SiteData struct {
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SolverData overrides the inversion solver defaults; zero fields keep
// the built-in values.
type SolverData struct {
	LearningRate     float64 `json:"learning_rate,omitempty"`
	MaxIterations    int     `json:"max_iterations,omitempty"`
	ConvergenceTol   float64 `json:"convergence_tol,omitempty"`
	WarmupIterations int     `json:"warmup_iterations,omitempty"`
	PlateauPatience  int     `json:"plateau_patience,omitempty"`
	MinLearningRate  float64 `json:"min_learning_rate,omitempty"`
}

// ScenarioData holds one audit scenario: a facility's claimed emission
// rate plus the synthetic measurement campaign used to check it.
type ScenarioData struct {
	Name            string  `json:"name"`
	ClaimedRateKgHr float64 `json:"claimed_rate_kg_hr"`
	SourceHeight    float64 `json:"source_height,omitempty"`
	Receptors       int     `json:"receptors,omitempty"`
	DomainM         float64 `json:"domain_m,omitempty"`
	// NoiseLevel is the synthetic measurement noise as a fraction of the
	// peak concentration; zero runs a noise-free audit.
	NoiseLevel float64 `json:"noise_level,omitempty"`
	// WindSpeed and Stability pin the meteorology for this scenario;
	// when left empty the site wind lookup supplies both.
	WindSpeed float64 `json:"wind_speed,omitempty"`
	Stability string  `json:"stability,omitempty"`
}
