// Package severity classifies methane emission rates into the response
// categories used for leak triage and reporting
package severity

// Level is a triage band for an estimated emission rate.
type Level int32

const (
	Minor Level = iota
	Significant
	Major
	SuperEmitter
)

const (
	hoursPerYear = 8760
	// Methane is ~80x CO2 over a 20-year horizon
	gwp20 = 80
)

// Classify buckets an emission rate in kg/hr into a severity level.
func Classify(rateKgHr float64) Level {
	switch {
	case rateKgHr > 500:
		return SuperEmitter
	case rateKgHr > 100:
		return Major
	case rateKgHr > 25:
		return Significant
	default:
		return Minor
	}
}

// String returns the category name for a severity level.
func (l Level) String() string {
	switch l {
	case SuperEmitter:
		return "SUPER-EMITTER"
	case Major:
		return "Major Emitter"
	case Significant:
		return "Significant Emitter"
	default:
		return "Minor Emitter"
	}
}

// Urgency returns the recommended operational response for a severity level.
func (l Level) Urgency() string {
	switch l {
	case SuperEmitter:
		return "IMMEDIATE ACTION REQUIRED"
	case Major:
		return "High Priority - Investigate within 48 hours"
	case Significant:
		return "Medium Priority - Schedule inspection"
	default:
		return "Low Priority - Monitor"
	}
}

// Color returns the standard display color code for a severity level.
func (l Level) Color() string {
	switch l {
	case SuperEmitter:
		return "#7e0023" // Maroon
	case Major:
		return "#ff0000" // Red
	case Significant:
		return "#ff7e00" // Orange
	default:
		return "#00e400" // Green
	}
}

// AnnualTonnes converts an emission rate in kg/hr to tonnes of methane per
// year assuming continuous release.
func AnnualTonnes(rateKgHr float64) float64 {
	return rateKgHr * hoursPerYear / 1000.0
}

// CO2EquivalentTonnes converts an emission rate in kg/hr to tonnes of
// CO2-equivalent per year on the 20-year warming horizon.
func CO2EquivalentTonnes(rateKgHr float64) float64 {
	return AnnualTonnes(rateKgHr) * gwp20
}
