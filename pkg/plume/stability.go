// Package plume implements a Gaussian plume dispersion model for methane
// releases, with Pasquill-Gifford dispersion coefficients and a smooth
// downwind mask so the model stays differentiable everywhere.
package plume

import (
	"math"
	"strings"
)

// StabilityClass is a Pasquill-Gifford atmospheric stability category,
// from A (very unstable, strong daytime convection) to F (very stable,
// clear calm nights).
type StabilityClass int

const (
	StabilityA StabilityClass = iota
	StabilityB
	StabilityC
	StabilityD
	StabilityE
	StabilityF
)

// dispersionCoeffs holds the power-law fit σ = coeff * x_km^exp * 1000 (meters)
// for the horizontal (Y) and vertical (Z) plume spread at downwind distance x_km.
type dispersionCoeffs struct {
	aY, bY float64 // horizontal spread: σy = aY * x_km^bY km
	aZ, bZ float64 // vertical spread:   σz = aZ * x_km^bZ km
}

// Pasquill-Gifford rural coefficients. The 0.894 exponent is the standard
// open-country fit; only the magnitude varies with stability.
var stabilityCoeffs = [...]dispersionCoeffs{
	StabilityA: {0.22, 0.894, 0.20, 0.894},
	StabilityB: {0.16, 0.894, 0.12, 0.894},
	StabilityC: {0.11, 0.894, 0.08, 0.894},
	StabilityD: {0.08, 0.894, 0.06, 0.894},
	StabilityE: {0.06, 0.894, 0.03, 0.894},
	StabilityF: {0.04, 0.894, 0.016, 0.894},
}

// minDistanceKm floors the downwind distance used in the power laws so the
// spread coefficients stay finite and positive arbitrarily close to the source.
const minDistanceKm = 0.01

// ParseStabilityClass maps a letter label ("A".."F", any case) to its class.
// Unknown labels fall back to neutral class D, the usual default when the
// stability estimate is missing or unreliable.
func ParseStabilityClass(label string) StabilityClass {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "A":
		return StabilityA
	case "B":
		return StabilityB
	case "C":
		return StabilityC
	case "D":
		return StabilityD
	case "E":
		return StabilityE
	case "F":
		return StabilityF
	default:
		return StabilityD
	}
}

// String returns the single-letter Pasquill-Gifford label.
func (c StabilityClass) String() string {
	if c < StabilityA || c > StabilityF {
		return "D"
	}
	return string(rune('A' + int(c)))
}

// coeffs returns the dispersion coefficients, defaulting to class D for
// out-of-range values so arithmetic never indexes past the table.
func (c StabilityClass) coeffs() dispersionCoeffs {
	if c < StabilityA || c > StabilityF {
		c = StabilityD
	}
	return stabilityCoeffs[c]
}

// SigmaY returns the horizontal dispersion coefficient in meters at downwind
// distance xKm (kilometers). Distances below minDistanceKm are floored, so
// the result is strictly positive and non-decreasing in x.
func (c StabilityClass) SigmaY(xKm float64) float64 {
	if xKm < minDistanceKm {
		xKm = minDistanceKm
	}
	cf := c.coeffs()
	return cf.aY * math.Pow(xKm, cf.bY) * 1000.0
}

// SigmaZ returns the vertical dispersion coefficient in meters at downwind
// distance xKm (kilometers), with the same floor as SigmaY.
func (c StabilityClass) SigmaZ(xKm float64) float64 {
	if xKm < minDistanceKm {
		xKm = minDistanceKm
	}
	cf := c.coeffs()
	return cf.aZ * math.Pow(xKm, cf.bZ) * 1000.0
}
