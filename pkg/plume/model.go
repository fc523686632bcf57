package plume

import (
	"fmt"
	"math"
)

const (
	// minEmissionRate floors the rate before taking its log so a zero or
	// negative initial guess still yields a finite parameter.
	minEmissionRate = 1e-8

	// minWindSpeed floors the transport wind so near-calm conditions do not
	// blow the concentration up toward infinity.
	minWindSpeed = 0.5

	// downwindSharpness sets how quickly the sigmoid mask shuts the plume
	// off upwind of the source, in 1/meters.
	downwindSharpness = 10.0

	// SecondsPerHour converts emission rates between kg/s and kg/hr.
	SecondsPerHour = 3600.0
)

// Model is a steady-state Gaussian plume with ground reflection. The source
// strength is carried in log space so it stays positive under unconstrained
// gradient updates; the source position offsets are plain meters.
//
// Receptor coordinates are meters in a wind-aligned frame: x downwind,
// y crosswind, z height above ground.
type Model struct {
	LogQ    float64 // log emission rate, rate in kg/s
	SourceX float64 // source easting offset, m downwind
	SourceY float64 // source northing offset, m crosswind
	Height  float64 // effective release height, m above ground
	Class   StabilityClass
}

// NewModel builds a plume model for the given emission rate (kg/s), source
// position offsets (m), release height (m) and stability class. Rates at or
// below zero are floored at minEmissionRate before the log is taken.
func NewModel(emissionRate, sourceX, sourceY, height float64, class StabilityClass) *Model {
	if emissionRate < minEmissionRate || math.IsNaN(emissionRate) {
		emissionRate = minEmissionRate
	}
	return &Model{
		LogQ:    math.Log(emissionRate),
		SourceX: sourceX,
		SourceY: sourceY,
		Height:  height,
		Class:   class,
	}
}

// Q returns the emission rate in kg/s.
func (m *Model) Q() float64 {
	return math.Exp(m.LogQ)
}

// QKgHr returns the emission rate in kg/hr.
func (m *Model) QKgHr() float64 {
	return math.Exp(m.LogQ) * SecondsPerHour
}

// sigmoid is the logistic function. The naive form is safe in float64: the
// exponential saturates to +Inf or 0 but never produces NaN here.
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

// Concentration evaluates the plume at a single receptor (meters, wind-aligned
// frame) for the given wind speed (m/s) and returns kg/m³.
//
// The model is the standard reflected Gaussian plume
//
//	C = Q / (2π u σy σz) · exp(-dy²/2σy²) · [exp(-(dz-H)²/2σz²) + exp(-(dz+H)²/2σz²)]
//
// multiplied by a smooth sigmoid mask that zeroes receptors upwind of the
// source while keeping the surface differentiable through dx = 0.
func (m *Model) Concentration(rx, ry, rz, windSpeed float64) float64 {
	dx := rx - m.SourceX
	dy := ry - m.SourceY

	// Spread coefficients from the absolute downwind distance; the sign of
	// dx only enters through the mask below.
	xKm := math.Abs(dx) / 1000.0
	sigY := m.Class.SigmaY(xKm)
	sigZ := m.Class.SigmaZ(xKm)

	u := windSpeed
	if u < minWindSpeed {
		u = minWindSpeed
	}

	q := math.Exp(m.LogQ)
	norm := q / (2.0 * math.Pi * u * sigY * sigZ)

	lateral := math.Exp(-dy * dy / (2.0 * sigY * sigY))

	// Ground reflection: image source at -H below grade.
	dzm := rz - m.Height
	dzp := rz + m.Height
	vertical := math.Exp(-dzm*dzm/(2.0*sigZ*sigZ)) + math.Exp(-dzp*dzp/(2.0*sigZ*sigZ))

	return norm * lateral * vertical * sigmoid(downwindSharpness*dx)
}

// Evaluate computes concentrations (kg/m³) at every receptor. The three
// coordinate slices must have equal length; see EvaluateInto.
func (m *Model) Evaluate(rx, ry, rz []float64, windSpeed float64) []float64 {
	dst := make([]float64, len(rx))
	m.EvaluateInto(dst, rx, ry, rz, windSpeed)
	return dst
}

// EvaluateInto is Evaluate without the allocation; dst must have the same
// length as the coordinate slices. Mismatched lengths are a caller bug and
// panic rather than silently truncating.
func (m *Model) EvaluateInto(dst, rx, ry, rz []float64, windSpeed float64) {
	if len(ry) != len(rx) || len(rz) != len(rx) || len(dst) != len(rx) {
		panic(fmt.Sprintf("plume: receptor slice lengths differ: dst=%d x=%d y=%d z=%d",
			len(dst), len(rx), len(ry), len(rz)))
	}
	for i := range rx {
		dst[i] = m.Concentration(rx[i], ry[i], rz[i], windSpeed)
	}
}
