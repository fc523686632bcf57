// Package wind supplies per-location wind conditions to the dispersion and
// inversion code. The Provider interface is deliberately narrow so a real
// meteorological feed can slot in later; the synthetic provider generates
// stable, repeatable conditions for demos and tests.
package wind

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/plume"
)

// Data describes the wind at one location. Direction follows meteorological
// convention: degrees the wind blows FROM, clockwise from north. UComponent
// and VComponent are the eastward and northward transport components in m/s.
type Data struct {
	SpeedMS      float64
	DirectionDeg float64
	UComponent   float64
	VComponent   float64
	Class        plume.StabilityClass
	Source       string
}

// Provider yields wind conditions for a latitude/longitude.
type Provider interface {
	Wind(lat, lon float64) Data
}

// SyntheticProvider derives repeatable pseudo-random wind from the location
// itself: the same coordinates always return the same conditions, and nearby
// runs do not perturb each other.
type SyntheticProvider struct {
	DefaultSpeed     float64 // mean speed in m/s
	DefaultDirection float64 // mean direction in degrees
}

// NewSyntheticProvider returns a provider centered on 3 m/s westerly wind.
func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{DefaultSpeed: 3.0, DefaultDirection: 270.0}
}

// Wind returns the synthetic conditions at (lat, lon). Speed varies ±1 m/s
// around the default with a 0.5 m/s floor, direction varies ±30° with
// wrap-around, and the stability class follows the speed: light winds leave
// convection in charge (B), strong winds force mechanical mixing (E).
func (p *SyntheticProvider) Wind(lat, lon float64) Data {
	seed := uint64(math.Abs(lat*1000.0+lon*100.0)) % (1 << 31)
	src := rand.NewPCG(seed, seed)

	speed := p.DefaultSpeed + distuv.Uniform{Min: -1, Max: 1, Src: src}.Rand()
	if speed < 0.5 {
		speed = 0.5
	}

	direction := math.Mod(p.DefaultDirection+distuv.Uniform{Min: -30, Max: 30, Src: src}.Rand(), 360.0)
	if direction < 0 {
		direction += 360.0
	}

	dirRad := direction * math.Pi / 180.0
	return Data{
		SpeedMS:      speed,
		DirectionDeg: direction,
		UComponent:   -speed * math.Sin(dirRad),
		VComponent:   -speed * math.Cos(dirRad),
		Class:        StabilityForSpeed(speed),
		Source:       "synthetic",
	}
}

// Grid samples the provider over an n×n latitude/longitude mesh, row-major
// with latitude varying by row, for quick field visualizations.
func (p *SyntheticProvider) Grid(latMin, latMax, lonMin, lonMax float64, n int) []Data {
	if n < 1 {
		return nil
	}
	out := make([]Data, 0, n*n)
	for i := 0; i < n; i++ {
		lat := latMin
		if n > 1 {
			lat += (latMax - latMin) * float64(i) / float64(n-1)
		}
		for j := 0; j < n; j++ {
			lon := lonMin
			if n > 1 {
				lon += (lonMax - lonMin) * float64(j) / float64(n-1)
			}
			out = append(out, p.Wind(lat, lon))
		}
	}
	return out
}

// StabilityForSpeed maps wind speed to a Pasquill-Gifford class. Light wind
// lets buoyant instability dominate; strong wind shears toward stable flow.
func StabilityForSpeed(speed float64) plume.StabilityClass {
	switch {
	case speed < 2.0:
		return plume.StabilityB
	case speed < 4.0:
		return plume.StabilityC
	case speed < 6.0:
		return plume.StabilityD
	default:
		return plume.StabilityE
	}
}
