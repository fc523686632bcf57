package inversion

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/plume"
)

func TestSyntheticDeterministic(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	a := NewSyntheticObservation(cfg)
	b := NewSyntheticObservation(cfg)

	if len(a.Observed) != len(b.Observed) {
		t.Fatalf("lengths differ: %d vs %d", len(a.Observed), len(b.Observed))
	}
	for i := range a.Observed {
		if a.ReceptorX[i] != b.ReceptorX[i] || a.ReceptorY[i] != b.ReceptorY[i] ||
			a.Observed[i] != b.Observed[i] {
			t.Fatalf("receptor %d differs between identical configs", i)
		}
	}
}

func TestSyntheticParameterSensitivity(t *testing.T) {
	base := DefaultSyntheticConfig()

	perturbed := base
	perturbed.WindSpeed += 0.1
	other := NewSyntheticObservation(perturbed)
	ref := NewSyntheticObservation(base)

	same := true
	for i := range ref.ReceptorX {
		if ref.ReceptorX[i] != other.ReceptorX[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different configurations produced identical receptor draws")
	}
}

func TestSyntheticReceptorLayout(t *testing.T) {
	cfg := SyntheticConfig{
		TrueQKgS:     0.05,
		WindSpeed:    3.0,
		SourceHeight: 5.0,
		Class:        plume.StabilityD,
		Receptors:    400,
		DomainM:      3000,
		NoiseLevel:   0.0,
	}
	obs := NewSyntheticObservation(cfg)

	if len(obs.Observed) != 400 || len(obs.ReceptorX) != 400 ||
		len(obs.ReceptorY) != 400 || len(obs.ReceptorZ) != 400 || len(obs.Clean) != 400 {
		t.Fatalf("expected 400 receptors, got %d/%d/%d/%d/%d",
			len(obs.Observed), len(obs.ReceptorX), len(obs.ReceptorY), len(obs.ReceptorZ), len(obs.Clean))
	}
	// Far off axis near the source the lateral Gaussian underflows float64 to
	// exactly zero, so strict positivity only holds inside the plume cone;
	// everywhere else clean values must still be finite and non-negative.
	positive := 0
	for i := range obs.ReceptorX {
		if obs.ReceptorX[i] < 100 || obs.ReceptorX[i] > 3000 {
			t.Errorf("receptor %d: x = %g outside [100, 3000]", i, obs.ReceptorX[i])
		}
		if obs.ReceptorY[i] < -1000 || obs.ReceptorY[i] > 1000 {
			t.Errorf("receptor %d: y = %g outside [-1000, 1000]", i, obs.ReceptorY[i])
		}
		if obs.ReceptorZ[i] != 0 {
			t.Errorf("receptor %d: z = %g, expected ground level", i, obs.ReceptorZ[i])
		}

		c := obs.Clean[i]
		if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			t.Errorf("receptor %d: bad clean concentration %g", i, c)
		}
		if c > 0 {
			positive++
		} else if math.Abs(obs.ReceptorY[i]) <= obs.ReceptorX[i]/2 {
			t.Errorf("receptor %d: zero concentration inside the plume at (%g, %g)",
				i, obs.ReceptorX[i], obs.ReceptorY[i])
		}
	}
	if positive < 3*len(obs.Clean)/4 {
		t.Errorf("only %d/%d receptors carry signal", positive, len(obs.Clean))
	}
}

func TestSyntheticNoiseFree(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	cfg.NoiseLevel = 0
	obs := NewSyntheticObservation(cfg)
	for i := range obs.Observed {
		if obs.Observed[i] != obs.Clean[i] {
			t.Fatalf("receptor %d: observed %g != clean %g with zero noise", i, obs.Observed[i], obs.Clean[i])
		}
	}
}

func TestSyntheticNoise(t *testing.T) {
	cfg := DefaultSyntheticConfig()
	cfg.Receptors = 400
	cfg.NoiseLevel = 0.05
	obs := NewSyntheticObservation(cfg)

	sigma := cfg.NoiseLevel * floats.Max(obs.Clean)
	changed := 0
	meanDev := 0.0
	for i := range obs.Observed {
		if obs.Observed[i] < 0 {
			t.Errorf("receptor %d: observed %g, negative after clipping", i, obs.Observed[i])
		}
		dev := math.Abs(obs.Observed[i] - obs.Clean[i])
		if dev > 6*sigma {
			t.Errorf("receptor %d: deviation %g exceeds 6 sigma (%g)", i, dev, 6*sigma)
		}
		if dev > 0 {
			changed++
		}
		meanDev += dev
	}
	meanDev /= float64(len(obs.Observed))

	if changed == 0 {
		t.Error("noise changed no observations")
	}
	if meanDev < 0.1*sigma {
		t.Errorf("mean deviation %g implausibly small for sigma %g", meanDev, sigma)
	}
	t.Logf("%d/%d perturbed, mean |dev| %.3g (sigma %.3g)", changed, len(obs.Observed), meanDev, sigma)
}

func TestSyntheticDefaults(t *testing.T) {
	obs := NewSyntheticObservation(SyntheticConfig{
		TrueQKgS:  0.05,
		WindSpeed: 3.0,
		Class:     plume.StabilityD,
	})
	if len(obs.Observed) != 200 {
		t.Errorf("zero Receptors: got %d, expected default 200", len(obs.Observed))
	}
	if max := floats.Max(obs.ReceptorX); max > 3000 {
		t.Errorf("zero DomainM: receptor x up to %g, expected default 3000 m domain", max)
	}

	def := DefaultSyntheticConfig()
	if def.TrueQKgS != 0.014 || def.WindSpeed != 3.0 || def.Class != plume.StabilityD ||
		def.Receptors != 200 || def.DomainM != 3000 || def.NoiseLevel != 0.05 {
		t.Errorf("unexpected defaults: %+v", def)
	}
}

func TestObservationRequest(t *testing.T) {
	obs := NewSyntheticObservation(DefaultSyntheticConfig())
	req := obs.Request()

	if &req.Observed[0] != &obs.Observed[0] {
		t.Error("request does not share the observation slices")
	}
	if req.WindSpeed != obs.WindSpeed || req.Class != obs.Class || req.SourceHeight != obs.SourceHeight {
		t.Errorf("request metadata mismatch: %+v", req)
	}
	want := obs.TrueQKgS * plume.SecondsPerHour
	if math.Abs(req.TrueQKgHr-want) > 1e-9 {
		t.Errorf("TrueQKgHr = %g, expected %g", req.TrueQKgHr, want)
	}
}
