// Package inversion recovers methane emission rates from concentration
// observations by fitting the Gaussian plume forward model with an adaptive
// gradient optimizer, and reports a curvature-based confidence interval.
package inversion

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"

	"github.com/zoro1324/Methane-Shadow-Hunter/pkg/plume"
)

const (
	// Adam moment decay rates and denominator guard.
	adamBeta1   = 0.9
	adamBeta2   = 0.999
	adamEpsilon = 1e-8

	// plateauThreshold is the relative improvement the loss must make to
	// reset the plateau counter.
	plateauThreshold = 1e-4

	// degenerateObsMax is the observation ceiling below which scaling is
	// skipped: an all-zero map has no usable magnitude.
	degenerateObsMax = 1e-15

	// Adaptive initial-rate clamp, kg/s. A leaking valve sits near the low
	// end; 100 kg/s is far beyond any single-facility release.
	minInitialQ = 1e-10
	maxInitialQ = 100.0

	// maxLogSE caps the standard error on log Q so the confidence bounds
	// stay finite when the curvature is almost flat.
	maxLogSE = 20.0

	// z95 is the two-sided 95% normal quantile.
	z95 = 1.96
)

// Options tune the optimization loop. The zero value of any field is
// replaced with the documented default by NewSolver.
type Options struct {
	LearningRate     float64 // Adam step size, default 0.1
	MaxIterations    int     // iteration budget, default 2000
	ConvergenceTol   float64 // relative loss-change tolerance, default 1e-6
	WarmupIterations int     // iterations before convergence checks, default 300
	PlateauPatience  int     // non-improving iterations before halving the rate, default 100
	MinLearningRate  float64 // floor for the halving schedule, default 1e-3

	// Logger receives per-iteration diagnostics at debug level; nil disables.
	Logger *zap.SugaredLogger

	// Trace, when non-nil, is invoked once per iteration with the loss and
	// the current emission rate (kg/s). Intended for progress displays and
	// trajectory inspection.
	Trace func(iteration int, loss, emissionRate float64)
}

// DefaultOptions returns the standard solver configuration.
func DefaultOptions() Options {
	return Options{
		LearningRate:     0.1,
		MaxIterations:    2000,
		ConvergenceTol:   1e-6,
		WarmupIterations: 300,
		PlateauPatience:  100,
		MinLearningRate:  1e-3,
	}
}

// Solver runs plume inversions. It holds no per-call state: every Invert
// builds a fresh model and fresh optimizer moments, so a single Solver is
// safe to reuse across independent inversions.
type Solver struct {
	opts Options
}

// NewSolver returns a solver with zero-valued options filled from
// DefaultOptions.
func NewSolver(opts Options) *Solver {
	def := DefaultOptions()
	if opts.LearningRate <= 0 {
		opts.LearningRate = def.LearningRate
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.ConvergenceTol <= 0 {
		opts.ConvergenceTol = def.ConvergenceTol
	}
	if opts.WarmupIterations <= 0 {
		opts.WarmupIterations = def.WarmupIterations
	}
	if opts.PlateauPatience <= 0 {
		opts.PlateauPatience = def.PlateauPatience
	}
	if opts.MinLearningRate <= 0 {
		opts.MinLearningRate = def.MinLearningRate
	}
	return &Solver{opts: opts}
}

// Request is one inversion problem: observed concentrations (kg/m³) at known
// receptor coordinates (meters, wind-aligned frame), plus the transport
// conditions the forward model needs.
type Request struct {
	Observed  []float64
	ReceptorX []float64
	ReceptorY []float64
	ReceptorZ []float64

	WindSpeed    float64              // m/s
	Class        plume.StabilityClass // use plume.ParseStabilityClass for letter labels
	SourceHeight float64              // m above ground
	InitialQ     float64              // starting guess, kg/s; <=0 means 0.01

	// TrueQKgHr, when positive, is the known release rate used to fill
	// Result.ErrorPct in validation runs.
	TrueQKgHr float64
}

// Result is the outcome of one inversion. Confidence bounds are ordered
// Low <= High by construction.
type Result struct {
	QKgS  float64
	QKgHr float64

	ConfidenceLow  float64 // kg/hr, 95% lower bound
	ConfidenceHigh float64 // kg/hr, 95% upper bound

	SourceXOffset float64 // m, fitted source position relative to the assumed origin
	SourceYOffset float64 // m

	FinalLoss  float64
	Iterations int
	Converged  bool

	TrueQKgHr float64 // echoed from the request; 0 when unknown
	ErrorPct  float64 // percent error vs TrueQKgHr; 0 when unknown
}

// Invert fits the plume model to the observations and returns the estimated
// emission rate with uncertainty. Numerical degeneracies (all-zero maps, flat
// curvature, near-calm wind) are absorbed into documented fallbacks; the only
// error returns are malformed inputs, which indicate a caller bug.
func (s *Solver) Invert(req Request) (*Result, error) {
	n := len(req.Observed)
	if n == 0 {
		return nil, errors.New("inversion: empty observation array")
	}
	if len(req.ReceptorX) != n || len(req.ReceptorY) != n || len(req.ReceptorZ) != n {
		return nil, fmt.Errorf("inversion: observation/receptor length mismatch: obs=%d x=%d y=%d z=%d",
			n, len(req.ReceptorX), len(req.ReceptorY), len(req.ReceptorZ))
	}

	// Raw concentrations sit around 1e-10 kg/m³; a squared-error loss on
	// them underflows with vanishing gradients. Normalize by the peak
	// observation so the loss is O(1), unless the map is degenerate.
	peakIdx := floats.MaxIdx(req.Observed)
	obsMax := req.Observed[peakIdx]
	scale := 1.0
	if obsMax > degenerateObsMax {
		scale = obsMax
	}
	invScale := 1.0 / scale
	scaledObs := make([]float64, n)
	for i, v := range req.Observed {
		scaledObs[i] = v * invScale
	}

	initialQ := req.InitialQ
	if initialQ <= 0 || math.IsNaN(initialQ) {
		initialQ = 0.01
	}
	if obsMax > degenerateObsMax {
		if q, ok := s.initialRateFromPeak(&req, peakIdx, obsMax); ok {
			initialQ = q
		}
	}

	model := plume.NewModel(initialQ, 0, 0, req.SourceHeight, req.Class)
	s.debugf("starting inversion: %d receptors, wind %.2f m/s, class %v, initial Q %.4g kg/s",
		n, req.WindSpeed, req.Class, model.Q())

	pred := make([]float64, n)
	scratch := make([]float64, n)

	// Central differences for the source-offset gradient; the rate gradient
	// is exact because the model is linear in Q.
	fdSettings := fd.Settings{Formula: fd.Central}
	offsetGrad := make([]float64, 2)
	offsetAt := make([]float64, 2)
	offsetLoss := func(off []float64) float64 {
		trial := *model
		trial.SourceX = off[0]
		trial.SourceY = off[1]
		return scaledLoss(&trial, &req, scaledObs, scratch, invScale)
	}

	var moment1, moment2 [3]float64
	beta1Pow, beta2Pow := 1.0, 1.0
	lr := s.opts.LearningRate
	prevLoss := math.Inf(1)
	bestLoss := math.Inf(1)
	plateauCount := 0
	converged := false
	iterations := 0

	for iter := 1; iter <= s.opts.MaxIterations; iter++ {
		iterations = iter

		model.EvaluateInto(pred, req.ReceptorX, req.ReceptorY, req.ReceptorZ, req.WindSpeed)
		loss := 0.0
		gradLogQ := 0.0
		for i, c := range pred {
			p := c * invScale
			r := p - scaledObs[i]
			loss += r * r
			gradLogQ += r * p
		}
		loss /= float64(n)
		gradLogQ *= 2.0 / float64(n)

		offsetAt[0], offsetAt[1] = model.SourceX, model.SourceY
		fd.Gradient(offsetGrad, offsetLoss, offsetAt, &fdSettings)

		grad := [3]float64{gradLogQ, offsetGrad[0], offsetGrad[1]}
		params := [3]*float64{&model.LogQ, &model.SourceX, &model.SourceY}
		beta1Pow *= adamBeta1
		beta2Pow *= adamBeta2
		for k, g := range grad {
			moment1[k] = adamBeta1*moment1[k] + (1-adamBeta1)*g
			moment2[k] = adamBeta2*moment2[k] + (1-adamBeta2)*g*g
			mHat := moment1[k] / (1 - beta1Pow)
			vHat := moment2[k] / (1 - beta2Pow)
			*params[k] -= lr * mHat / (math.Sqrt(vHat) + adamEpsilon)
		}

		if s.opts.Trace != nil {
			s.opts.Trace(iter, loss, model.Q())
		}

		if loss < bestLoss*(1-plateauThreshold) {
			bestLoss = loss
			plateauCount = 0
		} else {
			plateauCount++
			if plateauCount >= s.opts.PlateauPatience {
				reduced := lr / 2
				if reduced < s.opts.MinLearningRate {
					reduced = s.opts.MinLearningRate
				}
				if reduced < lr {
					lr = reduced
					s.debugf("loss plateaued at iteration %d, learning rate reduced to %g", iter, lr)
				}
				plateauCount = 0
			}
		}

		// Relative loss change between consecutive iterations, guarded by
		// the unit loss scale so near-perfect fits (loss ~ 0) register as
		// converged rather than dividing noise by noise. The warm-up keeps
		// early flat stretches from reading as convergence.
		if iter > s.opts.WarmupIterations {
			if math.Abs(prevLoss-loss)/math.Max(math.Max(prevLoss, loss), 1.0) < s.opts.ConvergenceTol {
				converged = true
				s.debugf("converged at iteration %d, loss %.4g", iter, loss)
				break
			}
		}
		prevLoss = loss
	}
	if !converged {
		s.debugf("iteration budget exhausted after %d iterations, loss %.4g", iterations, prevLoss)
	}

	finalLoss, curvature := lossAndCurvature(model, &req, scaledObs, pred, invScale)
	ciLow, ciHigh := s.confidenceInterval(model, curvature)

	res := &Result{
		QKgS:           model.Q(),
		QKgHr:          model.QKgHr(),
		ConfidenceLow:  ciLow,
		ConfidenceHigh: ciHigh,
		SourceXOffset:  model.SourceX,
		SourceYOffset:  model.SourceY,
		FinalLoss:      finalLoss,
		Iterations:     iterations,
		Converged:      converged,
		TrueQKgHr:      req.TrueQKgHr,
	}
	if req.TrueQKgHr > 0 {
		res.ErrorPct = 100 * math.Abs(res.QKgHr-req.TrueQKgHr) / req.TrueQKgHr
	}
	return res, nil
}

// initialRateFromPeak inverts the centerline plume formula at the strongest
// receptor for a starting emission rate: C ≈ Q/(2π·u·σy·σz) there, so
// Q ≈ C·2π·u·σy·σz. The estimate is clamped to a physical range; a
// non-finite or non-positive value reports !ok and the caller guess stands.
func (s *Solver) initialRateFromPeak(req *Request, peakIdx int, obsMax float64) (float64, bool) {
	dx := req.ReceptorX[peakIdx]
	if dx < 10 {
		dx = 10
	}
	xKm := dx / 1000.0
	u := req.WindSpeed
	if u < 0.5 {
		u = 0.5
	}
	q := obsMax * 2 * math.Pi * u * req.Class.SigmaY(xKm) * req.Class.SigmaZ(xKm)
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return 0, false
	}
	if q < minInitialQ {
		q = minInitialQ
	}
	if q > maxInitialQ {
		q = maxInitialQ
	}
	s.debugf("adaptive initial rate %.4g kg/s from peak receptor at %.0f m", q, req.ReceptorX[peakIdx])
	return q, true
}

// scaledLoss is the mean squared error between scaled predictions and scaled
// observations at the given model parameters.
func scaledLoss(m *plume.Model, req *Request, scaledObs, scratch []float64, invScale float64) float64 {
	m.EvaluateInto(scratch, req.ReceptorX, req.ReceptorY, req.ReceptorZ, req.WindSpeed)
	sum := 0.0
	for i, c := range scratch {
		r := c*invScale - scaledObs[i]
		sum += r * r
	}
	return sum / float64(len(scratch))
}

// lossAndCurvature evaluates the final loss together with the analytic
// second derivative of the loss with respect to log Q. With p the scaled
// prediction and o the scaled observation, ∂p/∂logQ = p, so
//
//	d²L/dlogQ² = (2/n)·Σ p·(2p − o)
func lossAndCurvature(m *plume.Model, req *Request, scaledObs, scratch []float64, invScale float64) (loss, curvature float64) {
	m.EvaluateInto(scratch, req.ReceptorX, req.ReceptorY, req.ReceptorZ, req.WindSpeed)
	for i, c := range scratch {
		p := c * invScale
		r := p - scaledObs[i]
		loss += r * r
		curvature += p * (2*p - scaledObs[i])
	}
	n := float64(len(scratch))
	loss /= n
	curvature *= 2.0 / n
	return loss, curvature
}

// confidenceInterval turns the loss curvature into a 95% interval on the
// rate in kg/hr: SE(logQ) ≈ 1/√H, capped so the exponential stays finite.
// Degenerate curvature falls back to ±30% around the point estimate; this
// step never fails outward.
func (s *Solver) confidenceInterval(m *plume.Model, curvature float64) (low, high float64) {
	qKgHr := m.QKgHr()
	low, high = qKgHr*0.7, qKgHr*1.3
	if curvature <= 0 || math.IsNaN(curvature) || math.IsInf(curvature, 0) {
		s.debugf("degenerate curvature %g, using ±30%% fallback interval", curvature)
		return low, high
	}
	se := 1.0 / math.Sqrt(curvature)
	if se > maxLogSE {
		se = maxLogSE
	}
	lo := math.Exp(m.LogQ-z95*se) * plume.SecondsPerHour
	hi := math.Exp(m.LogQ+z95*se) * plume.SecondsPerHour
	if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(hi, 0) {
		return low, high
	}
	return lo, hi
}

func (s *Solver) debugf(template string, args ...interface{}) {
	if s.opts.Logger != nil {
		s.opts.Logger.Debugf(template, args...)
	}
}
