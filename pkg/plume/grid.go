package plume

import "gonum.org/v1/gonum/mat"

// Grid evaluates the plume over a regular 2-D field at height zHeight and
// returns coordinate matrices X, Y (meters) and concentrations C (kg/m³),
// each gridSize×gridSize. Rows scan the crosswind axis, columns the downwind
// axis, so row i column j is the receptor (X(i,j), Y(i,j)).
//
// The field spans [-0.2·domain, domain] downwind and [-domain/2, domain/2]
// crosswind: a short upwind margin makes the mask roll-off visible in plots.
func (m *Model) Grid(gridSize int, domainM, windSpeed, zHeight float64) (X, Y, C *mat.Dense) {
	if gridSize < 2 {
		gridSize = 2
	}

	xs := linspace(-0.2*domainM, domainM, gridSize)
	ys := linspace(-domainM/2.0, domainM/2.0, gridSize)

	X = mat.NewDense(gridSize, gridSize, nil)
	Y = mat.NewDense(gridSize, gridSize, nil)
	C = mat.NewDense(gridSize, gridSize, nil)

	for i := 0; i < gridSize; i++ {
		for j := 0; j < gridSize; j++ {
			X.Set(i, j, xs[j])
			Y.Set(i, j, ys[i])
			C.Set(i, j, m.Concentration(xs[j], ys[i], zHeight, windSpeed))
		}
	}
	return X, Y, C
}

// linspace returns n evenly spaced values from start to stop inclusive.
func linspace(start, stop float64, n int) []float64 {
	vals := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range vals {
		vals[i] = start + float64(i)*step
	}
	vals[n-1] = stop
	return vals
}
