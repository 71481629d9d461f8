package spaceopt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestKernelsAtZeroDistance(t *testing.T) {
	point := []float64{1.5, -2.0}

	assert.Equal(t, 1.0, RBF{Scale: 1}.Eval(point, point))
	assert.Equal(t, 1.0, Matern52{Scale: 1}.Eval(point, point))
}

func TestKernelsDecayWithDistance(t *testing.T) {
	origin := []float64{0}

	for _, kernel := range []Kernel{RBF{Scale: 1}, Matern52{Scale: 1}} {
		near := kernel.Eval(origin, []float64{0.5})
		far := kernel.Eval(origin, []float64{3})

		assert.Greater(t, near, far)
		assert.Greater(t, far, 0.0)
	}
}

func TestKernelLengthScaleDefaults(t *testing.T) {
	assert.Equal(t, 1.0, RBF{}.LengthScale())
	assert.Equal(t, 1.0, Matern52{}.LengthScale())
	assert.Equal(t, 0.3, RBF{Scale: 0.3}.LengthScale())
}

func TestKernelWithLengthScalePreservesFamily(t *testing.T) {
	rescaled := Matern52{Scale: 1}.WithLengthScale(2)

	_, ok := rescaled.(Matern52)
	assert.True(t, ok)
	assert.Equal(t, 2.0, rescaled.LengthScale())
}

func TestKernelPanicsOnShapeMismatch(t *testing.T) {
	assert.Panics(t, func() {
		RBF{Scale: 1}.Eval([]float64{1, 2}, []float64{1})
	})
}

func TestGaussianProcessInterpolates(t *testing.T) {
	// y = x^2 on a small grid; single feature dimension exercises the
	// column-label contract.
	xs := []float64{0, 0.5, 1, 1.5, 2, 2.5, 3}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = x * x
	}

	gp := newGaussianProcess(RBF{Scale: 1}, 1e-5)
	require.NoError(t, gp.Fit(mat.NewDense(len(xs), 1, xs), ys))

	mu, sigma := gp.Predict([]float64{1})
	assert.InDelta(t, 1.0, mu, 0.25, "posterior mean at a training point tracks the label")
	assert.Less(t, sigma, 0.5)

	_, sigmaFar := gp.Predict([]float64{50})
	assert.Greater(t, sigmaFar, sigma, "uncertainty grows away from the data")
}

func TestGaussianProcessLearnsLengthScale(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4, 5, 6, 7}
	ys := []float64{0, 1, 0, 1, 0, 1, 0, 1}

	gp := newGaussianProcess(RBF{Scale: 1}, 1e-5)
	require.NoError(t, gp.Fit(mat.NewDense(len(xs), 1, xs), ys))

	assert.Greater(t, gp.LengthScale(), 0.0)
}

func TestGaussianProcessFitErrors(t *testing.T) {
	gp := newGaussianProcess(Matern52{Scale: 1}, 1e-5)

	var fitErr *FitError

	// No data at all.
	err := gp.Fit(nil, nil)
	require.ErrorAs(t, err, &fitErr)

	// Feature rows and labels disagree.
	err = gp.Fit(mat.NewDense(3, 1, []float64{1, 2, 3}), []float64{1, 2})
	require.ErrorAs(t, err, &fitErr)
	assert.Contains(t, fitErr.Reason, "disagree")
}

func TestGaussianProcessHandlesDuplicateRows(t *testing.T) {
	// Identical feature rows make the noiseless covariance singular; the
	// fixed noise term must keep the factorization alive.
	xs := []float64{1, 1, 1, 1, 1}
	ys := []float64{0.9, 1.0, 1.1, 1.0, 0.95}

	gp := newGaussianProcess(Matern52{Scale: 1}, 1e-5)
	require.NoError(t, gp.Fit(mat.NewDense(len(xs), 1, xs), ys))

	mu, sigma := gp.Predict([]float64{1})
	assert.InDelta(t, 1.0, mu, 0.1)
	assert.GreaterOrEqual(t, sigma, 0.0)
}

func TestLogspaceEndpoints(t *testing.T) {
	grid := logspace(-1, 1, 5)

	require.Len(t, grid, 5)
	assert.InDelta(t, 0.1, grid[0], 1e-12)
	assert.InDelta(t, 1.0, grid[2], 1e-12)
	assert.InDelta(t, 10.0, grid[4], 1e-12)
}
