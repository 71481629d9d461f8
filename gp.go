package spaceopt

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

//////
// Const, vars, types.
//////

// lengthScaleGrid holds the log-spaced multipliers applied to the kernel's
// starting length-scale when fitting: the scale maximizing the log marginal
// likelihood over this grid is the learned one. Spanning 10^-1.5 to 10^1.5
// around the start covers three decades, enough for feature encodings that
// all live on index or unit scales.
var lengthScaleGrid = logspace(-1.5, 1.5, 25)

// gaussianProcess is a Gaussian Process regressor over hyperparameter
// feature vectors. Fit learns the kernel length-scale by maximizing the log
// marginal likelihood and factorizes the training covariance once; Predict
// then returns the posterior mean and standard deviation at a point.
//
// Labels are always treated as a single column, so a space with one domain
// (a single feature dimension) fits without shape errors.
type gaussianProcess struct {
	kernel Kernel
	noise  float64

	x     *mat.Dense
	chol  mat.Cholesky
	alpha *mat.VecDense
}

//////
// Methods.
//////

// Fit trains the regressor on the feature matrix x (one row per observed
// trial) and label vector y. It returns a FitError when the data is
// degenerate: empty, shape-mismatched, or with a covariance matrix that is
// not positive definite at any candidate length-scale.
func (gp *gaussianProcess) Fit(x *mat.Dense, y []float64) error {
	if x == nil {
		return &FitError{Reason: "no training data"}
	}

	n, d := x.Dims()
	if n == 0 || d == 0 {
		return &FitError{Reason: "empty feature matrix"}
	}
	if len(y) != n {
		return &FitError{Reason: "feature and label row counts disagree"}
	}

	start := gp.kernel.LengthScale()
	bestLML := math.Inf(-1)
	bestScale := 0.0

	for _, multiplier := range lengthScaleGrid {
		scale := start * multiplier
		kernel := gp.kernel.WithLengthScale(scale)

		var chol mat.Cholesky
		if !chol.Factorize(covarianceMatrix(kernel, x, gp.noise)) {
			continue
		}

		if lml := logMarginalLikelihood(&chol, y); lml > bestLML {
			bestLML = lml
			bestScale = scale
		}
	}

	if math.IsInf(bestLML, -1) {
		return &FitError{Reason: "covariance matrix is not positive definite at any candidate length-scale"}
	}

	gp.kernel = gp.kernel.WithLengthScale(bestScale)

	if !gp.chol.Factorize(covarianceMatrix(gp.kernel, x, gp.noise)) {
		// The factorization succeeded during the grid search, so this only
		// fires on pathological floating-point behavior.
		return &FitError{Reason: "covariance matrix refactorization failed"}
	}

	gp.x = mat.DenseCopyOf(x)
	gp.alpha = mat.NewVecDense(n, nil)
	if err := gp.chol.SolveVecTo(gp.alpha, mat.NewVecDense(n, y)); err != nil {
		return &FitError{Reason: "solving for the posterior weights failed", Err: err}
	}

	return nil
}

// Predict returns the posterior mean and standard deviation at a point. The
// regressor must have been fit first.
func (gp *gaussianProcess) Predict(point []float64) (mu, sigma float64) {
	n, _ := gp.x.Dims()

	k := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		k.SetVec(i, gp.kernel.Eval(point, gp.x.RawRowView(i)))
	}

	mu = mat.Dot(k, gp.alpha)

	v := mat.NewVecDense(n, nil)
	if err := gp.chol.SolveVecTo(v, k); err != nil {
		// A failed solve against an already-factorized matrix leaves only
		// the prior variance to report.
		return mu, math.Sqrt(gp.kernel.Eval(point, point) + gp.noise)
	}

	variance := gp.kernel.Eval(point, point) + gp.noise - mat.Dot(k, v)
	if variance < 0 {
		variance = 0
	}

	return mu, math.Sqrt(variance)
}

// LengthScale returns the kernel length-scale, which after Fit is the
// learned value.
func (gp *gaussianProcess) LengthScale() float64 {
	return gp.kernel.LengthScale()
}

//////
// Factory.
//////

// newGaussianProcess returns a regressor with the given kernel and a fixed
// additive noise term on the covariance diagonal.
func newGaussianProcess(kernel Kernel, noise float64) *gaussianProcess {
	return &gaussianProcess{kernel: kernel, noise: noise}
}

//////
// Helpers.
//////

// covarianceMatrix builds the symmetric kernel matrix over the rows of x
// with the noise term added to the diagonal.
func covarianceMatrix(kernel Kernel, x *mat.Dense, noise float64) *mat.SymDense {
	n, _ := x.Dims()
	cov := mat.NewSymDense(n, nil)

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := kernel.Eval(x.RawRowView(i), x.RawRowView(j))
			if i == j {
				v += noise
			}
			cov.SetSym(i, j, v)
		}
	}

	return cov
}

// logMarginalLikelihood evaluates the Gaussian Process log marginal
// likelihood of the labels under an already-factorized covariance.
func logMarginalLikelihood(chol *mat.Cholesky, y []float64) float64 {
	n := len(y)

	labels := mat.NewVecDense(n, y)
	alpha := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(alpha, labels); err != nil {
		return math.Inf(-1)
	}

	return -0.5*mat.Dot(labels, alpha) - 0.5*chol.LogDet() - float64(n)/2*math.Log(2*math.Pi)
}

// logspace returns n multipliers spaced evenly on a log10 scale between
// 10^lo and 10^hi, inclusive.
func logspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = math.Pow(10, lo+float64(i)*step)
	}

	return out
}
