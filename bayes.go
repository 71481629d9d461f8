package spaceopt

import (
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Const, vars, types.
//////

// BayesConfig controls the Bayesian acquisition engine.
type BayesConfig struct {
	// NSamples is the number of candidate vectors generated and scored per
	// call. One of them is returned; batch acquisition beyond that is not
	// supported.
	NSamples int

	// WarmUp is the number of objective-bearing trials below which, and
	// the interval at which, the engine samples purely at random instead
	// of consulting the surrogate. Warm-up both bootstraps the surrogate
	// with diverse data and periodically re-injects exploration to counter
	// surrogate overconfidence.
	WarmUp int

	// Kernel is the surrogate's covariance function. When nil, a Matérn
	// 5/2 kernel is used: it yields smoother, less overfit uncertainty
	// estimates than RBF on typically rugged hyperparameter objective
	// surfaces.
	Kernel Kernel

	// Noise is the fixed additive term on the covariance diagonal. Zero
	// means the default 1e-5.
	Noise float64

	// Logger receives gate decisions at debug level and numeric-degeneracy
	// warnings. Nil means no logging.
	Logger *zap.Logger
}

// DefaultBayesConfig returns the engine defaults: 10 candidates per call,
// warm-up every 10 observations, Matérn 5/2 kernel, noise 1e-5.
func DefaultBayesConfig() BayesConfig {
	return BayesConfig{
		NSamples: 10,
		WarmUp:   10,
		Kernel:   Matern52{Scale: 1},
		Noise:    1e-5,
	}
}

//////
// Exported functionalities.
//////

// Bayes adapts the acquisition engine to the Method signature so it can
// drive SearchSpace.Sample directly.
func Bayes(config BayesConfig) Method {
	return func(space *SearchSpace) ([]any, error) {
		return BayesOpt(space, config)
	}
}

// BayesOpt proposes the next hyperparameter vector for the space: the one
// expected to most improve on the best objective observed so far, according
// to a Gaussian Process surrogate scored by expected improvement. The
// returned vector is aligned to the space's canonical domain order, exactly
// like a raw Generate result.
//
// While fewer than WarmUp trials carry an objective, and again whenever the
// count is an exact multiple of WarmUp, the proposal is purely random.
//
// A failed surrogate fit propagates as a FitError; there is no retry and no
// internal fallback past the warm-up gate.
func BayesOpt(space *SearchSpace, config BayesConfig) ([]any, error) {
	if config.NSamples <= 0 {
		config.NSamples = 10
	}
	if config.WarmUp <= 0 {
		config.WarmUp = 10
	}
	if config.Kernel == nil {
		config.Kernel = Matern52{Scale: 1}
	}
	if config.Noise <= 0 {
		config.Noise = 1e-5
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	features, labels := space.observations()

	// Warm-up / periodic exploration gate.
	if len(labels) < config.WarmUp || len(labels)%config.WarmUp == 0 {
		logger.Debug("warm-up gate open, sampling at random",
			zap.String("exp_key", space.ExpKey()),
			zap.Int("observations", len(labels)),
			zap.Int("warm_up", config.WarmUp))

		return RandomSearch(space)
	}

	gp := newGaussianProcess(config.Kernel, config.Noise)
	if err := gp.Fit(features, labels); err != nil {
		return nil, err
	}

	best := labels[0]
	for _, label := range labels[1:] {
		if label < best {
			best = label
		}
	}

	// Draw the candidate pool and score each candidate by expected
	// improvement against the best observed objective.
	candidates := make([][]any, config.NSamples)
	improvement := make([]float64, config.NSamples)

	for i := range candidates {
		candidates[i] = space.Generate()

		mu, sigma := gp.Predict(space.mapVector(candidates[i]))
		if sigma == 0 {
			// Zero predictive variance offers no expected improvement and
			// would make the closed form undefined; force it to zero.
			logger.Warn("zero predictive variance, forcing expected improvement to zero",
				zap.String("exp_key", space.ExpKey()),
				zap.Int("candidate", i))
		}

		improvement[i] = expectedImprovement(mu, sigma, best)
	}

	// Selection runs one arg-max over the candidate axis per output
	// dimension. With one scalar score per candidate every dimension
	// resolves to the same row; the per-dimension form is kept because the
	// selection contract is per-column, not per-row.
	proposal := make([]any, len(space.domains))
	for j := range proposal {
		bestCandidate := 0
		for i, ei := range improvement {
			if ei > improvement[bestCandidate] {
				bestCandidate = i
			}
		}
		proposal[j] = candidates[bestCandidate][j]
	}

	return proposal, nil
}

//////
// Helpers.
//////

// expectedImprovement is the closed-form acquisition score of a candidate
// with posterior mean mu and standard deviation sigma against the best
// observed objective:
//
//	gamma = (mu - best) / sigma
//	ei    = (mu - gamma)*Φ(gamma) + sigma*φ(gamma)
//
// A zero sigma returns exactly 0, never NaN.
func expectedImprovement(mu, sigma, best float64) float64 {
	if sigma == 0 {
		return 0
	}

	gamma := (mu - best) / sigma

	return (mu-gamma)*distuv.UnitNormal.CDF(gamma) + sigma*distuv.UnitNormal.Prob(gamma)
}
