package spaceopt

import (
	"math"
	"math/rand"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

//////
// Const, vars.
//////

const (
	// uncertaintyMinObservations is the number of objective-bearing trials
	// that must be exceeded before the bootstrap runs; at or below it the
	// space is maximally uncertain by definition.
	uncertaintyMinObservations = 10

	// uncertaintyRounds is the number of independent bootstrap resamples.
	uncertaintyRounds = 50

	// uncertaintyTrainFraction is the share of the permuted history each
	// resample trains on.
	uncertaintyTrainFraction = 0.8

	// uncertaintyNoise is the fixed covariance noise used by the bootstrap
	// fits.
	uncertaintyNoise = 1e-5

	// Bounds of the uniform draw seeding each resample's length-scale.
	uncertaintyScaleLo = 0.1
	uncertaintyScaleHi = 2.0
)

//////
// Methods.
//////

// Uncertainty estimates how stable the surrogate model's notion of
// hyperparameter relevance is, a proxy for how well this space's objective
// surface is currently understood. With 10 or fewer objective-bearing trials
// it is the constant 1 (maximally uncertain, insufficient data).
//
// Otherwise it runs 50 independent bootstrap rounds. Each round permutes the
// observed trials, trains a Gaussian Process with an RBF kernel (seeded at
// a length-scale drawn uniformly from [0.1, 2.0], with noise 1e-5) on the
// first 80% of the permutation, and records the inverse of the learned
// length-scale. The estimate is the spread (max minus min, as a magnitude)
// of those 50 values: the more the inferred relevant length-scale moves
// across resamples, the less settled the model is.
//
// Unlike Complexity, the value is recomputed on every access once the data
// threshold is met, since it depends on the full, growing trial history; the
// most recent value is what JSON export carries.
func (s *SearchSpace) Uncertainty() float64 {
	features, labels := s.observations()

	if len(labels) <= uncertaintyMinObservations || features == nil {
		uncertainty := 1.0
		s.uncertainty = &uncertainty
		return uncertainty
	}

	n := len(labels)
	_, d := features.Dims()
	split := int(math.Floor(float64(n) * uncertaintyTrainFraction))

	scales := make([]float64, uncertaintyRounds)

	for round := range scales {
		indices := rand.Perm(n)
		start := uncertaintyScaleLo + rand.Float64()*(uncertaintyScaleHi-uncertaintyScaleLo)

		trainX := mat.NewDense(split, d, nil)
		trainY := make([]float64, split)
		for i, idx := range indices[:split] {
			trainX.SetRow(i, features.RawRowView(idx))
			trainY[i] = labels[idx]
		}

		gp := newGaussianProcess(RBF{Scale: start}, uncertaintyNoise)
		if err := gp.Fit(trainX, trainY); err != nil {
			// A degenerate resample should not poison the whole estimate;
			// fall back to the drawn seed for this round.
			s.logger.Debug("uncertainty bootstrap fit failed",
				zap.Int("round", round),
				zap.Error(err))
			scales[round] = 1 / start
			continue
		}

		scales[round] = 1 / gp.LengthScale()
	}

	lo, hi := scales[0], scales[0]
	for _, scale := range scales[1:] {
		lo = math.Min(lo, scale)
		hi = math.Max(hi, scale)
	}

	uncertainty := math.Abs(hi - lo)
	s.uncertainty = &uncertainty

	return uncertainty
}
