// Package spaceopt provides hierarchical hyperparameter search spaces and an
// adaptive, surrogate-model-driven sampler for exploring them. A SearchSpace
// owns an ordered collection of value-generating Domains, accumulates the
// Trials proposed against it, and exposes the bookkeeping an adaptive search
// needs: combinatorial complexity, model uncertainty, trial history as a
// dense numeric matrix, and JSON import/export.
//
// # Features
//
//   - Bayesian Optimization: a Gaussian Process surrogate scores candidate
//     configurations by expected improvement, with pure random sampling
//     during warm-up and periodically thereafter to keep exploring
//   - Hierarchical Domains: continuous, discrete and categorical domains
//     with "/"-separated names that materialize into nested parameter maps
//   - Pluggable Sampling Methods: any function from a SearchSpace to a
//     hyperparameter vector can drive Sample; RandomSearch is the default
//   - Uncertainty Estimation: a bootstrap over Gaussian Process length-scales
//     quantifies how stable the model's notion of relevance currently is
//   - JSON Round-Trip: full and reference-only ("simplify") export modes,
//     with a codec registry for externally defined domain types
//
// # Usage
//
//	space := spaceopt.New([]spaceopt.Domain{
//	    spaceopt.NewContinuous("model/lr", 1e-4, 1e-1),
//	    spaceopt.NewDiscrete("model/depth", 2, 4, 8, 16),
//	    spaceopt.NewCategorical("model/activation", "relu", "tanh"),
//	})
//
//	method := spaceopt.Bayes(spaceopt.DefaultBayesConfig())
//
//	for i := 0; i < 100; i++ {
//	    trial, err := space.Sample(method)
//	    if err != nil {
//	        // A FitError means the surrogate could not be fit; callers
//	        // wanting resilience fall back to random sampling themselves.
//	        trial, _ = space.Sample(spaceopt.RandomSearch)
//	    }
//	    trial.SetObjective(evaluate(trial.ParameterMap()))
//	}
//
//	best, err := space.Optimum(spaceopt.ModeMin)
//
// # Concurrency
//
// The sampling and acquisition path is synchronous and single-threaded; a
// SearchSpace is meant to be driven by one logical owner at a time, and
// concurrent sampling must be serialized by the caller. JSON export fans out
// over a worker pool internally, which is an optional acceleration only;
// output is identical to a sequential conversion.
package spaceopt
