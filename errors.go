package spaceopt

import "fmt"

//////
// Error taxonomy.
//////

// EmptyResultError is returned by SearchSpace.Optimum when no trial in the
// space has a recorded objective yet. It is never retried internally; the
// caller decides whether to wait for evaluations or sample more trials.
type EmptyResultError struct {
	// ExpKey identifies the search space the lookup ran against.
	ExpKey string
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("search space %q: no trial has a recorded objective", e.ExpKey)
}

// FitError is returned when fitting the Gaussian Process surrogate fails,
// typically because the trial data is degenerate (singular covariance) or
// the shapes of features and labels disagree. The acquisition engine never
// retries a failed fit; a caller wanting resilience catches the error and
// falls back to random sampling itself.
type FitError struct {
	// Reason describes what made the fit impossible.
	Reason string

	// Err holds the underlying error, if any.
	Err error
}

func (e *FitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("surrogate fit failed: %s: %v", e.Reason, e.Err)
	}

	return fmt.Sprintf("surrogate fit failed: %s", e.Reason)
}

func (e *FitError) Unwrap() error {
	return e.Err
}
