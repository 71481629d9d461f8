package spaceopt

//////
// Random search.
//////

// RandomSearch draws one value per domain independently, with no regard for
// the trial history. It is the default sampling method, the warm-up phase of
// the Bayesian engine, and the fallback a caller reaches for when a
// surrogate fit fails.
func RandomSearch(space *SearchSpace) ([]any, error) {
	return space.Generate(), nil
}
