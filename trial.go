package spaceopt

import (
	"encoding/json"
	"strings"
	"sync/atomic"
)

//////
// Const, vars, types.
//////

// trialIDs is the process-wide counter behind Trial identity. Every Trial
// constructed in this process gets a unique, monotonically increasing ID.
var trialIDs atomic.Int64

// Trial is one proposed, and possibly evaluated, hyperparameter
// configuration. It belongs to exactly one SearchSpace and holds a
// non-owning back-reference to it; the back-reference is a convenience for
// materializing parameter maps and is never used to mutate the space.
//
// Lifecycle: a Trial is created when a sampling method produces a
// hyperparameter vector, mutated when an external evaluator reports results,
// an objective or an error, and never deleted by this package.
type Trial struct {
	id    int64
	space *SearchSpace

	// Hyperparameters holds one generated value per domain, aligned by
	// index to the space's canonical domain order.
	Hyperparameters []any

	// Results is the optional payload an evaluator attaches, e.g. per-epoch
	// metrics.
	Results map[string]any

	// Objective is the scalar being optimized; lower is better by
	// convention. Nil until the evaluator reports it.
	Objective *float64

	// ErrMsg records an evaluation failure, if any.
	ErrMsg string

	// dirty marks the trial as needing persistence by whatever storage
	// collaborator the caller uses.
	dirty bool
}

// trialJSON is the wire form of a Trial.
type trialJSON struct {
	ID              int64          `json:"id"`
	Hyperparameters []any          `json:"hyperparameters"`
	Results         map[string]any `json:"results"`
	Objective       *float64       `json:"objective"`
	ErrMsg          string         `json:"errmsg"`
}

//////
// Methods.
//////

// ID returns the trial's process-unique identifier.
func (t *Trial) ID() int64 { return t.id }

// Space returns the search space the trial belongs to.
func (t *Trial) Space() *SearchSpace { return t.space }

// Dirty reports whether the trial has state not yet seen by a persistence
// collaborator.
func (t *Trial) Dirty() bool { return t.dirty }

// MarkPersisted clears the needs-persistence flag. Storage collaborators
// call it after a successful write.
func (t *Trial) MarkPersisted() { t.dirty = false }

// SetObjective records the evaluated scalar objective and re-marks the trial
// for persistence.
func (t *Trial) SetObjective(objective float64) {
	t.Objective = &objective
	t.dirty = true
}

// SetResults attaches the evaluator's result payload and re-marks the trial
// for persistence.
func (t *Trial) SetResults(results map[string]any) {
	t.Results = results
	t.dirty = true
}

// SetError records an evaluation failure and re-marks the trial for
// persistence.
func (t *Trial) SetError(msg string) {
	t.ErrMsg = msg
	t.dirty = true
}

// ParameterMap materializes the hyperparameter vector as a nested map keyed
// by the "/"-separated structure of the domain names. A vector generated for
// domains "model/lr" and "model/depth" becomes
//
//	map[string]any{"model": map[string]any{"lr": ..., "depth": ...}}
func (t *Trial) ParameterMap() map[string]any {
	out := make(map[string]any, len(t.Hyperparameters))

	for i, domain := range t.space.domains {
		if i >= len(t.Hyperparameters) {
			break
		}

		parts := strings.Split(domain.Name(), "/")
		node := out

		for _, part := range parts[:len(parts)-1] {
			child, ok := node[part].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[part] = child
			}
			node = child
		}

		node[parts[len(parts)-1]] = t.Hyperparameters[i]
	}

	return out
}

// ToJSON encodes the trial for persistence or transmission.
func (t *Trial) ToJSON() (json.RawMessage, error) {
	return json.Marshal(trialJSON{
		ID:              t.id,
		Hyperparameters: t.Hyperparameters,
		Results:         t.Results,
		Objective:       t.Objective,
		ErrMsg:          t.ErrMsg,
	})
}

//////
// Factories.
//////

// newTrial wraps a generated hyperparameter vector in a Trial that still
// needs its first persistence write.
func newTrial(space *SearchSpace, hyperparameters []any) *Trial {
	return &Trial{
		id:              trialIDs.Add(1),
		space:           space,
		Hyperparameters: hyperparameters,
		dirty:           true,
	}
}

// trialFromJSON rebuilds a Trial from its wire form. Imported trials get a
// fresh process-unique ID and are marked as already persisted, since they
// came from storage in the first place.
func trialFromJSON(space *SearchSpace, data json.RawMessage) (*Trial, error) {
	var wire trialJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, err
	}

	return &Trial{
		id:              trialIDs.Add(1),
		space:           space,
		Hyperparameters: wire.Hyperparameters,
		Results:         wire.Results,
		Objective:       wire.Objective,
		ErrMsg:          wire.ErrMsg,
		dirty:           false,
	}, nil
}
