package spaceopt

import (
	"encoding/json"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

//////
// Const, vars, types.
//////

// spaceIDs is the process-wide counter behind SearchSpace identity.
var spaceIDs atomic.Int64

// Mode selects the direction of Optimum.
type Mode string

const (
	// ModeMin returns the trial with the lowest objective (the default
	// convention: lower is better).
	ModeMin Mode = "min"

	// ModeMax returns the trial with the highest objective.
	ModeMax Mode = "max"
)

// Method produces one hyperparameter vector for a search space, aligned to
// the space's canonical domain order. RandomSearch and Bayes both satisfy
// it; callers can plug in their own.
type Method func(space *SearchSpace) ([]any, error)

// SearchSpace is an ordered collection of Domains plus the Trials proposed
// against them. It owns both exclusively: domains are sorted into a
// canonical order at construction time and never reordered, and the trial
// history is append-only.
//
// Two cached scalars follow different invalidation rules by design:
// Complexity is computed once and frozen (it only depends on the domain set,
// which never changes after construction), while Uncertainty is recomputed
// on every qualifying access because it depends on the full, growing trial
// history.
type SearchSpace struct {
	id     int64
	expKey string

	domains []Domain
	trials  []*Trial

	complexity  *float64
	uncertainty *float64

	logger *zap.Logger
}

// spaceJSON is the wire form of a SearchSpace. In "simplify" mode the
// domains and trials arrays hold identifiers instead of nested objects.
type spaceJSON struct {
	ExpKey      string            `json:"exp_key"`
	Complexity  *float64          `json:"complexity"`
	Uncertainty *float64          `json:"uncertainty"`
	Domains     []json.RawMessage `json:"domains"`
	Trials      []json.RawMessage `json:"trials"`
}

// SpaceOption configures a SearchSpace at construction time.
type SpaceOption func(*SearchSpace)

// WithExpKey sets the experiment key identifying the space in exported JSON.
// When unset, a fresh UUID is used.
func WithExpKey(key string) SpaceOption {
	return func(s *SearchSpace) { s.expKey = key }
}

// WithLogger attaches a structured logger. The default is a nop logger.
func WithLogger(logger *zap.Logger) SpaceOption {
	return func(s *SearchSpace) {
		if logger != nil {
			s.logger = logger
		}
	}
}

//////
// Factories.
//////

// New builds a SearchSpace over the given domains. The domain slice is
// copied and sorted into the canonical order all positional encodings depend
// on; callers must not rely on their input order afterwards.
func New(domains []Domain, opts ...SpaceOption) *SearchSpace {
	owned := make([]Domain, len(domains))
	copy(owned, domains)
	sortDomains(owned)

	s := &SearchSpace{
		id:      spaceIDs.Add(1),
		domains: owned,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.expKey == "" {
		s.expKey = uuid.NewString()
	}

	return s
}

// FromJSON reconstructs a SearchSpace from its full JSON export. Domains are
// rebuilt through the codec registry, trials are rebuilt and marked as
// already persisted, and the cached complexity/uncertainty scalars are
// restored verbatim without recomputation. The domain order in the JSON is
// assumed canonical (it was sorted at export time) and is not re-sorted.
//
// Missing required keys fail fast with a structural decoding error; partial
// reconstruction is never attempted. Reference-only ("simplify") exports
// cannot be rehydrated here; their domain entries carry no codec payload.
func FromJSON(data []byte, opts ...SpaceOption) (*SearchSpace, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("searchspace json: %w", err)
	}

	for _, key := range []string{"exp_key", "complexity", "uncertainty", "domains", "trials"} {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("searchspace json: missing required key %q", key)
		}
	}

	var wire spaceJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("searchspace json: %w", err)
	}

	s := &SearchSpace{
		id:          spaceIDs.Add(1),
		expKey:      wire.ExpKey,
		domains:     make([]Domain, 0, len(wire.Domains)),
		complexity:  wire.Complexity,
		uncertainty: wire.Uncertainty,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	for i, d := range wire.Domains {
		domain, err := decodeDomain(d)
		if err != nil {
			return nil, fmt.Errorf("searchspace json: domain %d: %w", i, err)
		}
		s.domains = append(s.domains, domain)
	}

	s.trials = make([]*Trial, 0, len(wire.Trials))
	for i, t := range wire.Trials {
		trial, err := trialFromJSON(s, t)
		if err != nil {
			return nil, fmt.Errorf("searchspace json: trial %d: %w", i, err)
		}
		s.trials = append(s.trials, trial)
	}

	return s, nil
}

//////
// Accessors.
//////

// ID returns the space's process-unique identifier.
func (s *SearchSpace) ID() int64 { return s.id }

// ExpKey returns the experiment key identifying the space.
func (s *SearchSpace) ExpKey() string { return s.expKey }

// Domains returns the domains in canonical order. The returned slice is a
// copy; the space keeps exclusive ownership of its domain list.
func (s *SearchSpace) Domains() []Domain {
	out := make([]Domain, len(s.domains))
	copy(out, s.domains)
	return out
}

// Trials returns the trial history in append order. The slice is a copy but
// the trials themselves are shared: evaluators mutate them in place.
func (s *SearchSpace) Trials() []*Trial {
	out := make([]*Trial, len(s.trials))
	copy(out, s.trials)
	return out
}

// Equal reports whether two spaces describe the same search problem: their
// domain sequences are pairwise equal in order and length. Trial history and
// cached scalars are deliberately excluded.
func (s *SearchSpace) Equal(other *SearchSpace) bool {
	if other == nil || len(s.domains) != len(other.domains) {
		return false
	}

	for i := range s.domains {
		if !s.domains[i].Equal(other.domains[i]) {
			return false
		}
	}

	return true
}

//////
// Sampling.
//////

// Generate draws one value per domain, in canonical domain order, by
// invoking each domain's Generate independently. It has no side effects on
// the trial history.
func (s *SearchSpace) Generate() []any {
	values := make([]any, len(s.domains))
	for i, domain := range s.domains {
		values[i] = domain.Generate()
	}

	return values
}

// Sample invokes the given sampling method, wraps the resulting vector in a
// new Trial appended to the history, and returns the Trial. A nil method
// means pure random sampling.
func (s *SearchSpace) Sample(method Method) (*Trial, error) {
	if method == nil {
		method = RandomSearch
	}

	hyperparameters, err := method(s)
	if err != nil {
		return nil, err
	}

	trial := newTrial(s, hyperparameters)
	s.trials = append(s.trials, trial)

	s.logger.Debug("sampled trial",
		zap.Int64("trial_id", trial.ID()),
		zap.String("exp_key", s.expKey),
		zap.Int("history", len(s.trials)))

	return trial, nil
}

// SampleMap is Sample with the result materialized as a nested parameter
// map keyed by the domain name structure. The trial is still recorded in the
// history.
func (s *SearchSpace) SampleMap(method Method) (map[string]any, error) {
	trial, err := s.Sample(method)
	if err != nil {
		return nil, err
	}

	return trial.ParameterMap(), nil
}

//////
// Modeling views.
//////

// ToArray converts the trial history into a dense numeric matrix with one
// row per recorded trial, whether or not its objective is set, and
// len(domains)+1 columns: the domain-mapped feature values followed by a
// trailing objective column. Rows whose trial has no objective carry NaN in
// the trailing column and must be filtered by consumers that require labels.
// Returns nil when no trials exist.
//
// The construction is deterministic: two calls over the same history yield
// identical matrices.
func (s *SearchSpace) ToArray() *mat.Dense {
	if len(s.trials) == 0 {
		return nil
	}

	cols := len(s.domains) + 1
	out := mat.NewDense(len(s.trials), cols, nil)

	for i, trial := range s.trials {
		for j, domain := range s.domains {
			out.Set(i, j, domain.MapToDomain(trial.Hyperparameters[j]))
		}

		objective := math.NaN()
		if trial.Objective != nil {
			objective = *trial.Objective
		}
		out.Set(i, cols-1, objective)
	}

	return out
}

// observations returns the feature matrix and label vector of the trials
// that carry an objective, in history order. Both are nil when no trial has
// been evaluated yet.
func (s *SearchSpace) observations() (*mat.Dense, []float64) {
	var labels []float64
	var rows [][]any

	for _, trial := range s.trials {
		if trial.Objective == nil {
			continue
		}
		labels = append(labels, *trial.Objective)
		rows = append(rows, trial.Hyperparameters)
	}

	if len(labels) == 0 || len(s.domains) == 0 {
		// A dense matrix cannot have zero width; a domainless space still
		// reports its labels so the warm-up gate can count them.
		return nil, labels
	}

	features := mat.NewDense(len(labels), len(s.domains), nil)
	for i, row := range rows {
		for j, domain := range s.domains {
			features.Set(i, j, domain.MapToDomain(row[j]))
		}
	}

	return features, labels
}

// mapVector converts a raw hyperparameter vector to its numeric encoding,
// one feature per domain.
func (s *SearchSpace) mapVector(values []any) []float64 {
	out := make([]float64, len(s.domains))
	for j, domain := range s.domains {
		out[j] = domain.MapToDomain(values[j])
	}

	return out
}

//////
// Estimators.
//////

// Complexity estimates the relative combinatorial size of the space as the
// product of the domain complexities, normalized to [1, inf). It is memoized
// after the first computation (the domain set is frozen at construction, so
// the value can never change) and invalidated only by reconstruction.
func (s *SearchSpace) Complexity() float64 {
	if s.complexity == nil {
		complexity := 1.0
		for _, domain := range s.domains {
			complexity *= domain.Complexity()
		}

		if complexity < 1 {
			complexity = 1
		}

		s.complexity = &complexity
	}

	return *s.complexity
}

// Optimum returns the trial with the minimal (ModeMin) or maximal (ModeMax)
// objective among trials that have one, breaking ties by history order. It
// returns an EmptyResultError when no trial has a recorded objective yet.
func (s *SearchSpace) Optimum(mode Mode) (*Trial, error) {
	var best *Trial

	for _, trial := range s.trials {
		if trial.Objective == nil {
			continue
		}

		if best == nil {
			best = trial
			continue
		}

		if mode == ModeMax {
			if *trial.Objective > *best.Objective {
				best = trial
			}
		} else if *trial.Objective < *best.Objective {
			best = trial
		}
	}

	if best == nil {
		return nil, &EmptyResultError{ExpKey: s.expKey}
	}

	return best, nil
}

//////
// JSON export.
//////

// ToJSON encodes the space for persistence or transmission. With simplify
// set, domains and trials are exported as identifiers only (domain names
// and trial IDs) for reference-based storage; otherwise the fully nested
// representations are emitted.
//
// Domains and trials are converted concurrently over a worker pool purely
// for throughput. Each worker maps one read-only item to its own output and
// results are collected in input order, so the encoding is identical to a
// sequential conversion.
func (s *SearchSpace) ToJSON(simplify bool) ([]byte, error) {
	wire := spaceJSON{
		ExpKey:      s.expKey,
		Complexity:  s.complexity,
		Uncertainty: s.uncertainty,
	}

	var err error

	if simplify {
		wire.Domains, err = iter.MapErr(s.domains, func(d *Domain) (json.RawMessage, error) {
			return json.Marshal((*d).Name())
		})
		if err == nil {
			wire.Trials, err = iter.MapErr(s.trials, func(t **Trial) (json.RawMessage, error) {
				return json.Marshal((*t).ID())
			})
		}
	} else {
		wire.Domains, err = iter.MapErr(s.domains, func(d *Domain) (json.RawMessage, error) {
			return encodeDomain(*d)
		})
		if err == nil {
			wire.Trials, err = iter.MapErr(s.trials, func(t **Trial) (json.RawMessage, error) {
				return (*t).ToJSON()
			})
		}
	}

	if err != nil {
		return nil, fmt.Errorf("searchspace json: %w", err)
	}

	if wire.Domains == nil {
		wire.Domains = []json.RawMessage{}
	}
	if wire.Trials == nil {
		wire.Trials = []json.RawMessage{}
	}

	return json.Marshal(wire)
}
