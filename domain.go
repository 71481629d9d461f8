package spaceopt

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

//////
// Domain contract.
//////

// Domain is the capability set a SearchSpace requires from a single
// hyperparameter's value distribution. The built-in continuous, discrete and
// categorical domains cover the common cases; external domain types plug in
// through RegisterDomain so they survive the JSON round-trip.
//
// Invariant: MapToDomain is deterministic and its numeric range is stable
// across calls for the same Domain instance. All positional encodings in the
// package depend on it.
type Domain interface {
	// Name identifies the domain and fixes its position in the canonical
	// domain order of a SearchSpace. Hierarchical structure is expressed
	// with "/" separators, e.g. "optimizer/lr".
	Name() string

	// Kind is the codec tag used to round-trip the domain through JSON.
	Kind() string

	// Generate draws one raw value from the domain's distribution.
	Generate() any

	// MapToDomain converts a raw generated value to its stable numeric
	// encoding. Values the domain cannot encode map to NaN; matrix
	// consumers are expected to filter such rows.
	MapToDomain(value any) float64

	// Complexity measures the size of the domain's value set, always >= 1.
	// Continuous domains report a fixed convention value.
	Complexity() float64

	// Equal reports whether the other domain describes the same value set.
	Equal(other Domain) bool
}

//////
// Codec registry.
//////

// DomainDecoder rebuilds a Domain from the spec payload of its JSON
// envelope.
type DomainDecoder func(spec json.RawMessage) (Domain, error)

var (
	domainDecodersMu sync.RWMutex
	domainDecoders   = map[string]DomainDecoder{}
)

// RegisterDomain makes an externally defined domain type reconstructible
// from JSON. The built-in kinds are registered at package init; registering
// the same kind twice panics, matching the stdlib codec registries.
func RegisterDomain(kind string, decode DomainDecoder) {
	domainDecodersMu.Lock()
	defer domainDecodersMu.Unlock()

	if _, dup := domainDecoders[kind]; dup {
		panic(fmt.Sprintf("spaceopt: domain kind %q registered twice", kind))
	}

	domainDecoders[kind] = decode
}

// domainEnvelope is the wire form of a domain: a kind tag selecting the
// decoder plus the type-specific payload.
type domainEnvelope struct {
	Kind string          `json:"kind"`
	Spec json.RawMessage `json:"spec"`
}

func encodeDomain(d Domain) (json.RawMessage, error) {
	spec, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode domain %q: %w", d.Name(), err)
	}

	return json.Marshal(domainEnvelope{Kind: d.Kind(), Spec: spec})
}

func decodeDomain(data json.RawMessage) (Domain, error) {
	var env domainEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode domain envelope: %w", err)
	}

	if env.Kind == "" {
		return nil, fmt.Errorf("decode domain: missing required key %q", "kind")
	}

	domainDecodersMu.RLock()
	decode, ok := domainDecoders[env.Kind]
	domainDecodersMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("decode domain: unknown kind %q", env.Kind)
	}

	return decode(env.Spec)
}

// sortDomains puts domains into the canonical order every positional vector
// encoding depends on. The order is deterministic and stable for a given
// domain set.
func sortDomains(domains []Domain) {
	sort.SliceStable(domains, func(i, j int) bool {
		return domains[i].Name() < domains[j].Name()
	})
}
