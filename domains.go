package spaceopt

import (
	"encoding/json"
	"math"
	"math/rand"

	"golang.org/x/exp/constraints"
)

//////
// Built-in domains.
//////

// continuousComplexity is the convention complexity reported by continuous
// domains: a continuous range cannot be enumerated, so its contribution to
// the combinatorial size of a space is a fixed constant.
const continuousComplexity = 2.0

const (
	kindContinuous  = "continuous"
	kindDiscrete    = "discrete"
	kindCategorical = "categorical"
)

func init() {
	RegisterDomain(kindContinuous, func(spec json.RawMessage) (Domain, error) {
		d := &ContinuousDomain{}
		return d, json.Unmarshal(spec, d)
	})
	RegisterDomain(kindDiscrete, func(spec json.RawMessage) (Domain, error) {
		d := &DiscreteDomain{}
		return d, json.Unmarshal(spec, d)
	})
	RegisterDomain(kindCategorical, func(spec json.RawMessage) (Domain, error) {
		d := &CategoricalDomain{}
		return d, json.Unmarshal(spec, d)
	})
}

//////
// Continuous.
//////

// ContinuousDomain draws uniformly from the inclusive range [Lo, Hi]. Its
// numeric encoding is the value itself.
type ContinuousDomain struct {
	DomainName string  `json:"name"`
	Lo         float64 `json:"lo"`
	Hi         float64 `json:"hi"`
}

// NewContinuous returns a continuous domain over [lo, hi].
func NewContinuous(name string, lo, hi float64) *ContinuousDomain {
	return &ContinuousDomain{DomainName: name, Lo: lo, Hi: hi}
}

func (d *ContinuousDomain) Name() string { return d.DomainName }

func (d *ContinuousDomain) Kind() string { return kindContinuous }

func (d *ContinuousDomain) Generate() any {
	return d.Lo + rand.Float64()*(d.Hi-d.Lo)
}

func (d *ContinuousDomain) MapToDomain(value any) float64 {
	return asFloat(value)
}

func (d *ContinuousDomain) Complexity() float64 { return continuousComplexity }

func (d *ContinuousDomain) Equal(other Domain) bool {
	o, ok := other.(*ContinuousDomain)
	return ok && *d == *o
}

//////
// Discrete.
//////

// DiscreteDomain draws uniformly from a finite, ordered set of numeric
// values. The numeric encoding of a value is its index in the set, which
// keeps unevenly spaced sets from skewing the surrogate's distance metric.
type DiscreteDomain struct {
	DomainName string    `json:"name"`
	Values     []float64 `json:"values"`
}

// NewDiscrete returns a discrete domain over the given values. The value
// order is preserved; it defines the numeric encoding.
func NewDiscrete[T constraints.Integer | constraints.Float](name string, values ...T) *DiscreteDomain {
	converted := make([]float64, len(values))
	for i, v := range values {
		converted[i] = float64(v)
	}

	return &DiscreteDomain{DomainName: name, Values: converted}
}

func (d *DiscreteDomain) Name() string { return d.DomainName }

func (d *DiscreteDomain) Kind() string { return kindDiscrete }

func (d *DiscreteDomain) Generate() any {
	return d.Values[rand.Intn(len(d.Values))]
}

func (d *DiscreteDomain) MapToDomain(value any) float64 {
	v := asFloat(value)
	for i, candidate := range d.Values {
		if candidate == v {
			return float64(i)
		}
	}

	return math.NaN()
}

func (d *DiscreteDomain) Complexity() float64 {
	return math.Max(1, float64(len(d.Values)))
}

func (d *DiscreteDomain) Equal(other Domain) bool {
	o, ok := other.(*DiscreteDomain)
	if !ok || d.DomainName != o.DomainName || len(d.Values) != len(o.Values) {
		return false
	}

	for i := range d.Values {
		if d.Values[i] != o.Values[i] {
			return false
		}
	}

	return true
}

//////
// Categorical.
//////

// CategoricalDomain draws uniformly from a finite set of string choices.
// The numeric encoding of a choice is its index in the set.
type CategoricalDomain struct {
	DomainName string   `json:"name"`
	Choices    []string `json:"choices"`
}

// NewCategorical returns a categorical domain over the given choices.
func NewCategorical(name string, choices ...string) *CategoricalDomain {
	return &CategoricalDomain{DomainName: name, Choices: choices}
}

func (d *CategoricalDomain) Name() string { return d.DomainName }

func (d *CategoricalDomain) Kind() string { return kindCategorical }

func (d *CategoricalDomain) Generate() any {
	return d.Choices[rand.Intn(len(d.Choices))]
}

func (d *CategoricalDomain) MapToDomain(value any) float64 {
	s, ok := value.(string)
	if !ok {
		return math.NaN()
	}

	for i, choice := range d.Choices {
		if choice == s {
			return float64(i)
		}
	}

	return math.NaN()
}

func (d *CategoricalDomain) Complexity() float64 {
	return math.Max(1, float64(len(d.Choices)))
}

func (d *CategoricalDomain) Equal(other Domain) bool {
	o, ok := other.(*CategoricalDomain)
	if !ok || d.DomainName != o.DomainName || len(d.Choices) != len(o.Choices) {
		return false
	}

	for i := range d.Choices {
		if d.Choices[i] != o.Choices[i] {
			return false
		}
	}

	return true
}

//////
// Helpers.
//////

// asFloat converts the numeric types a hyperparameter value can take,
// including the float64 every JSON number decodes to, into float64. Any
// other type maps to NaN.
func asFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
