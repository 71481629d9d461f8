package spaceopt

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortDomainsIsCanonical(t *testing.T) {
	domains := []Domain{
		NewContinuous("model/lr", 0, 1),
		NewCategorical("model/activation", "relu", "tanh"),
		NewDiscrete("model/depth", 2, 4, 8),
	}

	sortDomains(domains)

	assert.Equal(t, "model/activation", domains[0].Name())
	assert.Equal(t, "model/depth", domains[1].Name())
	assert.Equal(t, "model/lr", domains[2].Name())

	// Sorting again must not change anything: the order is deterministic
	// and stable for a given domain set.
	again := []Domain{domains[0], domains[1], domains[2]}
	sortDomains(again)
	assert.Equal(t, domains, again)
}

func TestBuiltinComplexities(t *testing.T) {
	assert.Equal(t, 2.0, NewContinuous("lr", 0, 1).Complexity())
	assert.Equal(t, 4.0, NewDiscrete("depth", 2, 4, 8, 16).Complexity())
	assert.Equal(t, 3.0, NewCategorical("act", "relu", "tanh", "gelu").Complexity())
}

func TestDiscreteMapToDomainIsIndexEncoding(t *testing.T) {
	d := NewDiscrete("depth", 2, 4, 8)

	assert.Equal(t, 0.0, d.MapToDomain(2.0))
	assert.Equal(t, 2.0, d.MapToDomain(8.0))

	// Integer-typed values map the same as their float form.
	assert.Equal(t, 1.0, d.MapToDomain(4))

	// A value outside the set cannot be encoded.
	assert.True(t, math.IsNaN(d.MapToDomain(5.0)))
}

func TestCategoricalMapToDomainIsIndexEncoding(t *testing.T) {
	d := NewCategorical("act", "relu", "tanh")

	assert.Equal(t, 0.0, d.MapToDomain("relu"))
	assert.Equal(t, 1.0, d.MapToDomain("tanh"))
	assert.True(t, math.IsNaN(d.MapToDomain("gelu")))
	assert.True(t, math.IsNaN(d.MapToDomain(1.0)))
}

func TestContinuousGenerateStaysInRange(t *testing.T) {
	d := NewContinuous("lr", 0.25, 0.75)

	for i := 0; i < 100; i++ {
		v, ok := d.Generate().(float64)
		require.True(t, ok)
		assert.GreaterOrEqual(t, v, 0.25)
		assert.LessOrEqual(t, v, 0.75)

		// The numeric encoding of a continuous value is the value itself.
		assert.Equal(t, v, d.MapToDomain(v))
	}
}

func TestDomainCodecRoundTrip(t *testing.T) {
	domains := []Domain{
		NewContinuous("model/lr", 1e-4, 1e-1),
		NewDiscrete("model/depth", 2, 4, 8, 16),
		NewCategorical("model/activation", "relu", "tanh"),
	}

	for _, original := range domains {
		encoded, err := encodeDomain(original)
		require.NoError(t, err)

		decoded, err := decodeDomain(encoded)
		require.NoError(t, err)

		assert.True(t, original.Equal(decoded), "round-trip of %q", original.Name())
	}
}

func TestDecodeDomainUnknownKind(t *testing.T) {
	_, err := decodeDomain(json.RawMessage(`{"kind":"nope","spec":{}}`))
	assert.ErrorContains(t, err, `unknown kind "nope"`)
}

func TestDecodeDomainMissingKind(t *testing.T) {
	_, err := decodeDomain(json.RawMessage(`{"spec":{}}`))
	assert.ErrorContains(t, err, "missing required key")
}

func TestDomainEqualityIsStructural(t *testing.T) {
	assert.True(t, NewContinuous("lr", 0, 1).Equal(NewContinuous("lr", 0, 1)))
	assert.False(t, NewContinuous("lr", 0, 1).Equal(NewContinuous("lr", 0, 2)))
	assert.False(t, NewContinuous("lr", 0, 1).Equal(NewDiscrete("lr", 0, 1)))
	assert.True(t, NewDiscrete("d", 1, 2).Equal(NewDiscrete("d", 1, 2)))
	assert.False(t, NewDiscrete("d", 1, 2).Equal(NewDiscrete("d", 2, 1)))
	assert.True(t, NewCategorical("a", "x").Equal(NewCategorical("a", "x")))
	assert.False(t, NewCategorical("a", "x").Equal(NewCategorical("a", "y")))
}
