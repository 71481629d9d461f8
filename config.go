package spaceopt

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//////
// Const, vars, types.
//////

// DomainSpec declares one domain in a search-space config file.
type DomainSpec struct {
	Name    string    `yaml:"name" validate:"required"`
	Kind    string    `yaml:"kind" validate:"required,oneof=continuous discrete categorical"`
	Lo      float64   `yaml:"lo,omitempty"`
	Hi      float64   `yaml:"hi,omitempty"`
	Values  []float64 `yaml:"values,omitempty"`
	Choices []string  `yaml:"choices,omitempty"`
}

// SpaceConfig is the declarative YAML form of a search space:
//
//	exp_key: resnet-sweep
//	domains:
//	  - {name: model/lr, kind: continuous, lo: 1.0e-4, hi: 1.0e-1}
//	  - {name: model/depth, kind: discrete, values: [2, 4, 8, 16]}
//	  - {name: model/activation, kind: categorical, choices: [relu, tanh]}
type SpaceConfig struct {
	ExpKey  string       `yaml:"exp_key,omitempty"`
	Domains []DomainSpec `yaml:"domains" validate:"required,min=1,dive"`
}

var validate = validator.New()

//////
// Exported functionalities.
//////

// ParseSpaceConfig decodes and validates a YAML search-space declaration.
func ParseSpaceConfig(data []byte) (*SpaceConfig, error) {
	var config SpaceConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("space config: %w", err)
	}

	if err := validate.Struct(&config); err != nil {
		return nil, fmt.Errorf("space config: %w", err)
	}

	return &config, nil
}

// LoadSpaceConfig reads and parses a YAML search-space declaration from
// disk.
func LoadSpaceConfig(path string) (*SpaceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("space config: %w", err)
	}

	return ParseSpaceConfig(data)
}

// Build constructs the SearchSpace the config declares. The config's exp_key
// is applied first, so callers can still override it through options.
func (c *SpaceConfig) Build(opts ...SpaceOption) (*SearchSpace, error) {
	domains := make([]Domain, 0, len(c.Domains))

	for i, spec := range c.Domains {
		domain, err := spec.build()
		if err != nil {
			return nil, fmt.Errorf("space config: domain %d (%s): %w", i, spec.Name, err)
		}
		domains = append(domains, domain)
	}

	if c.ExpKey != "" {
		opts = append([]SpaceOption{WithExpKey(c.ExpKey)}, opts...)
	}

	return New(domains, opts...), nil
}

//////
// Helpers.
//////

func (s DomainSpec) build() (Domain, error) {
	switch s.Kind {
	case kindContinuous:
		if s.Hi <= s.Lo {
			return nil, fmt.Errorf("continuous domain requires lo < hi, got [%v, %v]", s.Lo, s.Hi)
		}
		return NewContinuous(s.Name, s.Lo, s.Hi), nil

	case kindDiscrete:
		if len(s.Values) == 0 {
			return nil, fmt.Errorf("discrete domain requires at least one value")
		}
		return NewDiscrete(s.Name, s.Values...), nil

	case kindCategorical:
		if len(s.Choices) == 0 {
			return nil, fmt.Errorf("categorical domain requires at least one choice")
		}
		return NewCategorical(s.Name, s.Choices...), nil

	default:
		// Unreachable past validation; kept for direct struct construction.
		return nil, fmt.Errorf("unknown domain kind %q", s.Kind)
	}
}
