package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy is the tunable half of the pipeline: classification cutoffs, routing
// rules and score weights. Loaded from a YAML file so operators can retune
// thresholds without a rebuild. Zero values fall back to the built-in
// defaults inside the pipeline constructors.
type Policy struct {
	Classifier ClassifierPolicy `yaml:"classifier"`
	Routing    RoutingPolicy    `yaml:"routing"`
	Scoring    ScoringPolicy    `yaml:"scoring"`
}

type ClassifierPolicy struct {
	OpinionMinContent int `yaml:"opinion_min_content"`
	OrderMinContent   int `yaml:"order_min_content"`
}

type RoutingPolicy struct {
	KeywordMinContent int `yaml:"keyword_min_content"`
}

type ScoringPolicy struct {
	Opinion struct {
		Court       float64 `yaml:"court"`
		PerCitation float64 `yaml:"per_citation"`
		CitationCap float64 `yaml:"citation_cap"`
		Judge       float64 `yaml:"judge"`
		Structure   float64 `yaml:"structure"`
		Keywords    float64 `yaml:"keywords"`
	} `yaml:"opinion"`
	Metadata struct {
		Court        float64 `yaml:"court"`
		Judge        float64 `yaml:"judge"`
		Completeness float64 `yaml:"completeness"`
	} `yaml:"metadata"`
	FlatBaseline float64 `yaml:"flat_baseline"`
}

// LoadPolicy reads the policy file at path. An empty path returns the zero
// Policy, which the constructors replace with defaults.
func LoadPolicy(path string) (Policy, error) {
	var policy Policy
	if path == "" {
		return policy, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return policy, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return policy, fmt.Errorf("parse policy file: %w", err)
	}
	return policy, nil
}
