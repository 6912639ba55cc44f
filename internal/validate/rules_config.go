package validate

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RulesConfig is the on-disk rule configuration.
//
// The severity policy is a configuration knob, not a constant: the two
// historical rule sets disagree on the missing_R severity and the pick
// is still pending a product decision.
type RulesConfig struct {
	Policy            Policy `yaml:"policy"`
	OverloadThreshold int    `yaml:"overload_threshold"`
}

// DefaultRulesConfig returns the built-in configuration: strict policy,
// default overload threshold.
func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		Policy:            PolicyStrict,
		OverloadThreshold: DefaultOverloadThreshold,
	}
}

// LoadRulesFile reads a yaml rules file. Omitted fields keep their
// defaults; an unknown policy value is rejected.
func LoadRulesFile(path string) (RulesConfig, error) {
	cfg := DefaultRulesConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("load rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	if cfg.Policy == "" {
		cfg.Policy = PolicyStrict
	}
	if !cfg.Policy.Valid() {
		return cfg, fmt.Errorf("rules file %s: unknown policy %q (want %q or %q)", path, cfg.Policy, PolicyStrict, PolicyLenient)
	}
	if cfg.OverloadThreshold <= 0 {
		cfg.OverloadThreshold = DefaultOverloadThreshold
	}

	return cfg, nil
}

// Options converts the configuration into engine options.
func (c RulesConfig) Options() []Option {
	return []Option{
		WithPolicy(c.Policy),
		WithOverloadThreshold(c.OverloadThreshold),
	}
}
