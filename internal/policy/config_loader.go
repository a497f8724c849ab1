package policy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads an optional YAML override from path and merges it onto
// DefaultConfig: each non-zero scalar field of the override replaces the
// default, and map entries are merged key by key. An empty path returns
// the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load policy config: %w", err)
	}

	override := &Config{}
	if err := yaml.Unmarshal(data, override); err != nil {
		return nil, fmt.Errorf("load policy config: parse %s: %w", path, err)
	}

	mergeConfig(cfg, override)
	return cfg, nil
}

func mergeConfig(base, override *Config) {
	if override.SingleLimit != 0 {
		base.SingleLimit = override.SingleLimit
	}
	if override.GroupLimit != 0 {
		base.GroupLimit = override.GroupLimit
	}
	if override.PolicyBankLimit != 0 {
		base.PolicyBankLimit = override.PolicyBankLimit
	}
	if override.WarningThreshold != 0 {
		base.WarningThreshold = override.WarningThreshold
	}
	if override.CriticalThreshold != 0 {
		base.CriticalThreshold = override.CriticalThreshold
	}
	for k, v := range override.RatingMultiplier {
		base.RatingMultiplier[k] = v
	}
	for k, v := range override.MaturityBands {
		base.MaturityBands[k] = v
	}
	for k, v := range override.MaturitySplitWeights {
		base.MaturitySplitWeights[k] = v
	}
}
