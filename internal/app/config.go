package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "fuzzycoder.yaml"

// Config carries the user-adjustable application settings.
type Config struct {
	// DefaultMode is the categorization mode preselected for new projects
	// ("Single" or "Multi").
	DefaultMode string `yaml:"default_mode"`
	// MatchThreshold is the initial display threshold for fuzzy match
	// scores (0-100). Zero is a valid setting (show everything); negative
	// means unset.
	MatchThreshold int `yaml:"match_threshold"`
	// ClearUncategorizedInMulti removes values from Uncategorized when
	// they are assigned to a category even in Multi mode.
	ClearUncategorizedInMulti bool `yaml:"clear_uncategorized_in_multi"`
	// IncludeMissingInPercentages keeps missing cells in the denominator
	// of category percentage metrics.
	IncludeMissingInPercentages bool `yaml:"include_missing_in_percentages"`
}

// ApplyDefaults populates unset values with sensible defaults. A
// threshold of 0 is a real setting and stays 0.
func (c *Config) ApplyDefaults() {
	if c.DefaultMode == "" {
		c.DefaultMode = "Single"
	}
	if c.MatchThreshold < 0 {
		c.MatchThreshold = 60
	}
}

// LoadConfig loads configuration from the given path or the default
// fuzzycoder.yaml. A missing file yields defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	// Start below zero so a file that omits match_threshold gets the
	// default while an explicit 0 survives.
	cfg := Config{MatchThreshold: -1}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
