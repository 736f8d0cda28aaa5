package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clusterforge/forgectl/provider"
	"github.com/clusterforge/forgectl/synthesis"
)

const defaultModel = "claude-sonnet-4-20250514"

// config is the resolved CLI configuration. Precedence is defaults, then the
// YAML config file, then command-line flags. The API key never appears in the
// file; it comes from the FORGE_API_KEY environment variable.
type config struct {
	Provider  provider.Config
	Synthesis synthesis.Config
	Out       string
	SchemaDir string
	Guidance  []string
}

// fileConfig is the YAML shape of the config file. Durations are strings in
// time.ParseDuration form ("30s", "2m").
type fileConfig struct {
	Provider struct {
		Backend   string `yaml:"backend"`
		Model     string `yaml:"model"`
		BaseURL   string `yaml:"base_url"`
		MaxTokens int    `yaml:"max_tokens"`
		Timeout   string `yaml:"timeout"`
	} `yaml:"provider"`
	Synthesis synthesis.Config `yaml:"synthesis"`
	Out       string           `yaml:"out"`
	SchemaDir string           `yaml:"schema_dir"`
	Guidance  []string         `yaml:"guidance"`
}

func defaultConfig() config {
	return config{
		Provider: provider.Config{
			Backend: "anthropic",
			Model:   defaultModel,
		},
		Synthesis: synthesis.DefaultConfig(),
		Out:       ".",
	}
}

// loadConfig returns the defaults overlaid with the YAML file at path. An
// empty path returns the defaults unchanged.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	var overlay fileConfig
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.merge(&overlay); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// merge applies non-zero values from the file overlay.
func (c *config) merge(source *fileConfig) error {
	if source.Provider.Backend != "" {
		c.Provider.Backend = source.Provider.Backend
	}
	if source.Provider.Model != "" {
		c.Provider.Model = source.Provider.Model
	}
	if source.Provider.BaseURL != "" {
		c.Provider.BaseURL = source.Provider.BaseURL
	}
	if source.Provider.MaxTokens > 0 {
		c.Provider.MaxTokens = source.Provider.MaxTokens
	}
	if source.Provider.Timeout != "" {
		timeout, err := time.ParseDuration(source.Provider.Timeout)
		if err != nil {
			return fmt.Errorf("provider.timeout: %w", err)
		}
		c.Provider.Timeout = timeout
	}
	c.Synthesis.Merge(&source.Synthesis)
	if source.Out != "" {
		c.Out = source.Out
	}
	if source.SchemaDir != "" {
		c.SchemaDir = source.SchemaDir
	}
	if len(source.Guidance) > 0 {
		c.Guidance = append([]string(nil), source.Guidance...)
	}
	return nil
}
