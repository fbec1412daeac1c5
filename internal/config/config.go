package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Store struct {
		Backend string `yaml:"backend"` // json | sqlite
		Path    string `yaml:"path"`
	} `yaml:"store"`
	Resolver struct {
		FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
		CacheSize      int     `yaml:"cache_size"`
		LegacyTable    string  `yaml:"legacy_table"` // empty uses the embedded table
	} `yaml:"resolver"`
	Validator struct {
		ConfidenceThreshold float64  `yaml:"confidence_threshold"`
		Timeout             Duration `yaml:"timeout"`
		StructuralParser    string   `yaml:"structural_parser"` // pattern | treesitter
	} `yaml:"validator"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	AI struct {
		Provider string `yaml:"provider"` // empty disables the advisor
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"ai"`
}

// Duration accepts "60s" style strings in YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func Default() *Config {
	var cfg Config
	cfg.Store.Backend = "json"
	cfg.Store.Path = "mappings.json"
	cfg.Resolver.FuzzyThreshold = 0.7
	cfg.Resolver.CacheSize = 1000
	cfg.Validator.ConfidenceThreshold = 0.8
	cfg.Validator.Timeout = Duration(60 * time.Second)
	cfg.Validator.StructuralParser = "pattern"
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"
	cfg.AI.Model = "gemini-2.5-flash"
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	// 2. Load YAML config over the defaults; a missing file keeps them
	cfg := Default()
	file, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	// 3. Override with Environment Variables if present
	if apiKey := os.Getenv("MODBRIDGE_API_KEY"); apiKey != "" {
		cfg.AI.APIKey = apiKey
	}
	if provider := os.Getenv("MODBRIDGE_AI_PROVIDER"); provider != "" {
		cfg.AI.Provider = provider
	}
	if level := os.Getenv("MODBRIDGE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if storePath := os.Getenv("MODBRIDGE_STORE_PATH"); storePath != "" {
		cfg.Store.Path = storePath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks policy values and enumerations.
func (c *Config) Validate() error {
	var problems []string
	switch c.Store.Backend {
	case "json", "sqlite":
	default:
		problems = append(problems, fmt.Sprintf("store.backend must be json or sqlite, got %q", c.Store.Backend))
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		problems = append(problems, "store.path is required")
	}
	if c.Resolver.FuzzyThreshold < 0 || c.Resolver.FuzzyThreshold > 1 {
		problems = append(problems, "resolver.fuzzy_threshold must be within [0,1]")
	}
	if c.Resolver.CacheSize < 1 {
		problems = append(problems, "resolver.cache_size must be at least 1")
	}
	if c.Validator.ConfidenceThreshold < 0 || c.Validator.ConfidenceThreshold > 1 {
		problems = append(problems, "validator.confidence_threshold must be within [0,1]")
	}
	if c.Validator.Timeout <= 0 {
		problems = append(problems, "validator.timeout must be positive")
	}
	switch c.Validator.StructuralParser {
	case "pattern", "treesitter":
	default:
		problems = append(problems, fmt.Sprintf("validator.structural_parser must be pattern or treesitter, got %q", c.Validator.StructuralParser))
	}
	switch c.AI.Provider {
	case "", "gemini":
	default:
		problems = append(problems, fmt.Sprintf("ai.provider %q is not supported", c.AI.Provider))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
