// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

// Environment variables consulted when a key is not set in the file or flags.
const (
	EnvGeminiAPIKey = "GEMINI_API_KEY"
	EnvSearchAPIKey = "GOOGLE_SEARCH_API_KEY"
	EnvSearchCX     = "GOOGLE_SEARCH_CX"
)

// Search backend names accepted in SearchBackends.
const (
	BackendCustomSearch = "custom"
	BackendNews         = "news"
)

// Config represents the CLI configuration that can be loaded from a JSON or YAML file.
// All fields are optional; missing values use defaults or CLI flags.
type Config struct {
	// Credentials
	APIKey       string `json:"api_key,omitempty" yaml:"api_key,omitempty"`               // Gemini API key
	SearchAPIKey string `json:"search_api_key,omitempty" yaml:"search_api_key,omitempty"` // Google Custom Search API key
	SearchCX     string `json:"search_cx,omitempty" yaml:"search_cx,omitempty"`           // Custom Search engine ID

	// Model
	Tier  string `json:"tier,omitempty" yaml:"tier,omitempty" validate:"omitempty,oneof=lite standard advanced"`
	Model string `json:"model,omitempty" yaml:"model,omitempty"` // Overrides the model for Tier

	// Agent limits
	MaxSteps          int   `json:"max_steps,omitempty" yaml:"max_steps,omitempty" validate:"gte=0,lte=50"`
	MaxFailedEvidence int   `json:"max_failed_evidence,omitempty" yaml:"max_failed_evidence,omitempty" validate:"gte=0,lte=50"`
	FinalizeAttempts  int   `json:"finalize_attempts,omitempty" yaml:"finalize_attempts,omitempty" validate:"gte=0,lte=5"`
	MaxDocumentBytes  int64 `json:"max_document_bytes,omitempty" yaml:"max_document_bytes,omitempty" validate:"gte=0"`

	// Retry and batch
	MaxAttempts    int    `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty" validate:"gte=0,lte=10"`
	RetryBaseDelay string `json:"retry_base_delay,omitempty" yaml:"retry_base_delay,omitempty"` // e.g. "10s"
	MaxConcurrency int    `json:"max_concurrency,omitempty" yaml:"max_concurrency,omitempty" validate:"gte=0"`
	Deadline       string `json:"deadline,omitempty" yaml:"deadline,omitempty"` // e.g. "15m"; empty means none

	// Evidence
	SearchBackends   []string `json:"search_backends,omitempty" yaml:"search_backends,omitempty" validate:"omitempty,dive,oneof=custom news"`
	SearchRateLimit  int      `json:"search_rate_limit,omitempty" yaml:"search_rate_limit,omitempty" validate:"gte=0"` // Calls per minute per backend or host
	FetchTimeout     string   `json:"fetch_timeout,omitempty" yaml:"fetch_timeout,omitempty"`
	MaxContentLength int      `json:"max_content_length,omitempty" yaml:"max_content_length,omitempty" validate:"gte=0"`
	UseBrowser       bool     `json:"use_browser,omitempty" yaml:"use_browser,omitempty"` // Headless fallback for script-rendered pages

	Verbose bool `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Tier:              "standard",
		MaxSteps:          8,
		MaxFailedEvidence: 5,
		FinalizeAttempts:  2,
		MaxDocumentBytes:  10 << 20,
		MaxAttempts:       3,
		RetryBaseDelay:    "10s",
		SearchBackends:    []string{BackendCustomSearch, BackendNews},
		SearchRateLimit:   60,
		FetchTimeout:      "20s",
		MaxContentLength:  5000,
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// LoadConfig loads configuration from a .json, .yaml or .yml file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case ".json", "":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .json, .yaml or .yml)", ext)
	}

	return &cfg, nil
}

// Validate checks value ranges and duration syntax.
// Credentials are not required here; commands check them after merging flags and env.
func (c *Config) Validate() error {
	if err := structValidator().Struct(c); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	for name, value := range map[string]string{
		"retry_base_delay": c.RetryBaseDelay,
		"deadline":         c.Deadline,
		"fetch_timeout":    c.FetchTimeout,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("config error: '%s' is not a duration: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("config error: '%s' must be non-negative", name)
		}
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	mergeString := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.SearchAPIKey, defaults.SearchAPIKey)
	mergeString(&result.SearchCX, defaults.SearchCX)
	mergeString(&result.Tier, defaults.Tier)
	mergeString(&result.Model, defaults.Model)
	mergeString(&result.RetryBaseDelay, defaults.RetryBaseDelay)
	mergeString(&result.Deadline, defaults.Deadline)
	mergeString(&result.FetchTimeout, defaults.FetchTimeout)

	mergeInt := func(dst *int, def int) {
		if *dst == 0 {
			*dst = def
		}
	}
	mergeInt(&result.MaxSteps, defaults.MaxSteps)
	mergeInt(&result.MaxFailedEvidence, defaults.MaxFailedEvidence)
	mergeInt(&result.FinalizeAttempts, defaults.FinalizeAttempts)
	mergeInt(&result.MaxAttempts, defaults.MaxAttempts)
	mergeInt(&result.MaxConcurrency, defaults.MaxConcurrency)
	mergeInt(&result.SearchRateLimit, defaults.SearchRateLimit)
	mergeInt(&result.MaxContentLength, defaults.MaxContentLength)
	if result.MaxDocumentBytes == 0 {
		result.MaxDocumentBytes = defaults.MaxDocumentBytes
	}
	if len(result.SearchBackends) == 0 {
		result.SearchBackends = append([]string(nil), defaults.SearchBackends...)
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv fills credentials that are still empty from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if c.APIKey == "" {
		c.APIKey = getenv(EnvGeminiAPIKey)
	}
	if c.SearchAPIKey == "" {
		c.SearchAPIKey = getenv(EnvSearchAPIKey)
	}
	if c.SearchCX == "" {
		c.SearchCX = getenv(EnvSearchCX)
	}
}

// HasCustomSearch reports whether Custom Search credentials are present.
func (c *Config) HasCustomSearch() bool {
	return c.SearchAPIKey != "" && c.SearchCX != ""
}

// UsesBackend reports whether name is among the configured search backends.
func (c *Config) UsesBackend(name string) bool {
	for _, b := range c.SearchBackends {
		if b == name {
			return true
		}
	}
	return false
}

// RetryBaseDelayDuration returns the parsed retry base delay, or 0 if unset.
func (c *Config) RetryBaseDelayDuration() time.Duration {
	return parseDuration(c.RetryBaseDelay)
}

// DeadlineDuration returns the parsed batch deadline, or 0 for none.
func (c *Config) DeadlineDuration() time.Duration {
	return parseDuration(c.Deadline)
}

// FetchTimeoutDuration returns the parsed page fetch timeout, or 0 if unset.
func (c *Config) FetchTimeoutDuration() time.Duration {
	return parseDuration(c.FetchTimeout)
}

// parseDuration assumes Validate has already accepted s.
func parseDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
