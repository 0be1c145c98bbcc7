package main

import (
	"fmt"
	"os"

	"github.com/jonathan/resume-auditor/internal/config"
	"github.com/spf13/cobra"
)

// loadSettings resolves the effective configuration: config file, then flags
// that were explicitly set, then defaults, then environment credentials.
func loadSettings(cmd *cobra.Command, overrides func(cfg *config.Config)) (config.Config, error) {
	var cfg config.Config
	if rootConfigPath != "" {
		loaded, err := config.LoadConfig(rootConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return cfg, err
		}
		cfg = *loaded
		if rootVerbose {
			_, _ = fmt.Fprintf(os.Stderr, "Loaded config from: %s\n", rootConfigPath)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("api-key") {
		cfg.APIKey = rootAPIKey
	}
	if flags.Changed("tier") {
		cfg.Tier = rootTier
	}
	if flags.Changed("use-browser") {
		cfg.UseBrowser = rootUseBrowser
	}
	if flags.Changed("verbose") {
		cfg.Verbose = rootVerbose
	}
	if overrides != nil {
		overrides(&cfg)
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	cfg.ApplyEnv(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// requireAPIKey is checked only by commands that talk to the model.
func requireAPIKey(cfg config.Config) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("%s environment variable or --api-key flag is required", config.EnvGeminiAPIKey)
	}
	return nil
}
