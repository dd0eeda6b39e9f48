package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const placeholderAPIKey = "your-api-key-here"

// envBindings maps config keys to the environment variables that override them.
var envBindings = map[string]string{
	"discourse.url":              "DISCOURSE_URL",
	"discourse.application_name": "DISCOURSE_APPLICATION_NAME",
	"discourse.api_key":          "DISCOURSE_API_KEY",
	"discourse.api_username":     "DISCOURSE_API_USERNAME",
}

// Load loads the configuration from file. Without an explicit path a missing
// config file is not an error, so the environment alone can configure the tool.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Check current directory first
		v.AddConfigPath(".")

		// Check home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".discoursectl"))
		}

		// Check /etc
		v.AddConfigPath("/etc/discoursectl/")
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration made of the default values only.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Defaults always decode
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Save writes cfg as YAML to path, creating the directory if needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.Set("discourse.url", cfg.Discourse.URL)
	v.Set("discourse.application_name", cfg.Discourse.ApplicationName)
	v.Set("discourse.api_key", cfg.Discourse.APIKey)
	v.Set("discourse.api_username", cfg.Discourse.APIUsername)
	v.Set("discourse.log_request", cfg.Discourse.LogRequest)
	v.Set("discourse.log_result", cfg.Discourse.LogResult)
	v.Set("discourse.delay_between_calls", cfg.Discourse.DelayBetweenCalls.String())
	v.Set("discourse.timeout", cfg.Discourse.Timeout.String())
	for name, expression := range cfg.Filter {
		v.Set("filter."+name, expression)
	}
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("logging.format", cfg.Logging.Format)
	v.Set("logging.color", cfg.Logging.Color)
	v.Set("update.repository", cfg.Update.Repository)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	// The file holds the API key
	return os.Chmod(path, 0o600)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Discourse defaults
	v.SetDefault("discourse.url", "")
	v.SetDefault("discourse.application_name", "discoursectl")
	v.SetDefault("discourse.api_key", "")
	v.SetDefault("discourse.api_username", "system")
	v.SetDefault("discourse.log_request", 0)
	v.SetDefault("discourse.log_result", 0)
	v.SetDefault("discourse.delay_between_calls", "0s")
	v.SetDefault("discourse.timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)

	// Update defaults
	v.SetDefault("update.repository", "s0up4200/discoursectl")
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.Discourse.URL == "" {
		return fmt.Errorf("discourse.url is required (or set DISCOURSE_URL)")
	}
	if !strings.HasPrefix(cfg.Discourse.URL, "http://") && !strings.HasPrefix(cfg.Discourse.URL, "https://") {
		return fmt.Errorf("discourse.url must start with http:// or https://: %s", cfg.Discourse.URL)
	}

	if cfg.Discourse.APIKey == placeholderAPIKey {
		return fmt.Errorf("discourse.api_key must be set to a valid API key")
	}

	if cfg.Discourse.LogRequest < 0 || cfg.Discourse.LogRequest > 2 {
		return fmt.Errorf("invalid discourse.log_request: %d (must be 0, 1 or 2)", cfg.Discourse.LogRequest)
	}
	if cfg.Discourse.LogResult < 0 || cfg.Discourse.LogResult > 2 {
		return fmt.Errorf("invalid discourse.log_result: %d (must be 0, 1 or 2)", cfg.Discourse.LogResult)
	}
	if cfg.Discourse.DelayBetweenCalls < 0 {
		return fmt.Errorf("discourse.delay_between_calls cannot be negative")
	}
	if cfg.Discourse.Timeout <= 0 {
		return fmt.Errorf("discourse.timeout must be positive")
	}

	// Validate logging level
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	// Validate logging format
	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
