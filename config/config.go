package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Load resolves the configuration in precedence order: defaults, then an
// optional config file, then APCLOUDY_* environment variables. The library
// itself never reads the environment; this is the one place that does.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Environment variables take precedence over the file.
	v.SetEnvPrefix("APCLOUDY")
	_ = v.BindEnv("api.key", "APCLOUDY_API_KEY")
	_ = v.BindEnv("api.base_url", "APCLOUDY_BASE_URL")

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
			v.AddConfigPath(filepath.Join(home, ".apcloudy"))
		}

		// Check /etc
		v.AddConfigPath("/etc/apcloudy/")
	}

	// The config file is optional as long as the API key comes from the
	// environment.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
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

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.base_url", "https://api.apcloudy.com")
	v.SetDefault("api.timeout", 30)
	v.SetDefault("api.max_retries", 3)
	v.SetDefault("api.rate_limit", 100)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	if cfg.API.Key == "" {
		return fmt.Errorf("api.key must be set (or export APCLOUDY_API_KEY)")
	}

	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}

	if cfg.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %d", cfg.API.Timeout)
	}

	if cfg.API.MaxRetries < 0 {
		return fmt.Errorf("api.max_retries must not be negative, got %d", cfg.API.MaxRetries)
	}

	if cfg.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit must not be negative, got %d", cfg.API.RateLimit)
	}

	// Validate logging level
	validLevels := map[string]bool{
		"trace": true,
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
