package config

// Config represents the complete configuration structure
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// APIConfig holds APCloudy API connection details
type APIConfig struct {
	Key string `mapstructure:"key"`
	// BaseURL overrides the production endpoint, mainly for testing.
	BaseURL string `mapstructure:"base_url"`
	// Timeout is the per-attempt request timeout in seconds.
	Timeout int `mapstructure:"timeout"`
	// MaxRetries is the retry budget for transient failures.
	MaxRetries int `mapstructure:"max_retries"`
	// RateLimit is the client-side budget in requests per minute.
	RateLimit int `mapstructure:"rate_limit"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
