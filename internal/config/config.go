package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	AdminUsername string `mapstructure:"admin_username" yaml:"admin_username"`
	AdminPassword string `mapstructure:"admin_password" yaml:"admin_password"`

	GeoLookup        bool          `mapstructure:"geo_lookup" yaml:"geo_lookup"`
	GeoBaseURL       string        `mapstructure:"geo_base_url" yaml:"geo_base_url"`
	GeoLookupTimeout time.Duration `mapstructure:"geo_lookup_timeout" yaml:"geo_lookup_timeout"`

	// ChatRateLimit caps chat frames per connection per minute; 0 disables.
	ChatRateLimit int `mapstructure:"chat_rate_limit" yaml:"chat_rate_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "vantage.db",
		LogLevel:          "info",
		JWTSecret:         "change-me",
		JWTIssuer:         "vantage",
		JWTAudience:       "vantage",
		AdminUsername:     "admin",
		AdminPassword:     "admin123",
		GeoLookup:         true,
		GeoBaseURL:        "https://ipapi.co",
		GeoLookupTimeout:  5 * time.Second,
		ChatRateLimit:     0,
	}
}
