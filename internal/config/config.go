package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	TypingTTL            time.Duration `mapstructure:"typing_ttl" yaml:"typing_ttl"`
	EventBuffer          int           `mapstructure:"event_buffer" yaml:"event_buffer"`
	HistoryLimit         int           `mapstructure:"history_limit" yaml:"history_limit"`
	OfflineNotifications bool          `mapstructure:"offline_notifications" yaml:"offline_notifications"`

	// MessagesPerMinute caps inbound messages per connection. Zero disables the cap.
	MessagesPerMinute int `mapstructure:"messages_per_minute" yaml:"messages_per_minute"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,

		DatabasePath: "roomcast.db",
		LogLevel:     "info",

		JWTSecret:   "change-me",
		JWTIssuer:   "roomcast",
		JWTAudience: "roomcast-clients",
		JWTTTL:      24 * time.Hour,

		TypingTTL:            3 * time.Second,
		EventBuffer:          16,
		HistoryLimit:         50,
		OfflineNotifications: true,

		MessagesPerMinute: 120,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.JWTSecret != "" {
		c.JWTSecret = other.JWTSecret
	}
	if other.TypingTTL != 0 {
		c.TypingTTL = other.TypingTTL
	}
	if other.EventBuffer != 0 {
		c.EventBuffer = other.EventBuffer
	}
	if other.HistoryLimit != 0 {
		c.HistoryLimit = other.HistoryLimit
	}
}
