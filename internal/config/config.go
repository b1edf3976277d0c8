package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/linkguard/")
	v.AddConfigPath("$HOME/.linkguard")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("LINKGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// HTTP server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.test_hooks", false)

	// Auth defaults (override the secrets outside local dev)
	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth.jwt_expiry", "8h")
	v.SetDefault("auth.api_key_pepper", "dev-pepper-change-me")
	v.SetDefault("auth.bootstrap_admin_email", "")
	v.SetDefault("auth.bootstrap_admin_password", "")

	// Rate limit defaults
	v.SetDefault("rate_limit.max_requests", 30)
	v.SetDefault("rate_limit.window", "60s")

	// Storage defaults
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "/data/linkguard.db")
	v.SetDefault("storage.mysql_dsn", "user:password@tcp(localhost:3306)/linkguard?parseTime=true")
	v.SetDefault("storage.retention", "2160h")

	// SMTP gateway defaults
	v.SetDefault("gateway.enabled", false)
	v.SetDefault("gateway.listen_address", "0.0.0.0:10025")
	v.SetDefault("gateway.upstream_address", "127.0.0.1")
	v.SetDefault("gateway.upstream_port", 10026)
	v.SetDefault("gateway.relay_enabled", true)
	v.SetDefault("gateway.block_dangerous", false)
	v.SetDefault("gateway.category_header", "X-LinkGuard-Category")
	v.SetDefault("gateway.score_header", "X-LinkGuard-Score")
	v.SetDefault("gateway.reason_header", "X-LinkGuard-Reason")
	v.SetDefault("gateway.max_links", 20)
	v.SetDefault("gateway.trusted_domains", []string{})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	d := c.v.GetDuration(key)
	if d == 0 && c.v.GetString(key) != "0" && c.v.GetString(key) != "0s" {
		return 0, fmt.Errorf("invalid duration for %s: %q", key, c.v.GetString(key))
	}
	return d, nil
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
