package config

import "time"

// ServerConfig represents the configuration for the HTTP API server
type ServerConfig struct {
	ListenAddress      string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
	TestHooks          bool
}

// AuthConfig represents the configuration for authentication
type AuthConfig struct {
	JWTSecret              string
	JWTExpiry              time.Duration
	APIKeyPepper           string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// RateLimitConfig represents the per-API-key rate limit
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
}

// StorageConfig represents the configuration for the persistence layer
type StorageConfig struct {
	Driver     string
	SQLitePath string
	MySQLDSN   string
	Retention  time.Duration
}

// GatewayConfig represents the configuration for the SMTP gateway
type GatewayConfig struct {
	Enabled         bool
	ListenAddress   string
	UpstreamAddress string
	UpstreamPort    int
	RelayEnabled    bool
	BlockDangerous  bool
	CategoryHeader  string
	ScoreHeader     string
	ReasonHeader    string
	MaxLinks        int
	TrustedDomains  []string
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress:      c.GetString("server.listen_address"),
		ReadTimeout:        c.v.GetDuration("server.read_timeout"),
		WriteTimeout:       c.v.GetDuration("server.write_timeout"),
		ShutdownTimeout:    c.v.GetDuration("server.shutdown_timeout"),
		CORSAllowedOrigins: c.GetStringSlice("server.cors_allowed_origins"),
		TestHooks:          c.GetBool("server.test_hooks"),
	}
}

// GetAuth returns the authentication configuration
func (c *Config) GetAuth() AuthConfig {
	return AuthConfig{
		JWTSecret:              c.GetString("auth.jwt_secret"),
		JWTExpiry:              c.v.GetDuration("auth.jwt_expiry"),
		APIKeyPepper:           c.GetString("auth.api_key_pepper"),
		BootstrapAdminEmail:    c.GetString("auth.bootstrap_admin_email"),
		BootstrapAdminPassword: c.GetString("auth.bootstrap_admin_password"),
	}
}

// GetRateLimit returns the rate limit configuration
func (c *Config) GetRateLimit() RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: c.GetInt("rate_limit.max_requests"),
		Window:      c.v.GetDuration("rate_limit.window"),
	}
}

// GetStorage returns the storage configuration
func (c *Config) GetStorage() StorageConfig {
	return StorageConfig{
		Driver:     c.GetString("storage.driver"),
		SQLitePath: c.GetString("storage.sqlite_path"),
		MySQLDSN:   c.GetString("storage.mysql_dsn"),
		Retention:  c.v.GetDuration("storage.retention"),
	}
}

// GetGateway returns the SMTP gateway configuration
func (c *Config) GetGateway() GatewayConfig {
	return GatewayConfig{
		Enabled:         c.GetBool("gateway.enabled"),
		ListenAddress:   c.GetString("gateway.listen_address"),
		UpstreamAddress: c.GetString("gateway.upstream_address"),
		UpstreamPort:    c.GetInt("gateway.upstream_port"),
		RelayEnabled:    c.GetBool("gateway.relay_enabled"),
		BlockDangerous:  c.GetBool("gateway.block_dangerous"),
		CategoryHeader:  c.GetString("gateway.category_header"),
		ScoreHeader:     c.GetString("gateway.score_header"),
		ReasonHeader:    c.GetString("gateway.reason_header"),
		MaxLinks:        c.GetInt("gateway.max_links"),
		TrustedDomains:  c.GetStringSlice("gateway.trusted_domains"),
	}
}
