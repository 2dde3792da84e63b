package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Environment string         `mapstructure:"environment"`
	Server      ServerConfig   `mapstructure:"server"`
	Upstream    UpstreamConfig `mapstructure:"upstream"`
	Session     SessionConfig  `mapstructure:"session"`
	Auth        AuthConfig     `mapstructure:"auth"`
	Live        LiveConfig     `mapstructure:"live"`
	Logging     LoggingConfig  `mapstructure:"logging"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
	CORS        CORSConfig     `mapstructure:"cors"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port           int `mapstructure:"port"`
	ReadTimeout    int `mapstructure:"read_timeout"`
	WriteTimeout   int `mapstructure:"write_timeout"`
	IdleTimeout    int `mapstructure:"idle_timeout"`
	MaxHeaderBytes int `mapstructure:"max_header_bytes"`
}

// UpstreamConfig points at the threat intelligence API
type UpstreamConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// SessionConfig selects and tunes the session persistence backend
type SessionConfig struct {
	// Backend is one of "file", "redis" or "memory".
	Backend string             `mapstructure:"backend"`
	File    FileSessionConfig  `mapstructure:"file"`
	Redis   RedisSessionConfig `mapstructure:"redis"`
}

// FileSessionConfig contains file backend settings
type FileSessionConfig struct {
	Path string `mapstructure:"path"`
}

// RedisSessionConfig contains Redis backend settings
type RedisSessionConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	Database     int    `mapstructure:"database"`
	DialTimeout  int    `mapstructure:"dial_timeout"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// Addr returns the host:port pair for the Redis client.
func (r RedisSessionConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// AuthConfig contains settings for locally issued tokens
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	JWTExpiry int    `mapstructure:"jwt_expiry"`
	Issuer    string `mapstructure:"issuer"`
}

// TokenDuration returns the configured expiry as a duration.
func (a AuthConfig) TokenDuration() time.Duration {
	return time.Duration(a.JWTExpiry) * time.Second
}

// LiveConfig tunes the real-time statistics loop
type LiveConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	TickInterval     int  `mapstructure:"tick_interval_ms"`
	CounterDuration  int  `mapstructure:"counter_duration_ms"`
	JitterInterval   int  `mapstructure:"jitter_interval_ms"`
	JitterMin        int  `mapstructure:"jitter_min"`
	JitterMax        int  `mapstructure:"jitter_max"`
	PulsePeriod      int  `mapstructure:"pulse_period_ms"`
	PulseStep        int  `mapstructure:"pulse_step_ms"`
	BroadcastEvery   int  `mapstructure:"broadcast_every"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig contains metrics and monitoring configuration
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// CORSConfig contains cross-origin settings for the browser frontend
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("THREATVIEW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; defaults and env vars still apply.
		if !os.IsNotExist(err) {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	overrideWithEnvVars(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("upstream.base_url is required")
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.max_header_bytes", 1048576)

	// Session defaults
	v.SetDefault("session.backend", "file")
	v.SetDefault("session.file.path", "data/session.json")
	v.SetDefault("session.redis.host", "localhost")
	v.SetDefault("session.redis.port", 6379)
	v.SetDefault("session.redis.database", 0)
	v.SetDefault("session.redis.dial_timeout", 5)
	v.SetDefault("session.redis.read_timeout", 3)
	v.SetDefault("session.redis.write_timeout", 3)

	// Auth defaults
	v.SetDefault("auth.jwt_expiry", 86400)
	v.SetDefault("auth.issuer", "threatview")

	// Live statistics defaults
	v.SetDefault("live.enabled", true)
	v.SetDefault("live.tick_interval_ms", 50)
	v.SetDefault("live.counter_duration_ms", 2000)
	v.SetDefault("live.jitter_interval_ms", 3000)
	v.SetDefault("live.jitter_min", 1)
	v.SetDefault("live.jitter_max", 5)
	v.SetDefault("live.pulse_period_ms", 2000)
	v.SetDefault("live.pulse_step_ms", 100)
	v.SetDefault("live.broadcast_every", 2)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.endpoint", "/metrics")

	// CORS defaults
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:5173"})
}

// overrideWithEnvVars overrides configuration with environment variables
func overrideWithEnvVars(v *viper.Viper) {
	if baseURL := os.Getenv("UPSTREAM_BASE_URL"); baseURL != "" {
		v.Set("upstream.base_url", baseURL)
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		v.Set("session.redis.host", host)
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		v.Set("session.redis.port", port)
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		v.Set("session.redis.password", password)
	}

	if jwtSecret := os.Getenv("JWT_SECRET"); jwtSecret != "" {
		v.Set("auth.jwt_secret", jwtSecret)
	}
}
