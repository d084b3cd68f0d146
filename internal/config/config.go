// Package config loads server configuration from built-in defaults, an
// optional YAML file and FOODGRAM_* environment variables, in that order of
// precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/mmynk/foodgram/internal/shopping"
	"github.com/mmynk/foodgram/internal/shortcode"
	"github.com/mmynk/foodgram/internal/validation"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/foodgram/config.yaml",
}

// Config is the full server configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	ShortCode ShortCodeConfig `koanf:"shortcode"`
	Shopping  ShoppingConfig  `koanf:"shopping"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`
	// PublicURL prefixes short links and redirect targets. When empty the
	// base is taken from each request's Host and X-Forwarded-Proto.
	PublicURL       string        `koanf:"public_url" validate:"omitempty,url"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret" validate:"required,min=16"`
	TokenTTL  time.Duration `koanf:"token_ttl" validate:"gt=0"`
}

type RateLimitConfig struct {
	Disabled     bool          `koanf:"disabled"`
	AuthRequests int           `koanf:"auth_requests" validate:"min=1"`
	AuthWindow   time.Duration `koanf:"auth_window" validate:"gt=0"`
}

type ShortCodeConfig struct {
	Length      int    `koanf:"length" validate:"min=4,max=10"`
	Alphabet    string `koanf:"alphabet" validate:"required,min=2"`
	MaxAttempts int    `koanf:"max_attempts" validate:"min=1"`
}

type ShoppingConfig struct {
	Header string `koanf:"header"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			PublicURL:       "",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Path: "./data/foodgram.db",
		},
		Auth: AuthConfig{
			JWTSecret: "",
			TokenTTL:  24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Disabled:     false,
			AuthRequests: 10,
			AuthWindow:   time.Minute,
		},
		ShortCode: ShortCodeConfig{
			Length:      shortcode.DefaultLength,
			Alphabet:    shortcode.DefaultAlphabet,
			MaxAttempts: shortcode.DefaultMaxAttempts,
		},
		Shopping: ShoppingConfig{
			Header: shopping.DefaultHeader,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Defaults
//  2. Config file (optional)
//  3. Environment variables
func Load() (*Config, error) {
	k, err := loadKoanf()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadDatabase resolves only the database section through the same layers as
// Load. Tools that never serve HTTP use it so they need no JWT secret.
func LoadDatabase() (*DatabaseConfig, error) {
	k, err := loadKoanf()
	if err != nil {
		return nil, err
	}

	db := &DatabaseConfig{}
	if err := k.Unmarshal("database", db); err != nil {
		return nil, fmt.Errorf("failed to unmarshal database configuration: %w", err)
	}
	if err := validation.ValidateStruct(db); err != nil {
		return nil, fmt.Errorf("database configuration validation failed: %w", err)
	}
	return db, nil
}

func loadKoanf() (*koanf.Koanf, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	return k, nil
}

// Validate checks field constraints and cross-field rules.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if _, err := shortcode.New(
		shortcode.WithLength(c.ShortCode.Length),
		shortcode.WithAlphabet(c.ShortCode.Alphabet),
		shortcode.WithMaxAttempts(c.ShortCode.MaxAttempts),
	); err != nil {
		return fmt.Errorf("shortcode: %w", err)
	}
	return nil
}

// PublicURL returns the public base URL without a trailing slash.
func (c *Config) PublicURL() string {
	return strings.TrimRight(c.Server.PublicURL, "/")
}

// findConfigFile returns the first existing config file, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths lists config paths given as comma-separated env values.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variables (lowercased) to config paths.
var envMappings = map[string]string{
	"foodgram_host":             "server.host",
	"foodgram_port":             "server.port",
	"foodgram_public_url":       "server.public_url",
	"foodgram_read_timeout":     "server.read_timeout",
	"foodgram_write_timeout":    "server.write_timeout",
	"foodgram_shutdown_timeout": "server.shutdown_timeout",
	"foodgram_cors_origins":     "server.cors_origins",

	"foodgram_db_path": "database.path",

	"foodgram_jwt_secret": "auth.jwt_secret",
	"foodgram_token_ttl":  "auth.token_ttl",

	"foodgram_rate_limit_disabled":      "rate_limit.disabled",
	"foodgram_rate_limit_auth_requests": "rate_limit.auth_requests",
	"foodgram_rate_limit_auth_window":   "rate_limit.auth_window",

	"foodgram_shortcode_length":       "shortcode.length",
	"foodgram_shortcode_alphabet":     "shortcode.alphabet",
	"foodgram_shortcode_max_attempts": "shortcode.max_attempts",

	"foodgram_shopping_header": "shopping.header",

	"foodgram_log_level":  "logging.level",
	"foodgram_log_format": "logging.format",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Unmapped variables are skipped.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
