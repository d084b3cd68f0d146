package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/foodgram/internal/shortcode"
)

const testSecret = "0123456789abcdef0123"

// isolate points config discovery at an empty temp dir so stray files in the
// package directory do not leak into tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	t.Setenv(ConfigPathEnvVar, "")
	return dir
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.ShortCode.Length != shortcode.DefaultLength {
		t.Errorf("ShortCode.Length = %d, want %d", cfg.ShortCode.Length, shortcode.DefaultLength)
	}
	if cfg.ShortCode.MaxAttempts != shortcode.DefaultMaxAttempts {
		t.Errorf("ShortCode.MaxAttempts = %d, want %d", cfg.ShortCode.MaxAttempts, shortcode.DefaultMaxAttempts)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.JWTSecret != "" {
		t.Error("Auth.JWTSecret should have no default")
	}
}

func TestLoad_RequiresSecret(t *testing.T) {
	isolate(t)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail without a JWT secret")
	}
	if !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("error should name jwt_secret, got %v", err)
	}
}

func TestLoad_PublicURLUnset(t *testing.T) {
	isolate(t)
	t.Setenv("FOODGRAM_JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := cfg.PublicURL(); got != "" {
		t.Errorf("PublicURL() = %q, want empty so links follow the request host", got)
	}
}

func TestLoadDatabase(t *testing.T) {
	isolate(t)

	db, err := LoadDatabase()
	if err != nil {
		t.Fatalf("LoadDatabase() without a JWT secret: %v", err)
	}
	if db.Path != "./data/foodgram.db" {
		t.Errorf("Path = %q, want default", db.Path)
	}

	t.Setenv("FOODGRAM_DB_PATH", "/tmp/seed.db")
	db, err = LoadDatabase()
	if err != nil {
		t.Fatalf("LoadDatabase() error = %v", err)
	}
	if db.Path != "/tmp/seed.db" {
		t.Errorf("Path = %q, want /tmp/seed.db", db.Path)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("FOODGRAM_JWT_SECRET", testSecret)
	t.Setenv("FOODGRAM_PORT", "9090")
	t.Setenv("FOODGRAM_TOKEN_TTL", "2h")
	t.Setenv("FOODGRAM_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("FOODGRAM_SHORTCODE_LENGTH", "8")
	t.Setenv("FOODGRAM_LOG_FORMAT", "json")
	t.Setenv("UNRELATED_PORT", "1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want 2h", cfg.Auth.TokenTTL)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.Server.CORSOrigins, want) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	if cfg.ShortCode.Length != 8 {
		t.Errorf("ShortCode.Length = %d, want 8", cfg.ShortCode.Length)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
}

func TestLoad_File(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	content := `
server:
  public_url: https://foodgram.example/
  cors_origins:
    - https://foodgram.example
auth:
  jwt_secret: ` + testSecret + `
shopping:
  header: "To buy:"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("FOODGRAM_SHOPPING_HEADER", "Groceries:")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got := cfg.PublicURL(); got != "https://foodgram.example" {
		t.Errorf("PublicURL() = %q", got)
	}
	if len(cfg.Server.CORSOrigins) != 1 || cfg.Server.CORSOrigins[0] != "https://foodgram.example" {
		t.Errorf("CORSOrigins = %v", cfg.Server.CORSOrigins)
	}
	if cfg.Shopping.Header != "Groceries:" {
		t.Errorf("env should win over file, got header %q", cfg.Shopping.Header)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults with secret", func(c *Config) {}, false},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"duplicate alphabet", func(c *Config) { c.ShortCode.Alphabet = "aab" }, true},
		{"zero attempts", func(c *Config) { c.ShortCode.MaxAttempts = 0 }, true},
		{"empty public url derives from requests", func(c *Config) { c.Server.PublicURL = "" }, false},
		{"malformed public url", func(c *Config) { c.Server.PublicURL = "not a url" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Auth.JWTSecret = testSecret
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
