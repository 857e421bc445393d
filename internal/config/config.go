// ABOUTME: Configuration loading and parsing for easyshop-api
// ABOUTME: Supports YAML/TOML files with ${VAR} expansion, .env files, and env overrides

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DevLLMAPIKey is used when no aggregation API key is configured.
// It only works against development deployments of the aggregation API.
const DevLLMAPIKey = "sk-emergent-development"

// Config represents the complete easyshop-api configuration
type Config struct {
	App      AppConfig      `yaml:"app" toml:"app"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Identity IdentityConfig `yaml:"identity" toml:"identity"`
	LLM      LLMConfig      `yaml:"llm" toml:"llm"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name  string `yaml:"name" toml:"name"`
	Debug bool   `yaml:"debug" toml:"debug"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
}

// DatabaseConfig holds the document database connection settings.
// URL selects the backend: mongodb:// and postgres:// URLs, or a SQLite file path.
type DatabaseConfig struct {
	URL  string `yaml:"url" toml:"url"`
	Name string `yaml:"name" toml:"name"` // MongoDB database name
}

// IdentityConfig holds the external identity provider settings.
// Only JWTSecret and Audience take part in request verification.
type IdentityConfig struct {
	URL       string `yaml:"url" toml:"url"`
	Key       string `yaml:"key" toml:"key"`
	JWTSecret string `yaml:"jwt_secret" toml:"jwt_secret"`
	Audience  string `yaml:"audience" toml:"audience"`
}

// ModelConfig names one upstream model.
type ModelConfig struct {
	Provider string `yaml:"provider" toml:"provider"`
	Name     string `yaml:"name" toml:"name"`
}

// LLMConfig holds the LLM aggregation API settings
type LLMConfig struct {
	APIKey   string      `yaml:"api_key" toml:"api_key"`
	BaseURL  string      `yaml:"base_url" toml:"base_url"`
	Primary  ModelConfig `yaml:"primary" toml:"primary"`
	Fallback ModelConfig `yaml:"fallback" toml:"fallback"`

	Timeout    time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw string        `yaml:"timeout" toml:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns a Config populated with built-in defaults.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:  "EasyShop Africa API",
			Debug: true,
		},
		Server: ServerConfig{
			HTTPAddr: "0.0.0.0:8000",
		},
		Database: DatabaseConfig{
			URL:  "easyshop.db",
			Name: "easyshop",
		},
		Identity: IdentityConfig{
			Audience: "authenticated",
		},
		LLM: LLMConfig{
			APIKey:   DevLLMAPIKey,
			BaseURL:  "https://integrations.emergentagent.com/llm",
			Primary:  ModelConfig{Provider: "openai", Name: "gpt-5"},
			Fallback: ModelConfig{Provider: "anthropic", Name: "claude-sonnet-4-20250514"},
			Timeout:  2 * time.Minute,
		},
	}
}

// Load builds the configuration from defaults, an optional config file, and the
// environment, in that order of precedence (environment wins).
// An empty path skips the file. The file format is picked from its extension.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg, os.LookupEnv)

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
		if cfg.App.Debug {
			cfg.Logging.Level = "debug"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment without overriding variables that are already set.
// Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	expanded := expandEnvVars(string(data))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(expanded, cfg); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return fmt.Errorf("parsing config file: %w", err)
		}
	}
	return nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnv overlays recognized environment variables onto cfg.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				*dst = v
				return
			}
		}
	}

	str(&cfg.App.Name, "APP_NAME")
	str(&cfg.Server.HTTPAddr, "HTTP_ADDR")
	str(&cfg.Database.URL, "DATABASE_URL", "MONGO_URL")
	str(&cfg.Database.Name, "DATABASE_NAME")
	str(&cfg.Identity.URL, "SUPABASE_URL")
	str(&cfg.Identity.Key, "SUPABASE_KEY")
	str(&cfg.Identity.JWTSecret, "SUPABASE_JWT_SECRET")
	str(&cfg.LLM.APIKey, "EMERGENT_LLM_KEY")
	str(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	str(&cfg.LLM.TimeoutRaw, "LLM_TIMEOUT")
	str(&cfg.Logging.Level, "LOG_LEVEL")
	str(&cfg.Logging.Format, "LOG_FORMAT")

	if v, ok := lookup("DEBUG"); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.App.Debug = b
		}
	}
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Identity.JWTSecret == "" {
		return fmt.Errorf("identity.jwt_secret is required")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	if c.LLM.Primary.Name == "" && c.LLM.Fallback.Name == "" {
		return fmt.Errorf("llm.primary or llm.fallback must name a model")
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm.timeout must not be negative")
	}
	return nil
}

// UsesDevLLMKey reports whether the built-in development API key is in effect.
func (c *Config) UsesDevLLMKey() bool {
	return c.LLM.APIKey == DevLLMAPIKey
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.LLM.TimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.LLM.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing llm.timeout %q: %w", cfg.LLM.TimeoutRaw, err)
		}
		cfg.LLM.Timeout = d
	}
	return nil
}
