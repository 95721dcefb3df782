package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/tradelock/risk"
	"github.com/rustyeddy/tradelock/store"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRADELOCK_"

// Config represents the complete application configuration
type Config struct {
	Store      StoreConfig      `json:"store" yaml:"store"`
	Discipline DisciplineConfig `json:"discipline" yaml:"discipline"`
	AI         AIConfig         `json:"ai" yaml:"ai"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

// StoreConfig selects where the journal is kept
type StoreConfig struct {
	Type      string `json:"type" yaml:"type"` // "sqlite", "redis" or "memory"
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`
	RedisDB   int    `json:"redis_db,omitempty" yaml:"redis_db,omitempty"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// DisciplineConfig contains the trading rules
type DisciplineConfig struct {
	MaxLossesPerDay int    `json:"max_losses_per_day" yaml:"max_losses_per_day"`
	Pledge          string `json:"pledge" yaml:"pledge"`
	SweepInterval   string `json:"sweep_interval" yaml:"sweep_interval"`     // e.g. "1m"
	LockAlertDelay  string `json:"lock_alert_delay" yaml:"lock_alert_delay"` // e.g. "300ms"
}

// AIConfig contains the AI collaborator settings
type AIConfig struct {
	Provider          string `json:"provider" yaml:"provider"` // "openrouter", "gemini" or "none"
	BaseURL           string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Model             string `json:"model,omitempty" yaml:"model,omitempty"`
	APIKeyEnv         string `json:"api_key_env" yaml:"api_key_env"`
	Timeout           string `json:"timeout" yaml:"timeout"`
	RequestsPerMinute int    `json:"requests_per_minute" yaml:"requests_per_minute"`
	Referer           string `json:"referer,omitempty" yaml:"referer,omitempty"`
	Title             string `json:"title,omitempty" yaml:"title,omitempty"`
}

// ServerConfig contains the local HTTP API address
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// LogConfig contains logging parameters
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Load reads path when it is set (Default otherwise), then applies .env and
// TRADELOCK_* overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := read(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	_ = godotenv.Load()
	cfg.loadFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a file (JSON or YAML based on extension)
func LoadFromFile(path string) (*Config, error) {
	cfg, err := read(path)
	if err != nil {
		return nil, err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func read(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Missing sections keep their defaults.
	cfg := Default()

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}
	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	// Determine format by extension
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}

	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func (c *Config) loadFromEnv() {
	str := func(name string, dst *string) {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			*dst = val
		}
	}
	num := func(name string, dst *int) {
		if val := os.Getenv(EnvPrefix + name); val != "" {
			if v, err := strconv.Atoi(val); err == nil {
				*dst = v
			}
		}
	}

	str("STORE_TYPE", &c.Store.Type)
	str("STORE_PATH", &c.Store.Path)
	str("REDIS_ADDR", &c.Store.RedisAddr)
	num("REDIS_DB", &c.Store.RedisDB)

	num("MAX_LOSSES_PER_DAY", &c.Discipline.MaxLossesPerDay)
	str("SWEEP_INTERVAL", &c.Discipline.SweepInterval)

	str("AI_PROVIDER", &c.AI.Provider)
	str("AI_MODEL", &c.AI.Model)
	str("AI_BASE_URL", &c.AI.BaseURL)
	str("AI_TIMEOUT", &c.AI.Timeout)

	str("HOST", &c.Server.Host)
	num("PORT", &c.Server.Port)

	str("LOG_LEVEL", &c.Log.Level)
	if val := os.Getenv(EnvPrefix + "LOG_PRETTY"); val != "" {
		if pretty, err := strconv.ParseBool(val); err == nil {
			c.Log.Pretty = pretty
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Store.Type {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path required for sqlite type")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("store.redis_addr required for redis type")
		}
	case "memory":
	default:
		return fmt.Errorf("store.type must be 'sqlite', 'redis' or 'memory'")
	}

	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("discipline: %w", err)
	}

	switch c.AI.Provider {
	case "openrouter", "gemini", "none":
	default:
		return fmt.Errorf("ai.provider must be 'openrouter', 'gemini' or 'none'")
	}
	if d, err := parseDuration(c.AI.Timeout); err != nil || d < 0 {
		return fmt.Errorf("ai.timeout must be a non-negative duration")
	}
	if c.AI.RequestsPerMinute < 0 {
		return fmt.Errorf("ai.requests_per_minute must not be negative")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	return nil
}

// Policy builds the discipline rules.
func (c *Config) Policy() (risk.Policy, error) {
	p := risk.Policy{
		MaxLossesPerDay: c.Discipline.MaxLossesPerDay,
		Pledge:          c.Discipline.Pledge,
	}
	var err error
	if p.SweepInterval, err = parseDuration(c.Discipline.SweepInterval); err != nil {
		return p, fmt.Errorf("sweep_interval: %w", err)
	}
	if p.LockAlertDelay, err = parseDuration(c.Discipline.LockAlertDelay); err != nil {
		return p, fmt.Errorf("lock_alert_delay: %w", err)
	}
	return p, p.Validate()
}

func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Type:      c.Store.Type,
		Path:      c.Store.Path,
		RedisAddr: c.Store.RedisAddr,
		RedisDB:   c.Store.RedisDB,
		Prefix:    c.Store.Prefix,
	}
}

// AITimeout is the per-request timeout; zero means the backend default.
func (c *Config) AITimeout() time.Duration {
	d, _ := parseDuration(c.AI.Timeout)
	return d
}

// APIKey reads the AI key from the variable named by ai.api_key_env.
func (c *Config) APIKey() string {
	if c.AI.APIKeyEnv == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(c.AI.APIKeyEnv))
}

func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Type:   "sqlite",
			Path:   "./tradelock.db",
			Prefix: store.DefaultPrefix,
		},
		Discipline: DisciplineConfig{
			MaxLossesPerDay: 2,
			Pledge:          risk.DefaultPledge,
			SweepInterval:   "1m",
			LockAlertDelay:  "300ms",
		},
		AI: AIConfig{
			Provider:          "openrouter",
			APIKeyEnv:         "OPENROUTER_API_KEY",
			Timeout:           "20s",
			RequestsPerMinute: 20,
			Title:             "Trading Journal",
		},
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8420,
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}
