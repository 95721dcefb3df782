package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradelock/risk"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.NotNil(t, cfg)
	assert.Equal(t, "sqlite", cfg.Store.Type)
	assert.Equal(t, 2, cfg.Discipline.MaxLossesPerDay)
	assert.Equal(t, risk.DefaultPledge, cfg.Discipline.Pledge)
	assert.Equal(t, "127.0.0.1:8420", cfg.Addr())
	assert.NoError(t, cfg.Validate())

	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, risk.DefaultPolicy(), p)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "unknown store",
			mutate:  func(c *Config) { c.Store.Type = "csv" },
			wantErr: true,
			errMsg:  "store.type must be",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Store.Path = "" },
			wantErr: true,
			errMsg:  "store.path required",
		},
		{
			name:    "redis without address",
			mutate:  func(c *Config) { c.Store.Type = "redis" },
			wantErr: true,
			errMsg:  "store.redis_addr required",
		},
		{
			name:   "memory store",
			mutate: func(c *Config) { c.Store.Type = "memory"; c.Store.Path = "" },
		},
		{
			name:    "zero loss limit",
			mutate:  func(c *Config) { c.Discipline.MaxLossesPerDay = 0 },
			wantErr: true,
			errMsg:  "max losses per day",
		},
		{
			name:    "padded pledge",
			mutate:  func(c *Config) { c.Discipline.Pledge = " promise " },
			wantErr: true,
			errMsg:  "whitespace",
		},
		{
			name:    "bad sweep interval",
			mutate:  func(c *Config) { c.Discipline.SweepInterval = "soon" },
			wantErr: true,
			errMsg:  "sweep_interval",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.AI.Provider = "oracle" },
			wantErr: true,
			errMsg:  "ai.provider must be",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.AI.Timeout = "-1s" },
			wantErr: true,
			errMsg:  "ai.timeout",
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
			errMsg:  "server.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		ext  string
	}{
		{"json format", ".json"},
		{"yaml format", ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Discipline.MaxLossesPerDay = 3
			cfg.AI.Provider = "gemini"
			path := filepath.Join(tmpDir, "test"+tt.ext)

			// Save
			err := cfg.SaveToFile(path)
			require.NoError(t, err)

			// Verify file exists
			_, err = os.Stat(path)
			require.NoError(t, err)

			// Load
			loaded, err := LoadFromFile(path)
			require.NoError(t, err)

			// Compare
			assert.Equal(t, cfg, loaded)
		})
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte("discipline:\n  max_losses_per_day: 1\n"), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Discipline.MaxLossesPerDay)
	assert.Equal(t, risk.DefaultPledge, cfg.Discipline.Pledge)
	assert.Equal(t, 8420, cfg.Server.Port)
}

func TestLoadInvalidFile(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path.yaml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TRADELOCK_STORE_TYPE", "memory")
	t.Setenv("TRADELOCK_MAX_LOSSES_PER_DAY", "4")
	t.Setenv("TRADELOCK_PORT", "9000")
	t.Setenv("TRADELOCK_LOG_PRETTY", "false")
	t.Setenv("MY_KEY", "  sk-or-abcdefghijk ")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Store.Type)
	assert.Equal(t, 4, cfg.Discipline.MaxLossesPerDay)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.False(t, cfg.Log.Pretty)

	cfg.AI.APIKeyEnv = "MY_KEY"
	assert.Equal(t, "sk-or-abcdefghijk", cfg.APIKey())
}

func TestDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TRADELOCK_SWEEP_INTERVAL=5s\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("TRADELOCK_SWEEP_INTERVAL") })

	cfg, err := Load("")
	require.NoError(t, err)
	p, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, p.SweepInterval)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		delay    string
		expected string
		wantErr  bool
	}{
		{"1h", "1h0m0s", false},
		{"30m", "30m0s", false},
		{"300ms", "300ms", false},
		{"", "0s", false},
		{"invalid", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.delay, func(t *testing.T) {
			d, err := parseDuration(tt.delay)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, d.String())
			}
		})
	}
}
