package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "http://127.0.0.1:8888", cfg.Remote.BaseURL)
	assert.Equal(t, 30, cfg.Remote.TimeoutSeconds)

	assert.Equal(t, "./notebooks", cfg.Library.Root)
	assert.Equal(t, "**/*.ipynb", cfg.Library.Pattern)

	assert.False(t, cfg.Auth.Enabled)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)

	assert.Equal(t, 100, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 200, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadOrDefault(t *testing.T) {
	cfg := LoadOrDefault()

	assert.NotNil(t, cfg)
	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"ORRERY_PORT":           "9000",
		"ORRERY_HOST":           "127.0.0.1",
		"ORRERY_REMOTE_URL":     "http://jupyter:8888",
		"ORRERY_REMOTE_TOKEN":   "secret",
		"ORRERY_REMOTE_TIMEOUT": "60",
		"ORRERY_LIBRARY_ROOT":   "/data/notebooks",
		"ORRERY_LOG_LEVEL":      "debug",
		"ORRERY_LOG_DEV":        "true",
		"ORRERY_RATE_LIMIT_RPS": "500",
	}

	for key, value := range envVars {
		require.NoError(t, os.Setenv(key, value))
		defer os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "http://jupyter:8888", cfg.Remote.BaseURL)
	assert.Equal(t, "secret", cfg.Remote.Token)
	assert.Equal(t, 60, cfg.Remote.TimeoutSeconds)
	assert.Equal(t, "/data/notebooks", cfg.Library.Root)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
}

func TestLoadWithPartialEnvironmentVariables(t *testing.T) {
	require.NoError(t, os.Setenv("ORRERY_PORT", "3000"))
	defer os.Unsetenv("ORRERY_PORT")

	require.NoError(t, os.Setenv("ORRERY_LOG_LEVEL", "warn"))
	defer os.Unsetenv("ORRERY_LOG_LEVEL")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Defaults still apply for everything else
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "http://127.0.0.1:8888", cfg.Remote.BaseURL)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "default is valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty port",
			mutate:  func(c *Config) { c.Server.Port = "" },
			wantErr: "port",
		},
		{
			name:    "non-positive timeout",
			mutate:  func(c *Config) { c.Remote.TimeoutSeconds = 0 },
			wantErr: "timeout",
		},
		{
			name:    "empty library root",
			mutate:  func(c *Config) { c.Library.Root = "" },
			wantErr: "library root",
		},
		{
			name:    "auth without hash",
			mutate:  func(c *Config) { c.Auth.Enabled = true },
			wantErr: "token hash",
		},
		{
			name: "bad rate limit",
			mutate: func(c *Config) {
				c.RateLimit.RequestsPerSecond = 0
			},
			wantErr: "rps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadProfiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profiles.toml")

	content := `
[profiles.local]
base_url = "http://127.0.0.1:8888"

[profiles.lab]
base_url = "https://lab.example.com"
token = "tok-123"
timeout_seconds = 60
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	profiles, err := LoadProfiles(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"lab", "local"}, profiles.Names())

	lab, ok := profiles.Get("lab")
	require.True(t, ok)
	assert.Equal(t, "https://lab.example.com", lab.BaseURL)
	assert.Equal(t, "tok-123", lab.Token)
	assert.Equal(t, 60, lab.TimeoutSeconds)

	_, ok = profiles.Get("missing")
	assert.False(t, ok)
}

func TestLoadProfilesMissingFile(t *testing.T) {
	profiles, err := LoadProfiles(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Empty(t, profiles.Names())

	profiles, err = LoadProfiles("")
	require.NoError(t, err)
	assert.Empty(t, profiles.Names())
}

func TestProfileRemoteOverlay(t *testing.T) {
	base := RemoteConfig{
		BaseURL:        "http://127.0.0.1:8888",
		Token:          "env-token",
		TimeoutSeconds: 30,
	}

	full := Profile{BaseURL: "https://lab", Token: "lab-token", TimeoutSeconds: 90}.Remote(base)
	assert.Equal(t, "https://lab", full.BaseURL)
	assert.Equal(t, "lab-token", full.Token)
	assert.Equal(t, 90, full.TimeoutSeconds)

	partial := Profile{BaseURL: "https://lab"}.Remote(base)
	assert.Equal(t, "https://lab", partial.BaseURL)
	assert.Equal(t, "env-token", partial.Token)
	assert.Equal(t, 30, partial.TimeoutSeconds)
}
