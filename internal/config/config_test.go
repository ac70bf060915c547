package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validTestConfig() *Config {
	return &Config{
		Backend: BackendConfig{
			Endpoint: "http://127.0.0.1:8000/analyze-resume-vs-job/",
			Timeout:  60 * time.Second,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: "8080",
			TLS:  TLSConfig{Mode: "disabled"},
		},
		Store: StoreConfig{
			Dir: "data",
		},
		Session: SessionConfig{
			CookieName: "resumelens_session",
		},
		App: AppConfig{
			LogLevel:         "info",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "text", "markdown"},
			Upload: UploadConfig{
				PreviewTTL:    30 * time.Minute,
				SweepInterval: 5 * time.Minute,
			},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid config",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "missing backend endpoint",
			mutate:      func(c *Config) { c.Backend.Endpoint = "" },
			expectError: true,
			errorMsg:    "backend endpoint is required",
		},
		{
			name:   "zero backend timeout means wait indefinitely",
			mutate: func(c *Config) { c.Backend.Timeout = 0 },
		},
		{
			name:        "negative backend timeout",
			mutate:      func(c *Config) { c.Backend.Timeout = -time.Second },
			expectError: true,
			errorMsg:    "backend timeout must not be negative",
		},
		{
			name:        "missing server port",
			mutate:      func(c *Config) { c.Server.Port = "" },
			expectError: true,
			errorMsg:    "server port is required",
		},
		{
			name:        "missing store dir",
			mutate:      func(c *Config) { c.Store.Dir = "" },
			expectError: true,
			errorMsg:    "store directory is required",
		},
		{
			name:        "missing cookie name",
			mutate:      func(c *Config) { c.Session.CookieName = "" },
			expectError: true,
			errorMsg:    "session cookie name is required",
		},
		{
			name:        "non-positive preview TTL",
			mutate:      func(c *Config) { c.App.Upload.PreviewTTL = 0 },
			expectError: true,
			errorMsg:    "upload preview TTL must be positive",
		},
		{
			name:        "unsupported default format",
			mutate:      func(c *Config) { c.App.DefaultFormat = "xml" },
			expectError: true,
			errorMsg:    "invalid default format: xml",
		},
		{
			name: "invalid TLS config surfaces",
			mutate: func(c *Config) {
				c.Server.TLS = TLSConfig{Mode: "server"}
			},
			expectError: true,
			errorMsg:    "TLS configuration error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyFallbacks(t *testing.T) {
	t.Run("session secret from environment", func(t *testing.T) {
		t.Setenv("RESUMELENS_SESSION_SECRET", "  env-secret \n")
		cfg := validTestConfig()
		cfg.applyFallbacks()
		assert.Equal(t, "env-secret", cfg.Session.Secret)
	})

	t.Run("config secret wins over environment", func(t *testing.T) {
		t.Setenv("RESUMELENS_SESSION_SECRET", "env-secret")
		cfg := validTestConfig()
		cfg.Session.Secret = "file-secret"
		cfg.applyFallbacks()
		assert.Equal(t, "file-secret", cfg.Session.Secret)
	})

	t.Run("mutual mode defaults client auth policy", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Server.TLS.Mode = "mutual"
		cfg.applyFallbacks()
		assert.Equal(t, "require", cfg.Server.TLS.ClientAuthPolicy)
	})

	t.Run("tls min version defaults outside disabled mode", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Server.TLS.Mode = "server"
		cfg.applyFallbacks()
		assert.Equal(t, "1.2", cfg.Server.TLS.MinVersion)

		cfg = validTestConfig()
		cfg.applyFallbacks()
		assert.Empty(t, cfg.Server.TLS.MinVersion)
	})

	t.Run("debug log level enables console output", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.App.LogLevel = "debug"
		cfg.applyFallbacks()
		assert.True(t, cfg.Observability.ConsoleOutput)
	})

	t.Run("service instance generated when empty", func(t *testing.T) {
		cfg := validTestConfig()
		cfg.Observability.ServiceName = "resumelens"
		cfg.applyFallbacks()
		assert.NotEmpty(t, cfg.Observability.ServiceInstance)
	})
}
