package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "stdio" {
		t.Errorf("Expected default mode to be 'stdio', got '%s'", cfg.Mode)
	}

	if cfg.Host != "127.0.0.1" {
		t.Errorf("Expected default host to be '127.0.0.1', got '%s'", cfg.Host)
	}

	if cfg.Port != 8080 {
		t.Errorf("Expected default port to be 8080, got %d", cfg.Port)
	}

	if cfg.ServerName != "acord-extract" {
		t.Errorf("Expected default server name to be 'acord-extract', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 25*1024*1024 {
		t.Errorf("Expected default max file size to be 25MB, got %d", cfg.MaxFileSize)
	}

	if cfg.MaxPageCount != 50 {
		t.Errorf("Expected default max page count to be 50, got %d", cfg.MaxPageCount)
	}

	if cfg.LineOverlapFraction != 0.5 {
		t.Errorf("Expected default line overlap to be 0.5, got %v", cfg.LineOverlapFraction)
	}

	if cfg.ConfidenceFloor != 0.3 {
		t.Errorf("Expected default confidence floor to be 0.3, got %v", cfg.ConfidenceFloor)
	}

	if cfg.RegistryPath != "" {
		t.Errorf("Expected default registry path to be empty, got '%s'", cfg.RegistryPath)
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func(mutate func(*Config)) *Config {
		cfg := DefaultConfig()
		mutate(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid config - stdio mode",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name:    "valid config - server mode",
			config:  valid(func(c *Config) { c.Mode = ModeServer }),
			wantErr: false,
		},
		{
			name:    "invalid mode",
			config:  valid(func(c *Config) { c.Mode = "invalid" }),
			wantErr: true,
		},
		{
			name: "invalid port - too low (server mode)",
			config: valid(func(c *Config) {
				c.Mode = ModeServer
				c.Port = 0
			}),
			wantErr: true,
		},
		{
			name: "invalid port - too high (server mode)",
			config: valid(func(c *Config) {
				c.Mode = ModeServer
				c.Port = 70000
			}),
			wantErr: true,
		},
		{
			name:    "invalid port ignored in stdio mode",
			config:  valid(func(c *Config) { c.Port = 0 }),
			wantErr: false,
		},
		{
			name:    "zero max file size",
			config:  valid(func(c *Config) { c.MaxFileSize = 0 }),
			wantErr: true,
		},
		{
			name:    "negative max page count",
			config:  valid(func(c *Config) { c.MaxPageCount = -1 }),
			wantErr: true,
		},
		{
			name:    "zero line overlap fraction",
			config:  valid(func(c *Config) { c.LineOverlapFraction = 0 }),
			wantErr: true,
		},
		{
			name:    "line overlap fraction above one",
			config:  valid(func(c *Config) { c.LineOverlapFraction = 1.2 }),
			wantErr: true,
		},
		{
			name:    "line overlap fraction of exactly one",
			config:  valid(func(c *Config) { c.LineOverlapFraction = 1.0 }),
			wantErr: false,
		},
		{
			name:    "negative confidence floor",
			config:  valid(func(c *Config) { c.ConfidenceFloor = -0.1 }),
			wantErr: true,
		},
		{
			name:    "confidence floor of one",
			config:  valid(func(c *Config) { c.ConfidenceFloor = 1.0 }),
			wantErr: true,
		},
		{
			name:    "confidence floor of zero",
			config:  valid(func(c *Config) { c.ConfidenceFloor = 0 }),
			wantErr: false,
		},
		{
			name:    "missing registry file",
			config:  valid(func(c *Config) { c.RegistryPath = filepath.Join(t.TempDir(), "missing.yaml") }),
			wantErr: true,
		},
		{
			name:    "invalid log level",
			config:  valid(func(c *Config) { c.LogLevel = "verbose" }),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr && err == nil {
				t.Errorf("expected error but got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.IsStdioMode() {
		t.Errorf("default config should be in stdio mode")
	}
	if cfg.IsServerMode() {
		t.Errorf("default config should not be in server mode")
	}
	if cfg.IsDebug() {
		t.Errorf("default config should not be in debug mode")
	}

	cfg.Mode = ModeServer
	cfg.LogLevel = "debug"
	if !cfg.IsServerMode() || cfg.IsStdioMode() {
		t.Errorf("mode helpers disagree with mode %q", cfg.Mode)
	}
	if !cfg.IsDebug() {
		t.Errorf("debug log level should enable IsDebug")
	}

	if got := cfg.Address(); got != "127.0.0.1:8080" {
		t.Errorf("expected address '127.0.0.1:8080', got '%s'", got)
	}

	if cfg.String() == "" {
		t.Errorf("String() should describe the configuration")
	}
}
