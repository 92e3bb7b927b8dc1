package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort            = 8080
	DefaultHost            = "127.0.0.1"
	DefaultLogLevel        = "info"
	DefaultMaxFileSize     = 25 * 1024 * 1024 // 25MB
	DefaultMaxPageCount    = 50
	DefaultLineOverlap     = 0.5
	DefaultConfidenceFloor = 0.3
)

// Config holds all configuration for the extraction service: server settings
// plus the pipeline's tunable thresholds.
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Pipeline configuration
	MaxFileSize         int64   // Maximum upload size in bytes
	MaxPageCount        int     // Maximum document page count
	LineOverlapFraction float64 // Vertical overlap fraction for line grouping
	ConfidenceFloor     float64 // Minimum candidate confidence
	RegistryPath        string  // Optional field registry YAML override

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Mode:                ModeStdio, // Default to stdio mode for MCP compatibility
		Host:                DefaultHost,
		Port:                DefaultPort,
		MaxFileSize:         DefaultMaxFileSize,
		MaxPageCount:        DefaultMaxPageCount,
		LineOverlapFraction: DefaultLineOverlap,
		ConfidenceFloor:     DefaultConfidenceFloor,
		RegistryPath:        "",
		Version:             "1.0.0",
		ServerName:          "acord-extract",
		LogLevel:            DefaultLogLevel,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.RegistryPath != "" {
		if expandedPath, err := filepath.Abs(cfg.RegistryPath); err == nil {
			cfg.RegistryPath = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults.
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("ACORD_EXTRACT")
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
	viper.SetDefault("maxpages", cfg.MaxPageCount)
	viper.SetDefault("lineoverlap", cfg.LineOverlapFraction)
	viper.SetDefault("confidencefloor", cfg.ConfidenceFloor)
	viper.SetDefault("registry", cfg.RegistryPath)
}

// defineCommandLineFlags sets up all command line flags.
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum upload size in bytes")
	pflag.Int("maxpages", cfg.MaxPageCount, "Maximum document page count")
	pflag.Float64("lineoverlap", cfg.LineOverlapFraction, "Vertical overlap fraction for line grouping (0,1]")
	pflag.Float64("confidencefloor", cfg.ConfidenceFloor, "Minimum candidate confidence [0,1)")
	pflag.String("registry", cfg.RegistryPath, "Path to a field registry YAML file (built-in registry if empty)")
}

// bindFlagsToViper binds command line flags to viper configuration.
func bindFlagsToViper() {
	_ = viper.BindPFlag("mode", pflag.Lookup("mode"))
	_ = viper.BindPFlag("host", pflag.Lookup("host"))
	_ = viper.BindPFlag("port", pflag.Lookup("port"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
	_ = viper.BindPFlag("maxpages", pflag.Lookup("maxpages"))
	_ = viper.BindPFlag("lineoverlap", pflag.Lookup("lineoverlap"))
	_ = viper.BindPFlag("confidencefloor", pflag.Lookup("confidencefloor"))
	_ = viper.BindPFlag("registry", pflag.Lookup("registry"))
}

// setupUsageMessage configures the custom usage message.
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nACORD Extract - extract structured JSON from commercial insurance application PDFs\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                  # stdio mode (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --registry=/etc/acord/fields.yaml # custom field registry\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=server --port=8081         # server mode\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  ACORD_EXTRACT_MODE             Server mode\n")
		fmt.Fprintf(os.Stderr, "  ACORD_EXTRACT_HOST             Server host\n")
		fmt.Fprintf(os.Stderr, "  ACORD_EXTRACT_PORT             Server port\n")
		fmt.Fprintf(os.Stderr, "  ACORD_EXTRACT_LOGLEVEL         Log level\n")
		fmt.Fprintf(os.Stderr, "  ACORD_EXTRACT_MAXFILESIZE      Maximum upload size\n")
		fmt.Fprintf(os.Stderr, "  ACORD_EXTRACT_MAXPAGES         Maximum page count\n")
		fmt.Fprintf(os.Stderr, "  ACORD_EXTRACT_LINEOVERLAP      Line grouping overlap fraction\n")
		fmt.Fprintf(os.Stderr, "  ACORD_EXTRACT_CONFIDENCEFLOOR  Candidate confidence floor\n")
		fmt.Fprintf(os.Stderr, "  ACORD_EXTRACT_REGISTRY         Field registry YAML path\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper.
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.MaxPageCount = viper.GetInt("maxpages")
	cfg.LineOverlapFraction = viper.GetFloat64("lineoverlap")
	cfg.ConfidenceFloor = viper.GetFloat64("confidencefloor")
	cfg.RegistryPath = viper.GetString("registry")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum upload size must be positive")
	}

	if c.MaxPageCount <= 0 {
		return errors.New("maximum page count must be positive")
	}

	if c.LineOverlapFraction <= 0 || c.LineOverlapFraction > 1 {
		return errors.New("line overlap fraction must be in (0, 1]")
	}

	if c.ConfidenceFloor < 0 || c.ConfidenceFloor >= 1 {
		return errors.New("confidence floor must be in [0, 1)")
	}

	if c.RegistryPath != "" {
		if _, err := os.Stat(c.RegistryPath); err != nil {
			return fmt.Errorf("cannot access registry file %s: %w", c.RegistryPath, err)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// Address returns the server address as host:port.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Mode: %s, Host: %s, Port: %d, MaxFileSize: %d, MaxPageCount: %d, "+
			"LineOverlap: %.2f, ConfidenceFloor: %.2f, Registry: %s, LogLevel: %s}",
		c.Mode, c.Host, c.Port, c.MaxFileSize, c.MaxPageCount,
		c.LineOverlapFraction, c.ConfidenceFloor, c.RegistryPath, c.LogLevel)
}

// IsServerMode returns true if the server is running in HTTP server mode.
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode.
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}
