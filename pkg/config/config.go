package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete Stardust configuration.
//
// This structure captures all configurable aspects of the Stardust server
// including:
//   - Logging configuration
//   - HTTP server settings
//   - Blob store selection and configuration (store-specific)
//   - Metadata store selection and configuration (store-specific)
//   - Authentication settings
//   - Storage behavior toggles
//   - Metrics exposure
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (STARDUST_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store implementation defines its own configuration type and factory
// function. The Config struct contains type-specific sections (e.g.
// blob.filesystem, blob.s3) and only the section matching the selected type
// is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains HTTP server settings
	Server ServerConfig `mapstructure:"server"`

	// Blob specifies the blob store type and type-specific configuration
	Blob BlobConfig `mapstructure:"blob"`

	// Metadata specifies the metadata store type and type-specific configuration
	Metadata MetadataConfig `mapstructure:"metadata"`

	// Auth contains token verification settings
	Auth AuthConfig `mapstructure:"auth"`

	// Storage contains storage behavior toggles
	Storage StorageConfig `mapstructure:"storage"`

	// Metrics controls Prometheus metrics exposure
	Metrics MetricsConfig `mapstructure:"metrics"`

	// GC controls background garbage collection of orphaned blobs
	GC GCConfig `mapstructure:"gc"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// ListenAddress is the address the HTTP server binds to (host:port)
	ListenAddress string `mapstructure:"listen_address" validate:"required"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`

	// MaxUploadBytes caps the accepted request body size for uploads
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"gt=0"`

	// RateLimitRPS is the sustained request rate admitted per second
	// across all clients. Zero disables rate limiting.
	RateLimitRPS uint `mapstructure:"rate_limit_rps"`

	// RateLimitBurst is the token bucket capacity for request bursts.
	// Zero falls back to RateLimitRPS.
	RateLimitBurst uint `mapstructure:"rate_limit_burst"`
}

// BlobConfig specifies blob store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type BlobConfig struct {
	// Type specifies which blob store implementation to use
	// Valid values: filesystem, memory, s3
	Type string `mapstructure:"type" validate:"required,oneof=filesystem memory s3"`

	// Filesystem is only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem"`

	// Memory is only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// S3 is only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`
}

// MetadataConfig specifies metadata store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type MetadataConfig struct {
	// Type specifies which metadata store implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" validate:"required,oneof=memory badger"`

	// Memory is only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory"`

	// Badger is only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`
}

// AuthConfig contains token verification settings.
type AuthConfig struct {
	// JWTSecret is the shared HMAC secret used to verify bearer tokens
	JWTSecret string `mapstructure:"jwt_secret" validate:"required"`
}

// StorageConfig contains storage behavior toggles.
type StorageConfig struct {
	// SniffMediaType enables content-based media type detection for
	// uploads that do not declare one
	SniffMediaType bool `mapstructure:"sniff_media_type"`
}

// MetricsConfig controls Prometheus metrics exposure.
type MetricsConfig struct {
	// Enabled exposes /metrics on the HTTP server when true
	Enabled bool `mapstructure:"enabled"`
}

// GCConfig controls background garbage collection of orphaned blobs.
//
// The storage protocol can leave unreferenced blobs behind after crashes
// or aborted cascades; the collector removes them out-of-band.
type GCConfig struct {
	// Enabled turns periodic collection on
	Enabled bool `mapstructure:"enabled"`

	// Interval is how often collection runs
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`

	// DryRun logs what would be deleted without deleting
	DryRun bool `mapstructure:"dry_run"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (STARDUST_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the STARDUST_ prefix with underscores.
	// Example: STARDUST_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("STARDUST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/stardust/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "stardust")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "stardust")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
