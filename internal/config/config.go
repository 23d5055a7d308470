// Package config loads the waiter client configuration from a TOML file, a .env file
// in the working directory, and WAITER_* environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pizzeria-pos/waiter/internal/storage"
)

const (
	// ConfigFormatVersion is the only config file format understood.
	ConfigFormatVersion = "0.1.0"
	// DefaultConfigFile is the config file name under the user config directory.
	DefaultConfigFile = "config.toml"
	// DefaultRequestTimeout applies when request_timeout is not set.
	DefaultRequestTimeout = "15s"
	// DefaultLogLevel keeps handled failures out of the terminal.
	DefaultLogLevel = "error"
)

// Environment overrides.
const (
	EnvServerURL   = "WAITER_SERVER_URL"
	EnvLogLevel    = "WAITER_LOG_LEVEL"
	EnvStorageFile = "WAITER_STORAGE_FILE"
)

// Config holds the client configuration.
type Config struct {
	FormatVersion  string `toml:"format_version"`
	ServerURL      string `toml:"server_url"`      // base URL of the ordering API
	RequestTimeout string `toml:"request_timeout"` // e.g. "15s", "1m"
	StorageFile    string `toml:"storage_file"`    // durable store; default beside the config file
	LogLevel       string `toml:"log_level"`
	// InsecureSkipVerify accepts any TLS certificate from the server, for test
	// installations with self-signed certificates.
	InsecureSkipVerify bool `toml:"insecure_skip_verify"`
}

// GetDefaultConfigPath returns <UserConfigDir>/waiter/config.toml.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, "waiter", DefaultConfigFile), nil
}

// Default returns a configuration with every optional value filled in.
func Default() *Config {
	return &Config{
		FormatVersion:  ConfigFormatVersion,
		RequestTimeout: DefaultRequestTimeout,
		LogLevel:       DefaultLogLevel,
	}
}

// LoadConfig reads file (the default location when empty), applies .env and
// environment overrides, fills defaults and validates the result. A missing file is
// not an error as long as the server URL comes from the environment.
func LoadConfig(file string) (*Config, error) {
	if file == "" {
		var err error
		file, err = GetDefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := ReadConfig(file)
	if err != nil {
		return nil, err
	}

	if cwd, err := os.Getwd(); err == nil {
		_ = godotenv.Load(filepath.Join(cwd, ".env")) // no error if .env doesn't exist
	}
	if v := os.Getenv(EnvServerURL); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvStorageFile); v != "" {
		cfg.StorageFile = v
	}

	if cfg.FormatVersion == "" {
		cfg.FormatVersion = ConfigFormatVersion
	}
	if cfg.RequestTimeout == "" {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.StorageFile == "" {
		cfg.StorageFile = filepath.Join(filepath.Dir(file), storage.DefaultStorageFile)
	}
	cfg.ServerURL = MorphServer(cfg.ServerURL)

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadConfig decodes file over the defaults without applying overrides or validating.
// A missing file yields the defaults.
func ReadConfig(file string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(file, cfg); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("unable to parse config file: %w", err)
		}
	}
	return cfg, nil
}

// ValidateConfig checks that all required values are present and well formed.
func ValidateConfig(cfg *Config) error {
	if cfg.FormatVersion != ConfigFormatVersion {
		return fmt.Errorf("unsupported config file format version: %s", cfg.FormatVersion)
	}
	if cfg.ServerURL == "" {
		return fmt.Errorf("server_url is required (run \"waiter config --server <url>\" or set %s)", EnvServerURL)
	}
	if !strings.HasPrefix(cfg.ServerURL, "http://") && !strings.HasPrefix(cfg.ServerURL, "https://") {
		return errors.New("server_url must start with http:// or https://")
	}
	if _, err := ParseDuration(cfg.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request_timeout: %v", err)
	}
	return nil
}

// WriteConfig writes cfg to file as TOML, creating the directory if needed.
func (cfg *Config) WriteConfig(file string) error {
	if file == "" {
		return errors.New("file path cannot be empty")
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o700); err != nil {
		return fmt.Errorf("unable to create config directory: %w", err)
	}

	f, err := os.OpenFile(file, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("unable to generate configuration: %w", err)
	}
	return nil
}

// GetServerURL returns the normalised server URL.
func (cfg *Config) GetServerURL() string {
	return MorphServer(cfg.ServerURL)
}

// GetRequestTimeout returns the request timeout, falling back to the default.
func (cfg *Config) GetRequestTimeout() time.Duration {
	d, err := ParseDuration(cfg.RequestTimeout)
	if err != nil {
		d, _ = ParseDuration(DefaultRequestTimeout)
	}
	return d
}

// MorphServer trims trailing slashes and adds http:// when no scheme is given.
func MorphServer(server string) string {
	server = strings.TrimSpace(server)
	if server == "" {
		return server
	}
	server = strings.TrimRight(server, "/")
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		server = "http://" + server
	}
	return server
}

// ParseDuration parses "<number><unit>" where unit is one of:
// - s: seconds
// - m: minutes
// - h: hours
// - d: days
func ParseDuration(input string) (time.Duration, error) {
	if len(input) < 2 {
		return 0, fmt.Errorf("invalid input format")
	}

	unit := input[len(input)-1:]
	valueStr := input[:len(input)-1]
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("duration must be positive")
	}

	switch unit {
	case "s":
		return time.Duration(value) * time.Second, nil
	case "m":
		return time.Duration(value) * time.Minute, nil
	case "h":
		return time.Duration(value) * time.Hour, nil
	case "d":
		return time.Duration(value) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown time unit: %s", unit)
	}
}
