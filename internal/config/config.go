// Package config loads ape-plugins settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds settings shared by the CLI and its components.
// Command-line flags override the values loaded here.
type Config struct {
	// GitHubOrg owns the trusted plugin repositories.
	GitHubOrg string `env:"APE_PLUGINS_GITHUB_ORG" envDefault:"ApeWorX"`

	// GitHubToken raises the API rate limit when set.
	GitHubToken string `env:"GITHUB_ACCESS_TOKEN"`

	// IndexURL, when set, replaces the GitHub lookup with a JSON index.
	IndexURL string `env:"APE_PLUGINS_INDEX_URL"`

	// CacheDir stores the registry cache. Defaults to the user cache dir.
	CacheDir string `env:"APE_PLUGINS_CACHE_DIR"`

	// CacheTTL is how long a fetched registry listing stays fresh.
	CacheTTL time.Duration `env:"APE_PLUGINS_CACHE_TTL" envDefault:"1h"`

	// Python is the interpreter used to run "-m pip" when uv is not available.
	Python string `env:"APE_PLUGINS_PYTHON" envDefault:"python3"`

	// PythonLocation targets another environment's interpreter.
	PythonLocation string `env:"APE_PLUGINS_PYTHON_LOCATION"`

	// PackageManager forces "pip" or "uv"; empty means auto-detect.
	PackageManager string `env:"APE_PLUGINS_PACKAGE_MANAGER"`

	// TrustedPlugins replaces the built-in trusted list.
	TrustedPlugins []string `env:"APE_PLUGINS_TRUSTED" envSeparator:","`

	// HostVersion overrides the version read from the environment.
	HostVersion string `env:"APE_PLUGINS_HOST_VERSION"`

	// Offline skips every registry lookup.
	Offline bool `env:"APE_PLUGINS_OFFLINE"`

	// LogLevel is an hclog level name.
	LogLevel string `env:"APE_PLUGINS_LOG_LEVEL" envDefault:"info"`

	// ProjectFile is the project config read by "install ." and "uninstall .".
	ProjectFile string `env:"APE_PLUGINS_PROJECT_FILE" envDefault:"ape-config.yaml"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the configuration with defaults resolved.
func Load() (*Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}

	if cfg.CacheDir == "" {
		dir, err := defaultCacheDir()
		if err != nil {
			return nil, err
		}
		cfg.CacheDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values the environment parser cannot.
func (c *Config) Validate() error {
	switch c.PackageManager {
	case "", "pip", "uv":
	default:
		return fmt.Errorf("invalid package manager %q: must be pip or uv", c.PackageManager)
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("invalid cache TTL %s: must not be negative", c.CacheTTL)
	}

	return nil
}

func defaultCacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		home, homeErr := os.UserHomeDir()
		if homeErr != nil {
			return "", fmt.Errorf("failed to determine cache directory: %w", err)
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "ape-plugins"), nil
}
