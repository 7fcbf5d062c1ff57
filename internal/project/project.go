// Package project reads the plugin requirements declared in a project's
// configuration file.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/ape-plugins/internal/plugin/metadata"
)

// DefaultFile is the project configuration file name.
const DefaultFile = "ape-config.yaml"

// ErrNoPlugins is returned when a project declares no plugins.
var ErrNoPlugins = errors.New("no plugins declared in project config")

// Requirement is one entry of the "plugins" section.
type Requirement struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version,omitempty"`
}

// Config is the subset of the project configuration this tool reads.
type Config struct {
	Plugins []Requirement `yaml:"plugins"`

	path string
}

// Path returns the file the config was read from.
func (c *Config) Path() string {
	return c.path
}

// Load reads path. A directory is resolved to DefaultFile inside it.
func Load(path string) (*Config, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.path = path
	return cfg, nil
}

// Parse decodes a project configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse project config: %w", err)
	}

	for i, req := range cfg.Plugins {
		if strings.TrimSpace(req.Name) == "" {
			return nil, fmt.Errorf("plugins[%d]: %w", i, metadata.ErrNameRequired)
		}
	}
	return &cfg, nil
}

// Resolve turns the declared requirements into plugins, skipping duplicates.
func (c *Config) Resolve(opts metadata.Options) ([]*metadata.Plugin, error) {
	if len(c.Plugins) == 0 {
		return nil, ErrNoPlugins
	}

	seen := make(map[string]bool, len(c.Plugins))
	plugins := make([]*metadata.Plugin, 0, len(c.Plugins))
	for _, req := range c.Plugins {
		p, err := metadata.New(req.Name, req.Version, opts)
		if err != nil {
			return nil, fmt.Errorf("plugin %q: %w", req.Name, err)
		}
		if seen[p.ModuleName()] {
			continue
		}
		seen[p.ModuleName()] = true
		plugins = append(plugins, p)
	}
	return plugins, nil
}
