// Package environment reports which Python distributions are installed by
// asking the package manager, and caches the answer.
package environment

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/ape-plugins/internal/logging"
	"github.com/jmylchreest/ape-plugins/internal/plugin/pkgmgr"
)

const (
	// PluginPrefix starts the distribution name of every plugin.
	PluginPrefix = "ape-"

	// HostDistribution is the distribution of the host tool itself.
	HostDistribution = "eth-ape"
)

var separatorRun = regexp.MustCompile(`[-_.]+`)

// NormalizeName canonicalises a distribution name so "Ape_Foo" and "ape-foo"
// compare equal.
func NormalizeName(name string) string {
	return separatorRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// Distribution is one installed package as reported by "pip list".
type Distribution struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Snapshot is the set of distributions installed at one point in time.
type Snapshot struct {
	dists map[string]Distribution
}

// NewSnapshot indexes dists by normalised name.
func NewSnapshot(dists ...Distribution) *Snapshot {
	s := &Snapshot{dists: make(map[string]Distribution, len(dists))}
	for _, d := range dists {
		s.dists[NormalizeName(d.Name)] = d
	}
	return s
}

// IsInstalled reports whether the distribution is present.
func (s *Snapshot) IsInstalled(packageName string) bool {
	_, ok := s.dists[NormalizeName(packageName)]
	return ok
}

// Version returns the installed version, or "" when not installed.
func (s *Snapshot) Version(packageName string) string {
	return s.dists[NormalizeName(packageName)].Version
}

// HostVersion returns the installed version of the host tool.
func (s *Snapshot) HostVersion() string {
	return s.Version(HostDistribution)
}

// Distributions returns every distribution sorted by name.
func (s *Snapshot) Distributions() []Distribution {
	out := make([]Distribution, 0, len(s.dists))
	for _, d := range s.dists {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return NormalizeName(out[i].Name) < NormalizeName(out[j].Name)
	})
	return out
}

// PluginDistributions returns the installed plugin distributions.
func (s *Snapshot) PluginDistributions() []Distribution {
	var out []Distribution
	for _, d := range s.Distributions() {
		if strings.HasPrefix(NormalizeName(d.Name), PluginPrefix) {
			out = append(out, d)
		}
	}
	return out
}

// PluginModules returns the import names of the installed plugins, such as
// "ape_solidity".
func (s *Snapshot) PluginModules() []string {
	dists := s.PluginDistributions()
	out := make([]string, 0, len(dists))
	for _, d := range dists {
		out = append(out, strings.ReplaceAll(NormalizeName(d.Name), "-", "_"))
	}
	return out
}

// Environment lists distributions through the package manager.
type Environment struct {
	runner         pkgmgr.ProcessRunner
	command        *pkgmgr.Command
	pythonLocation string
	logger         hclog.Logger

	mu       sync.Mutex
	snapshot *Snapshot
}

// Option configures an Environment.
type Option func(*Environment)

// WithPythonLocation targets another interpreter's environment.
func WithPythonLocation(path string) Option {
	return func(e *Environment) {
		e.pythonLocation = path
	}
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(e *Environment) {
		e.logger = l
	}
}

// New creates an Environment.
func New(runner pkgmgr.ProcessRunner, command *pkgmgr.Command, opts ...Option) *Environment {
	e := &Environment{
		runner:  runner,
		command: command,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.OrDiscard(e.logger).Named("environment")
	return e
}

// Snapshot returns the cached listing, fetching it on first use.
func (e *Environment) Snapshot(ctx context.Context) (*Snapshot, error) {
	e.mu.Lock()
	cached := e.snapshot
	e.mu.Unlock()

	if cached != nil {
		return cached, nil
	}
	return e.Refresh(ctx)
}

// Refresh discards the cache and lists the environment again.
func (e *Environment) Refresh(ctx context.Context) (*Snapshot, error) {
	argv := e.command.Args("list", e.pythonLocation, "--format=json")
	e.logger.Debug("listing distributions", "command", strings.Join(argv, " "))

	stdout, stderr, err := e.runner.Run(ctx, argv, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list distributions: %w: %s", err, strings.TrimSpace(string(stderr)))
	}

	dists, err := ParseList(stdout)
	if err != nil {
		return nil, err
	}

	snap := NewSnapshot(dists...)

	e.mu.Lock()
	e.snapshot = snap
	e.mu.Unlock()

	e.logger.Debug("listed distributions", "count", len(dists))
	return snap, nil
}

// ParseList decodes the output of "pip list --format=json".
func ParseList(data []byte) ([]Distribution, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, nil
	}

	var dists []Distribution
	if err := json.Unmarshal([]byte(trimmed), &dists); err != nil {
		return nil, fmt.Errorf("failed to parse distribution list: %w", err)
	}
	return dists, nil
}
