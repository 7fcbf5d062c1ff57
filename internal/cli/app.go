package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/jmylchreest/ape-plugins/internal/plugin/environment"
	"github.com/jmylchreest/ape-plugins/internal/plugin/installer"
	"github.com/jmylchreest/ape-plugins/internal/plugin/metadata"
	"github.com/jmylchreest/ape-plugins/internal/plugin/pkgmgr"
	"github.com/jmylchreest/ape-plugins/internal/plugin/registry"
	"github.com/jmylchreest/ape-plugins/internal/project"
	"github.com/jmylchreest/ape-plugins/internal/version"
)

// projectArg makes install and uninstall read the project config.
const projectArg = "."

// session bundles the collaborators of one modifying command.
type session struct {
	command *pkgmgr.Command
	env     *environment.Environment
	snap    *environment.Snapshot
	opts    metadata.Options
}

// pythonLocation returns the flag value, falling back to configuration.
func (a *app) pythonLocation(flag string) string {
	if flag != "" {
		return flag
	}
	return a.cfg.PythonLocation
}

func (a *app) packageManager() (*pkgmgr.Command, error) {
	cmd, err := pkgmgr.Detect(a.lookPath, a.cfg.PackageManager, a.cfg.Python)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("using package manager", "command", cmd.String())
	return cmd, nil
}

// openSession lists the environment and resolves the plugin options. The
// registry is consulted only when withCatalog is set and not offline.
func (a *app) openSession(ctx context.Context, pythonLocation string, withCatalog bool) (*session, error) {
	command, err := a.packageManager()
	if err != nil {
		return nil, err
	}

	env := environment.New(a.runner, command,
		environment.WithPythonLocation(pythonLocation),
		environment.WithLogger(a.logger),
	)

	snap, err := env.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	opts := metadata.Options{
		Inventory: snap,
		Host:      a.hostVersion(snap),
		Trusted:   a.cfg.TrustedPlugins,
	}

	if withCatalog {
		if reg := a.pluginRegistry(); reg != nil {
			available, err := reg.Available(ctx)
			if err != nil {
				a.logger.Warn("failed to query plugin registry, falling back to trusted list", "error", err)
			} else {
				opts.Catalog = metadata.NewCatalog(available...)
			}
		}
	}

	return &session{command: command, env: env, snap: snap, opts: opts}, nil
}

// hostVersion prefers the configured override over the installed host.
// An unknown host leaves installs unbounded.
func (a *app) hostVersion(snap *environment.Snapshot) *version.Host {
	raw := a.cfg.HostVersion
	if raw == "" {
		raw = snap.HostVersion()
	}
	if raw == "" {
		a.logger.Debug("host version unknown", "distribution", environment.HostDistribution)
		return nil
	}

	host, err := version.ParseHost(raw)
	if err != nil {
		a.logger.Warn("ignoring unparseable host version", "version", raw, "error", err)
		return nil
	}
	return host
}

// pluginRegistry returns the configured registry, or nil when offline.
func (a *app) pluginRegistry() registry.Registry {
	if a.cfg.Offline {
		return nil
	}
	if a.registry != nil {
		return a.registry
	}

	var (
		inner registry.Registry
		key   string
	)
	if a.cfg.IndexURL != "" {
		inner = registry.NewIndex(a.cfg.IndexURL, nil)
		key = indexCacheKey(a.cfg.IndexURL)
	} else {
		gh, err := registry.NewGitHub(a.cfg.GitHubOrg,
			registry.WithToken(a.cfg.GitHubToken),
			registry.WithGitHubLogger(a.logger),
		)
		if err != nil {
			a.logger.Warn("plugin registry unavailable", "error", err)
			return nil
		}
		inner = gh
		key = "github-" + strings.ToLower(a.cfg.GitHubOrg)
	}

	a.registry = registry.NewCached(inner, a.cfg.CacheDir, key,
		registry.WithTTL(a.cfg.CacheTTL),
		registry.WithCacheLogger(a.logger),
	)
	return a.registry
}

// indexCacheKey names the cache file of an index registry after its URL.
func indexCacheKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return "index-" + hex.EncodeToString(sum[:8])
}

// prompt returns the configured confirmer, or the terminal prompt.
func (a *app) prompt() installer.Confirmer {
	if a.confirmer == nil {
		a.confirmer = newTerminalConfirmer(a.stdin, a.logger)
	}
	return a.confirmer
}

func (a *app) newInstaller(s *session) *installer.Installer {
	return installer.New(s.command, a.runner, s.env,
		installer.WithConfirmer(a.prompt()),
		installer.WithLogger(a.logger),
	)
}

// resolvePlugins parses command arguments, expanding "." to the plugins of
// the project config.
func (a *app) resolvePlugins(args []string, opts metadata.Options) ([]*metadata.Plugin, error) {
	if len(args) == 1 && args[0] == projectArg {
		cfg, err := project.Load(a.cfg.ProjectFile)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("read project plugins", "file", cfg.Path(), "count", len(cfg.Plugins))
		return cfg.Resolve(opts)
	}

	plugins := make([]*metadata.Plugin, 0, len(args))
	for _, arg := range args {
		p, err := metadata.New(arg, "", opts)
		if err != nil {
			return nil, fmt.Errorf("invalid plugin %q: %w", arg, err)
		}
		plugins = append(plugins, p)
	}
	return plugins, nil
}

// installedPlugins returns every installed plugin that is not core.
func installedPlugins(s *session) []*metadata.Plugin {
	var plugins []*metadata.Plugin
	for _, d := range s.snap.PluginDistributions() {
		p, err := metadata.New(environment.NormalizeName(d.Name), "", s.opts)
		if err != nil || p.InCore() {
			continue
		}
		plugins = append(plugins, p)
	}
	return plugins
}

// prepareFailed reports whether a preparation error counts as a failure.
// Requests with nothing to do only warn. The installer already logs the
// rule violations it detects, everything else is logged here.
func (a *app) prepareFailed(p *metadata.Plugin, err error) bool {
	switch {
	case errors.Is(err, installer.ErrAlreadyInstalled),
		errors.Is(err, installer.ErrNotInstalled),
		errors.Is(err, installer.ErrDeclined):
		return false
	case errors.Is(err, installer.ErrCorePlugin),
		errors.Is(err, installer.ErrUpgradeWithVersion):
	default:
		a.logger.Error("cannot modify plugin", "plugin", p.Name(), "error", err)
	}
	return true
}
