package metadata

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jmylchreest/ape-plugins/internal/version"
)

var (
	// ErrNameRequired is returned when a plugin has no name.
	ErrNameRequired = errors.New("plugin name required")

	// ErrRemoteMismatch is returned when a git remote does not belong to the
	// named plugin. Forks keep the repository name, so they still pass.
	ErrRemoteMismatch = errors.New("plugin mismatch with remote git version")
)

// VersionError reports a version request that cannot be honoured.
type VersionError struct {
	Verb       string
	Reason     string
	Resolution string
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("unable to %s plugin: %s (to resolve: %s)", e.Verb, e.Reason, e.Resolution)
}

// Inventory answers installation questions about distributions.
type Inventory interface {
	IsInstalled(packageName string) bool
	Version(packageName string) string
}

// Catalog answers whether a module is offered by the trusted registry.
type Catalog interface {
	Contains(moduleName string) bool
}

// Names is a Catalog backed by a set of module names.
type Names map[string]struct{}

// NewCatalog builds a Catalog from module names.
func NewCatalog(moduleNames ...string) Names {
	n := make(Names, len(moduleNames))
	for _, m := range moduleNames {
		n[strings.TrimSpace(m)] = struct{}{}
	}
	return n
}

// Contains implements Catalog.
func (n Names) Contains(moduleName string) bool {
	_, ok := n[moduleName]
	return ok
}

// Options carries the collaborators a Plugin consults.
type Options struct {
	// Inventory reports installed distributions. Nil means nothing is installed.
	Inventory Inventory

	// Catalog reports registry availability. Nil means the registry was not
	// consulted, and trust falls back to the offline list.
	Catalog Catalog

	// Host is the running host version. It bounds default install ranges and
	// guards against downgrades.
	Host *version.Host

	// Trusted replaces TrustedPlugins when non-empty.
	Trusted []string
}

func (o Options) trustedList() []string {
	if len(o.Trusted) > 0 {
		return o.Trusted
	}
	return TrustedPlugins
}

// Plugin is a request to act on one plugin, optionally at a version.
type Plugin struct {
	name    string
	version string
	opts    Options
}

// New normalises a plugin request. The name may carry the version
// ("foo==0.8", "foo@git+https://...") or be a git remote itself.
func New(name, ver string, opts Options) (*Plugin, error) {
	name = strings.TrimSpace(name)
	ver = strings.TrimSpace(ver)

	if strings.HasPrefix(name, gitPrefix) {
		ver = name
		name = nameFromRemote(name)
	}

	if strings.HasPrefix(ver, gitPrefix) {
		if !strings.Contains(ver, PackagePrefix+name) {
			return nil, fmt.Errorf("%w: %q is not a remote for %q", ErrRemoteMismatch, ver, name)
		}
	} else if ver == "" && hasVersionConstraint(name) {
		name, ver = splitNameAndVersion(name)
	}

	name = CleanName(strings.TrimSpace(name))
	if name == "" {
		return nil, ErrNameRequired
	}

	return &Plugin{name: name, version: ver, opts: opts}, nil
}

// Parse reads a package id such as "ape-foo==0.8.1" or "ape_foo".
func Parse(id string, opts Options) (*Plugin, error) {
	name, ver, _ := strings.Cut(id, "==")
	if strings.Contains(ver, "==") {
		ver = ""
	}
	return New(strings.TrimSpace(name), ver, opts)
}

// MustNew is like New but panics on error.
func MustNew(name, ver string, opts Options) *Plugin {
	p, err := New(name, ver, opts)
	if err != nil {
		panic(err)
	}
	return p
}

// Name is the short name, such as "trezor".
func (p *Plugin) Name() string {
	return p.name
}

// Version is the requested version, if any.
func (p *Plugin) Version() string {
	return p.version
}

// Options returns the collaborators the plugin was built with.
func (p *Plugin) Options() Options {
	return p.opts
}

// WithInventory returns a copy that consults inv for installation state.
func (p *Plugin) WithInventory(inv Inventory) *Plugin {
	c := *p
	c.opts.Inventory = inv
	return &c
}

// PackageName is the distribution name, such as "ape-trezor".
func (p *Plugin) PackageName() string {
	return PackageNameOf(p.name)
}

// ModuleName is the import name, such as "ape_trezor".
func (p *Plugin) ModuleName() string {
	return ModuleNameOf(p.name)
}

// IsRemote reports whether the version is a git remote.
func (p *Plugin) IsRemote() bool {
	return strings.HasPrefix(p.version, gitPrefix)
}

// CurrentVersion is the installed version, or "".
func (p *Plugin) CurrentVersion() string {
	if p.opts.Inventory == nil {
		return ""
	}
	return p.opts.Inventory.Version(p.PackageName())
}

// InstallString is the requirement passed to the package manager, such as
// "ape-trezor==0.4.0", "ape-trezor>=0.8,<0.9" or a git remote.
func (p *Plugin) InstallString() (string, error) {
	if p.IsRemote() {
		return p.version, nil
	}

	spec := p.version
	if spec != "" {
		if !strings.ContainsAny(spec, "=<>") {
			spec = "==" + spec
		}

		if p.opts.Host != nil {
			downgrade, err := p.opts.Host.WouldGetDowngraded(spec)
			if err != nil {
				return "", fmt.Errorf("plugin %q: %w", p.name, err)
			}
			if downgrade {
				return "", &VersionError{
					Verb:       "install",
					Reason:     "doing so will downgrade the host version",
					Resolution: "downgrade the host first",
				}
			}
		}
	} else if p.opts.Host != nil {
		// Stay inside the host's series rather than taking the newest release.
		spec = p.opts.Host.VersionRange()
	}

	return p.PackageName() + spec, nil
}

// CanInstall is true when the plugin is not installed, or a version other
// than the installed one was requested.
func (p *Plugin) CanInstall() bool {
	differentVersion := p.version != "" && p.version != p.CurrentVersion()
	return !p.IsInstalled() || differentVersion
}

// InCore reports whether the plugin ships with the host.
func (p *Plugin) InCore() bool {
	return IsCore(p.ModuleName())
}

// IsInstalled reports whether the plugin's distribution is installed.
func (p *Plugin) IsInstalled() bool {
	return p.opts.Inventory != nil && p.opts.Inventory.IsInstalled(p.PackageName())
}

// IsAvailable reports whether the trusted registry offers the plugin.
func (p *Plugin) IsAvailable() bool {
	return p.opts.Catalog != nil && p.opts.Catalog.Contains(p.ModuleName())
}

// IsTrusted reports whether the plugin is maintained by the host's authors,
// asking the registry when one was consulted.
func (p *Plugin) IsTrusted() bool {
	return p.CheckTrusted(p.opts.Catalog != nil, nil)
}

// IsThirdParty reports whether the plugin is installed but not trusted.
func (p *Plugin) IsThirdParty() bool {
	return p.IsInstalled() && !p.IsTrusted()
}

// CheckTrusted checks the registry when useWeb is set, otherwise the offline
// trusted list (trusted, when non-empty, replaces the configured list).
func (p *Plugin) CheckTrusted(useWeb bool, trusted []string) bool {
	if useWeb {
		return p.IsAvailable()
	}
	if len(trusted) == 0 {
		trusted = p.opts.trustedList()
	}
	return slices.Contains(trusted, p.name)
}

// String renders "trezor==0.4.0", "trezor", or the git remote.
func (p *Plugin) String() string {
	if p.IsRemote() {
		return p.version
	}
	if p.version != "" && p.version[0] >= '0' && p.version[0] <= '9' {
		return p.name + "==" + p.version
	}
	return p.name
}
