// Package metadata describes host plugins: how their names are normalised,
// how they are classified (core, installed, third-party, available) and how
// listings of them are rendered.
package metadata

import (
	"net/url"
	"slices"
	"strings"
)

const (
	// PackagePrefix starts every plugin distribution name.
	PackagePrefix = "ape-"

	// ModulePrefix starts every plugin import name.
	ModulePrefix = "ape_"

	gitPrefix = "git+"
)

// CorePlugins ship with the host and can never be installed separately.
var CorePlugins = []string{
	"ape_accounts",
	"ape_cache",
	"ape_compile",
	"ape_console",
	"ape_ethereum",
	"ape_node",
	"ape_init",
	"ape_networks",
	"ape_plugins",
	"ape_pm",
	"ape_run",
	"ape_test",
}

// TrustedPlugins is the offline list of plugins maintained by the host's
// authors. Commands that must not touch the network (such as help output)
// use it instead of the registry, so new trusted plugins need adding here.
var TrustedPlugins = []string{
	"addressbook",
	"alchemy",
	"arbitrum",
	"avalanche",
	"aws",
	"base",
	"blast",
	"blockscout",
	"bsc",
	"cairo",
	"chainstack",
	"ens",
	"etherscan",
	"fantom",
	"farcaster",
	"flashbots",
	"foundry",
	"frame",
	"ganache",
	"hardhat",
	"infura",
	"ledger",
	"notebook",
	"optimism",
	"polygon",
	"polygon-zkevm",
	"safe",
	"solidity",
	"template",
	"tenderly",
	"titanoboa",
	"tokens",
	"trezor",
	"vyper",
}

// versionConstraints may appear inside a name given on the command line.
var versionConstraints = []string{"==", "<=", ">=", "@git+"}

// CleanName turns any spelling of a plugin ("ape_foo", "ape-foo", "foo")
// into its short name ("foo").
func CleanName(name string) string {
	return strings.ReplaceAll(strings.ReplaceAll(name, "_", "-"), PackagePrefix, "")
}

// PackageNameOf returns the distribution name for a short name.
func PackageNameOf(name string) string {
	return PackagePrefix + name
}

// ModuleNameOf returns the import name for a short name.
func ModuleNameOf(name string) string {
	return ModulePrefix + strings.ReplaceAll(name, "-", "_")
}

// IsCore reports whether moduleName is bundled with the host.
func IsCore(moduleName string) bool {
	return slices.Contains(CorePlugins, strings.TrimSpace(moduleName))
}

// normalizeModuleName maps a short, package or module name to a module name.
func normalizeModuleName(name string) string {
	if strings.HasPrefix(name, ModulePrefix) {
		return name
	}
	return ModuleNameOf(CleanName(name))
}

// nameFromRemote extracts the short name from a git remote such as
// "git+https://github.com/ApeWorX/ape-foo.git@main".
func nameFromRemote(remote string) string {
	raw := strings.TrimPrefix(remote, gitPrefix)

	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	}

	path, _, _ = strings.Cut(path, ".git")
	segments := strings.Split(path, "/")
	return strings.ReplaceAll(segments[len(segments)-1], PackagePrefix, "")
}

// splitNameAndVersion separates a constraint embedded in a name:
// "foo==0.8" -> ("foo", "==0.8"), "foo@git+https://..." -> ("foo", "git+https://...").
func splitNameAndVersion(value string) (string, string) {
	if strings.Contains(value, "@") {
		var parts []string
		for p := range strings.SplitSeq(value, "@") {
			if p != "" {
				parts = append(parts, p)
			}
		}
		if len(parts) == 0 {
			return "", ""
		}
		return parts[0], strings.Join(parts[1:], "@")
	}

	idx := strings.IndexAny(value, "=<>")
	if idx < 0 {
		return value, ""
	}
	return value[:idx], value[idx:]
}

func hasVersionConstraint(name string) bool {
	for _, c := range versionConstraints {
		if strings.Contains(name, c) {
			return true
		}
	}
	return false
}
