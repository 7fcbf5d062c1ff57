// Package cli_test provides tests for the CLI package.
package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/ape-plugins/internal/cli"
	"github.com/jmylchreest/ape-plugins/internal/plugin/environment"
	"github.com/jmylchreest/ape-plugins/internal/plugin/installer"
	"github.com/jmylchreest/ape-plugins/internal/plugin/pkgmgr"
	"github.com/jmylchreest/ape-plugins/internal/plugin/registry"
)

// fakePip emulates "python3 -m pip" against an in-memory environment.
type fakePip struct {
	mu        sync.Mutex
	installed map[string]string
	// latest is the version chosen when no exact version is pinned.
	latest map[string]string
	// failing packages exit non-zero without changing anything.
	failing map[string]bool
}

func newFakePip(installed map[string]string) *fakePip {
	return &fakePip{
		installed: installed,
		latest:    map[string]string{},
		failing:   map[string]bool{},
	}
}

func (f *fakePip) run(_ context.Context, argv []string, _ io.Reader) ([]byte, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	verbIdx := slices.IndexFunc(argv, func(s string) bool {
		return s == "list" || s == "install" || s == "uninstall"
	})
	if verbIdx < 0 {
		return nil, []byte("unknown command"), &pkgmgr.ExitStatusError{Code: 2}
	}

	var pkgs []string
	for _, arg := range argv[verbIdx+1:] {
		if !strings.HasPrefix(arg, "-") {
			pkgs = append(pkgs, arg)
		}
	}

	switch argv[verbIdx] {
	case "list":
		dists := make([]environment.Distribution, 0, len(f.installed))
		for name, v := range f.installed {
			dists = append(dists, environment.Distribution{Name: name, Version: v})
		}
		out, err := json.Marshal(dists)
		return out, nil, err

	case "install":
		for _, spec := range pkgs {
			name := spec
			if idx := strings.IndexAny(spec, "=<>"); idx >= 0 {
				name = spec[:idx]
			}
			if f.failing[name] {
				return nil, []byte("no matching distribution"), &pkgmgr.ExitStatusError{Code: 1}
			}

			if _, pinned, ok := strings.Cut(spec, "=="); ok {
				f.installed[name] = pinned
			} else if v, ok := f.latest[name]; ok {
				f.installed[name] = v
			} else if _, ok := f.installed[name]; !ok {
				f.installed[name] = "0.0.1"
			}
		}

	case "uninstall":
		for _, name := range pkgs {
			delete(f.installed, name)
		}
	}

	return nil, nil, nil
}

// commandsWith returns every recorded argv containing verb.
func commandsWith(runner *pkgmgr.MockProcessRunner, verb string) [][]string {
	var out [][]string
	for _, call := range runner.Calls() {
		if slices.Contains(call, verb) {
			out = append(out, call)
		}
	}
	return out
}

type harness struct {
	pip    *fakePip
	runner *pkgmgr.MockProcessRunner
	stdout bytes.Buffer
	stderr bytes.Buffer
	opts   []cli.Option
}

func newHarness(t *testing.T, installed map[string]string, opts ...cli.Option) *harness {
	t.Helper()

	t.Setenv("APE_PLUGINS_CACHE_DIR", t.TempDir())
	t.Setenv("APE_PLUGINS_PACKAGE_MANAGER", "pip")
	t.Setenv("APE_PLUGINS_PYTHON", "python3")
	for _, key := range []string{"APE_PLUGINS_HOST_VERSION", "APE_PLUGINS_TRUSTED", "APE_PLUGINS_PYTHON_LOCATION", "APE_PLUGINS_OFFLINE"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	h := &harness{pip: newFakePip(installed)}
	h.runner = &pkgmgr.MockProcessRunner{RunFunc: h.pip.run}
	h.opts = append([]cli.Option{
		cli.WithProcessRunner(h.runner),
		cli.WithLookPath(func(string) (string, error) { return "", errors.New("not found") }),
	}, opts...)
	return h
}

func (h *harness) execute(args ...string) error {
	h.stdout.Reset()
	h.stderr.Reset()

	root := cli.NewRootCmd(h.opts...)
	root.SetOut(&h.stdout)
	root.SetErr(&h.stderr)
	root.SetArgs(args)
	return root.Execute()
}

func defaultEnvironment() map[string]string {
	return map[string]string{
		"eth-ape":      "0.8.3",
		"ape-solidity": "0.8.1",
		"ape-custom":   "0.1.0",
		"requests":     "2.32.0",
	}
}

func TestListCommand(t *testing.T) {
	h := newHarness(t, defaultEnvironment())

	t.Run("Default", func(t *testing.T) {
		require.NoError(t, h.execute("list", "--offline"))

		want := "Installed Plugins\n" +
			"  solidity    0.8.1\n" +
			"\n" +
			"Third-party Plugins\n" +
			"  custom      0.1.0\n"
		assert.Equal(t, want, h.stdout.String())
	})

	t.Run("Freeze", func(t *testing.T) {
		require.NoError(t, h.execute("list", "--offline", "--format", "freeze"))
		assert.Equal(t, "ape-solidity==0.8.1\n\nape-custom==0.1.0\n", h.stdout.String())
	})

	t.Run("NoVersion", func(t *testing.T) {
		require.NoError(t, h.execute("list", "--offline", "--no-version", "--include", "installed"))
		assert.Equal(t, "Installed Plugins\n  solidity\n", h.stdout.String())
	})

	t.Run("InvalidFormat", func(t *testing.T) {
		assert.Error(t, h.execute("list", "--format", "table"))
	})
}

func TestListAllUsesRegistry(t *testing.T) {
	h := newHarness(t, defaultEnvironment(),
		cli.WithRegistry(registry.Static{"ape-solidity", "ape-vyper"}))

	require.NoError(t, h.execute("list", "--all"))

	out := h.stdout.String()
	assert.True(t, strings.HasPrefix(out, "Core Plugins\n  accounts\n"), out)
	assert.Contains(t, out, "Installed Plugins\n  solidity    0.8.1")
	assert.Contains(t, out, "Available Plugins\n  vyper\n")
}

// unreachableRegistry fails every lookup.
type unreachableRegistry struct{}

func (unreachableRegistry) Available(context.Context) ([]string, error) {
	return nil, errors.New("network unreachable")
}

func TestListAllWithFailingRegistry(t *testing.T) {
	h := newHarness(t, defaultEnvironment(), cli.WithRegistry(unreachableRegistry{}))

	require.NoError(t, h.execute("list", "--all"))

	out := h.stdout.String()
	assert.True(t, strings.HasPrefix(out, "Core Plugins\n  accounts\n"), out)
	assert.Contains(t, out, "Installed Plugins\n  solidity    0.8.1")
	assert.Contains(t, out, "Third-party Plugins\n  custom      0.1.0")
	assert.NotContains(t, out, "Available Plugins")
	assert.Contains(t, h.stderr.String(), "failed to list available plugins")
	assert.Contains(t, h.stderr.String(), "network unreachable")
}

func TestListEmpty(t *testing.T) {
	h := newHarness(t, map[string]string{"eth-ape": "0.8.3"})

	require.NoError(t, h.execute("list", "--offline"))
	assert.Empty(t, h.stdout.String())
	assert.Contains(t, h.stderr.String(), "no plugins installed")
}

func TestInstallCommand(t *testing.T) {
	h := newHarness(t, defaultEnvironment(),
		cli.WithRegistry(registry.Static{"ape-solidity", "ape-vyper"}))
	h.pip.latest["ape-vyper"] = "0.8.2"

	require.NoError(t, h.execute("install", "vyper"))

	installs := commandsWith(h.runner, "install")
	require.Len(t, installs, 1)
	assert.Equal(t, []string{"python3", "-m", "pip", "install", "ape-vyper>=0.8,<0.9", "--quiet"}, installs[0])
	assert.Equal(t, "0.8.2", h.pip.installed["ape-vyper"])
	assert.Contains(t, h.stderr.String(), "plugin has been installed")
}

func TestInstallPinnedVersionAndPythonLocation(t *testing.T) {
	h := newHarness(t, defaultEnvironment(),
		cli.WithRegistry(registry.Static{"ape-vyper"}))

	require.NoError(t, h.execute("install", "vyper==0.8.1", "--python", "/venv/bin/python"))

	installs := commandsWith(h.runner, "install")
	require.Len(t, installs, 1)
	assert.Equal(t, []string{"python3", "-m", "pip", "--python", "/venv/bin/python", "install", "ape-vyper==0.8.1", "--quiet"}, installs[0])
}

func TestInstallCorePluginFails(t *testing.T) {
	h := newHarness(t, defaultEnvironment())

	err := h.execute("install", "--offline", "accounts")
	require.Error(t, err)
	assert.Empty(t, commandsWith(h.runner, "install"))
	assert.Contains(t, h.stderr.String(), "cannot install core plugin")
}

func TestInstallAlreadyInstalledWarns(t *testing.T) {
	h := newHarness(t, defaultEnvironment())

	require.NoError(t, h.execute("install", "--offline", "solidity"))
	assert.Empty(t, commandsWith(h.runner, "install"))
	assert.Contains(t, h.stderr.String(), "did you mean to upgrade")
}

func TestInstallUnknownPluginAsksFirst(t *testing.T) {
	tests := []struct {
		name        string
		answer      bool
		args        []string
		wantInstall bool
		wantAsked   bool
	}{
		{name: "Declined", answer: false, args: []string{"install", "--offline", "mine"}, wantAsked: true},
		{name: "Accepted", answer: true, args: []string{"install", "--offline", "mine"}, wantInstall: true, wantAsked: true},
		{name: "Yes", args: []string{"install", "--offline", "--yes", "mine"}, wantInstall: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asked := false
			confirm := installer.ConfirmFunc(func(string) (bool, error) {
				asked = true
				return tt.answer, nil
			})

			h := newHarness(t, defaultEnvironment(), cli.WithConfirmer(confirm))
			require.NoError(t, h.execute(tt.args...))

			assert.Equal(t, tt.wantAsked, asked)
			assert.Equal(t, tt.wantInstall, len(commandsWith(h.runner, "install")) == 1)
		})
	}
}

func TestInstallFailureReturnsError(t *testing.T) {
	h := newHarness(t, defaultEnvironment(),
		cli.WithRegistry(registry.Static{"ape-vyper"}))
	h.pip.failing["ape-vyper"] = true

	require.Error(t, h.execute("install", "vyper"))
	assert.Contains(t, h.stderr.String(), "failed to install plugin")
}

func TestInstallFromProjectConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ape-config.yaml")
	config := "plugins:\n  - name: vyper\n    version: 0.8.1\n  - name: etherscan\n"
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))

	h := newHarness(t, defaultEnvironment(),
		cli.WithRegistry(registry.Static{"ape-vyper", "ape-etherscan"}))
	t.Setenv("APE_PLUGINS_PROJECT_FILE", path)

	require.NoError(t, h.execute("install", "."))

	assert.Equal(t, "0.8.1", h.pip.installed["ape-vyper"])
	assert.Contains(t, h.pip.installed, "ape-etherscan")
	assert.Len(t, commandsWith(h.runner, "install"), 2)
}

func TestUninstallCommand(t *testing.T) {
	h := newHarness(t, defaultEnvironment())

	require.NoError(t, h.execute("uninstall", "--yes", "solidity"))

	uninstalls := commandsWith(h.runner, "uninstall")
	require.Len(t, uninstalls, 1)
	assert.Equal(t, []string{"python3", "-m", "pip", "uninstall", "-y", "ape-solidity", "--quiet"}, uninstalls[0])
	assert.NotContains(t, h.pip.installed, "ape-solidity")
	assert.Contains(t, h.stderr.String(), "plugin has been uninstalled")
}

func TestUninstallAsksFirst(t *testing.T) {
	var prompt string
	confirm := installer.ConfirmFunc(func(p string) (bool, error) {
		prompt = p
		return false, nil
	})

	h := newHarness(t, defaultEnvironment(), cli.WithConfirmer(confirm))

	require.NoError(t, h.execute("uninstall", "solidity"))
	assert.Equal(t, "Remove the 'solidity' plugin?", prompt)
	assert.Empty(t, commandsWith(h.runner, "uninstall"))
	assert.Contains(t, h.pip.installed, "ape-solidity")
}

func TestUninstallCoreAndMissing(t *testing.T) {
	h := newHarness(t, defaultEnvironment())

	require.Error(t, h.execute("uninstall", "--yes", "accounts"))
	require.NoError(t, h.execute("uninstall", "--yes", "vyper"))
	assert.Empty(t, commandsWith(h.runner, "uninstall"))
}

func TestUpdateCommand(t *testing.T) {
	h := newHarness(t, defaultEnvironment())
	h.pip.latest["ape-solidity"] = "0.8.4"

	require.NoError(t, h.execute("update", "--offline"))

	upgrades := commandsWith(h.runner, "--upgrade")
	require.Len(t, upgrades, 2)
	assert.Contains(t, upgrades, []string{"python3", "-m", "pip", "install", "--upgrade", "ape-solidity>=0.8,<0.9", "--quiet"})

	out := h.stdout.String()
	assert.Contains(t, out, "PLUGIN")
	assert.Regexp(t, `solidity\s+0\.8\.1\s+0\.8\.4\s+changed`, out)
	assert.Regexp(t, `custom\s+0\.1\.0\s+0\.1\.0\s+unchanged`, out)
}

func TestUpdatePreReleaseHost(t *testing.T) {
	installed := defaultEnvironment()
	installed["eth-ape"] = "0.8.0rc1"
	h := newHarness(t, installed)

	require.NoError(t, h.execute("update", "--offline"))
	assert.Contains(t, commandsWith(h.runner, "--upgrade"),
		[]string{"python3", "-m", "pip", "install", "--upgrade", "ape-solidity>=0.8,<0.9", "--quiet"})
}

func TestUpdateWithoutHostVersionFails(t *testing.T) {
	installed := defaultEnvironment()
	delete(installed, "eth-ape")
	h := newHarness(t, installed)

	require.Error(t, h.execute("update", "--offline"))
	assert.Empty(t, commandsWith(h.runner, "--upgrade"))
}

func TestChangeVersionCommand(t *testing.T) {
	h := newHarness(t, defaultEnvironment())
	h.pip.latest["ape-solidity"] = "0.9.0"

	require.NoError(t, h.execute("change-version", "--offline", "0.9.0"))

	installs := commandsWith(h.runner, "install")
	require.Len(t, installs, 3)
	assert.Equal(t, []string{"python3", "-m", "pip", "install", "eth-ape==0.9.0", "--quiet"}, installs[0])
	assert.Contains(t, installs, []string{"python3", "-m", "pip", "install", "ape-solidity>=0.9,<0.10", "--quiet"})
	assert.Contains(t, installs, []string{"python3", "-m", "pip", "install", "ape-custom>=0.9,<0.10", "--quiet"})

	assert.Equal(t, "0.9.0", h.pip.installed["eth-ape"])
	assert.Regexp(t, `solidity\s+0\.8\.1\s+0\.9\.0\s+changed`, h.stdout.String())
}

func TestChangeVersionInvalid(t *testing.T) {
	h := newHarness(t, defaultEnvironment())

	require.Error(t, h.execute("change-version", "--offline", "not-a-version"))
	assert.Empty(t, h.runner.Calls())
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t, defaultEnvironment())

	require.NoError(t, h.execute("version"))
	assert.True(t, strings.HasPrefix(h.stdout.String(), "ape-plugins version "))
}
