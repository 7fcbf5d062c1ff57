package metadata

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/ape-plugins/internal/version"
)

// fakeInventory maps package names to installed versions.
type fakeInventory map[string]string

func (f fakeInventory) IsInstalled(pkg string) bool {
	_, ok := f[pkg]
	return ok
}

func (f fakeInventory) Version(pkg string) string { return f[pkg] }

func (f fakeInventory) PluginModules() []string {
	var out []string
	for pkg := range f {
		out = append(out, ModuleNameOf(CleanName(pkg)))
	}
	return out
}

const remote = "git+https://github.com/ApeWorX/ape-foo.git@main"

func TestNewNormalisesName(t *testing.T) {
	tests := []struct {
		name        string
		inName      string
		inVersion   string
		wantName    string
		wantVersion string
	}{
		{"short", "trezor", "", "trezor", ""},
		{"package name", "ape-trezor", "", "trezor", ""},
		{"module name", "ape_polygon_zkevm", "", "polygon-zkevm", ""},
		{"explicit version", "trezor", "0.4.0", "trezor", "0.4.0"},
		{"pinned in name", "trezor==0.4.0", "", "trezor", "==0.4.0"},
		{"lower bound in name", "ape-trezor>=0.4", "", "trezor", ">=0.4"},
		{"upper bound in name", "trezor<=0.5,>=0.4", "", "trezor", "<=0.5,>=0.4"},
		{"strict bound is not split", "trezor>0.4", "", "trezor>0.4", ""},
		{"remote in name", "foo@" + remote, "", "foo", remote},
		{"remote as name", remote, "", "foo", remote},
		{"remote as version", "foo", remote, "foo", remote},
		{"whitespace", "  trezor ", "", "trezor", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.inName, tt.inVersion, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, p.Name())
			assert.Equal(t, tt.wantVersion, p.Version())
		})
	}
}

func TestNewRemoteMismatch(t *testing.T) {
	_, err := New("bar", remote, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRemoteMismatch))
}

func TestNewEmptyName(t *testing.T) {
	for _, name := range []string{"", "   ", "ape-"} {
		_, err := New(name, "", Options{})
		assert.ErrorIs(t, err, ErrNameRequired, "name %q", name)
	}
}

func TestParse(t *testing.T) {
	p, err := Parse("ape-foo==0.1.0", Options{})
	require.NoError(t, err)
	assert.Equal(t, "foo", p.Name())
	assert.Equal(t, "0.1.0", p.Version())

	p, err = Parse("ape_bar", Options{})
	require.NoError(t, err)
	assert.Equal(t, "bar", p.Name())
	assert.Empty(t, p.Version())
}

func TestDerivedNames(t *testing.T) {
	p := MustNew("polygon-zkevm", "", Options{})
	assert.Equal(t, "ape-polygon-zkevm", p.PackageName())
	assert.Equal(t, "ape_polygon_zkevm", p.ModuleName())
}

func TestInstallString(t *testing.T) {
	host := version.MustParseHost("0.8.12")

	tests := []struct {
		name    string
		version string
		host    *version.Host
		want    string
	}{
		{"default range", "", host, "ape-foo>=0.8,<0.9"},
		{"bare version", "0.8.1", host, "ape-foo==0.8.1"},
		{"explicit specifier", ">=0.8.2", host, "ape-foo>=0.8.2"},
		{"remote", remote, host, remote},
		{"no host", "", nil, "ape-foo"},
		{"no host with version", "0.1.0", nil, "ape-foo==0.1.0"},
		{"release candidate", "0.8.12rc1", host, "ape-foo==0.8.12rc1"},
		{"alpha", "0.8.13a2", host, "ape-foo==0.8.13a2"},
		{"beta", "0.8.13b1", host, "ape-foo==0.8.13b1"},
		{"post release", "0.8.12.post1", host, "ape-foo==0.8.12.post1"},
		{"four part", "0.8.12.1", host, "ape-foo==0.8.12.1"},
		{"dev release", "==0.8.12.dev0", host, "ape-foo==0.8.12.dev0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MustNew("foo", tt.version, Options{Host: tt.host})
			got, err := p.InstallString()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInstallStringDowngrade(t *testing.T) {
	for _, v := range []string{"0.7.0", "0.7.0rc1", "0.7.0.post1"} {
		t.Run(v, func(t *testing.T) {
			p := MustNew("foo", v, Options{Host: version.MustParseHost("0.8.12")})

			_, err := p.InstallString()
			require.Error(t, err)

			var verr *VersionError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, "install", verr.Verb)
			assert.Contains(t, err.Error(), "downgrade")
		})
	}
}

func TestInstallStringPreReleaseHost(t *testing.T) {
	p := MustNew("foo", "", Options{Host: version.MustParseHost("0.8.0rc1")})

	got, err := p.InstallString()
	require.NoError(t, err)
	assert.Equal(t, "ape-foo>=0.8,<0.9", got)
}

func TestInstallStringInvalidSpecifier(t *testing.T) {
	p := MustNew("foo", "==banana", Options{Host: version.MustParseHost("0.8.12")})

	_, err := p.InstallString()
	assert.ErrorIs(t, err, version.ErrInvalidSpecifier)
}

func TestInstallationState(t *testing.T) {
	inv := fakeInventory{"ape-foo": "0.8.1"}
	opts := Options{Inventory: inv}

	installed := MustNew("foo", "", opts)
	assert.True(t, installed.IsInstalled())
	assert.Equal(t, "0.8.1", installed.CurrentVersion())
	assert.False(t, installed.CanInstall())

	sameVersion := MustNew("foo", "0.8.1", opts)
	assert.False(t, sameVersion.CanInstall())

	otherVersion := MustNew("foo", "0.8.2", opts)
	assert.True(t, otherVersion.CanInstall())

	missing := MustNew("bar", "", opts)
	assert.False(t, missing.IsInstalled())
	assert.True(t, missing.CanInstall())
	assert.Empty(t, missing.CurrentVersion())
}

func TestInCore(t *testing.T) {
	assert.True(t, MustNew("ethereum", "", Options{}).InCore())
	assert.True(t, MustNew("ape_networks", "", Options{}).InCore())
	assert.False(t, MustNew("trezor", "", Options{}).InCore())
}

func TestTrust(t *testing.T) {
	inv := fakeInventory{"ape-trezor": "0.8.0", "ape-custom": "0.1.0"}

	offline := Options{Inventory: inv}
	assert.True(t, MustNew("trezor", "", offline).IsTrusted())
	assert.False(t, MustNew("custom", "", offline).IsTrusted())
	assert.True(t, MustNew("custom", "", offline).IsThirdParty())

	online := Options{Inventory: inv, Catalog: NewCatalog("ape_custom")}
	assert.True(t, MustNew("custom", "", online).IsTrusted())
	assert.True(t, MustNew("custom", "", online).IsAvailable())
	assert.False(t, MustNew("trezor", "", online).IsTrusted())

	p := MustNew("custom", "", Options{Trusted: []string{"custom"}})
	assert.True(t, p.CheckTrusted(false, nil))
	assert.False(t, p.CheckTrusted(false, []string{"other"}))
}

func TestString(t *testing.T) {
	tests := []struct {
		version string
		want    string
	}{
		{"", "trezor"},
		{"0.4.0", "trezor==0.4.0"},
		{">=0.4", "trezor"},
		{remote, remote},
	}

	for _, tt := range tests {
		name := "trezor"
		if tt.version == remote {
			name = "foo"
		}
		p := MustNew(name, tt.version, Options{})
		assert.Equal(t, tt.want, p.String())
	}
}

func TestWithInventory(t *testing.T) {
	p := MustNew("foo", "", Options{})
	assert.False(t, p.IsInstalled())

	updated := p.WithInventory(fakeInventory{"ape-foo": "1.0.0"})
	assert.True(t, updated.IsInstalled())
	assert.False(t, p.IsInstalled())
}
