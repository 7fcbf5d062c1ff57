package cli

import (
	"strings"
	"testing"

	"github.com/jmylchreest/ape-plugins/internal/plugin/environment"
	"github.com/jmylchreest/ape-plugins/internal/plugin/metadata"
)

func TestIndexCacheKey(t *testing.T) {
	a := indexCacheKey("https://example.com/plugins.json")
	b := indexCacheKey("https://mirror.example.com/plugins.json")

	if a == b {
		t.Errorf("indexCacheKey() = %q for both URLs, want distinct keys", a)
	}
	if got := indexCacheKey("https://example.com/plugins.json"); got != a {
		t.Errorf("indexCacheKey() = %q, want stable %q", got, a)
	}
	if !strings.HasPrefix(a, "index-") || len(a) != len("index-")+16 {
		t.Errorf("indexCacheKey() = %q, want index-<16 hex digits>", a)
	}
}

func TestInstalledPluginsNormalizesNames(t *testing.T) {
	s := &session{
		snap: environment.NewSnapshot(
			environment.Distribution{Name: "Ape_Foo", Version: "0.1.0"},
			environment.Distribution{Name: "APE.Solidity", Version: "0.8.1"},
			environment.Distribution{Name: "ape-accounts", Version: "0.8.3"},
			environment.Distribution{Name: "requests", Version: "2.32.0"},
		),
	}
	s.opts = metadata.Options{Inventory: s.snap}

	plugins := installedPlugins(s)

	var got []string
	for _, p := range plugins {
		got = append(got, p.PackageName())
	}
	want := []string{"ape-foo", "ape-solidity"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("installedPlugins() packages = %v, want %v", got, want)
	}
	for _, p := range plugins {
		if !p.IsInstalled() {
			t.Errorf("plugin %q not reported as installed", p.Name())
		}
	}
}
