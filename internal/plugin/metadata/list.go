package metadata

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/ape-plugins/internal/logging"
)

// Installed is an Inventory that can also enumerate installed plugin modules.
type Installed interface {
	Inventory
	PluginModules() []string
}

// Registry lists the module names of plugins offered by a trusted source.
type Registry interface {
	Available(ctx context.Context) ([]string, error)
}

// ListOptions configures Classify and Load.
type ListOptions struct {
	Options

	// IncludeAvailable adds plugins that can be installed from the registry.
	IncludeAvailable bool

	Logger hclog.Logger
}

// List holds plugin metadata grouped by Type.
type List struct {
	Core       *Group
	Available  *Group
	Installed  *Group
	ThirdParty *Group
}

// NewList creates a list with empty groups.
func NewList() *List {
	return &List{
		Core:       NewGroup(TypeCore),
		Available:  NewGroup(TypeAvailable),
		Installed:  NewGroup(TypeInstalled),
		ThirdParty: NewGroup(TypeThirdParty),
	}
}

// Load classifies the core plugins, the installed plugins and, when
// requested, everything the registry offers. A failing registry only drops
// the available group; trust then falls back to the trusted list.
func Load(ctx context.Context, installed Installed, registry Registry, opts ListOptions) (*List, error) {
	ids := slices.Clone(CorePlugins)
	ids = append(ids, installed.PluginModules()...)

	opts.Inventory = installed
	if opts.IncludeAvailable && registry != nil {
		available, err := registry.Available(ctx)
		switch {
		case ctx.Err() != nil:
			return nil, fmt.Errorf("failed to list available plugins: %w", ctx.Err())
		case err != nil:
			logging.OrDiscard(opts.Logger).Named("metadata").
				Warn("failed to list available plugins, showing installed plugins only", "error", err)
		default:
			opts.Catalog = NewCatalog(available...)
			ids = append(ids, available...)
		}
	}

	return Classify(ids, opts), nil
}

// Classify sorts package ids (such as "ape_foo" or "ape-foo==0.1") into
// groups. Ids that are neither core, installed nor available are logged and
// dropped.
func Classify(ids []string, opts ListOptions) *List {
	logger := logging.OrDiscard(opts.Logger).Named("metadata")
	list := NewList()

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		p, err := Parse(id, opts.Options)
		if err != nil {
			logger.Error("invalid plugin id", "id", id, "error", err)
			continue
		}
		if seen[p.ModuleName()] {
			continue
		}
		seen[p.ModuleName()] = true

		if p.InCore() {
			list.Core.Add(p)
			continue
		}

		installed := p.IsInstalled()
		trusted := p.CheckTrusted(false, nil)
		available := opts.IncludeAvailable && p.IsAvailable()

		switch {
		case available && !installed:
			list.Available.Add(p)
		case installed && trusted:
			list.Installed.Add(p)
		case installed:
			list.ThirdParty.Add(p)
		default:
			logger.Error("not a plugin", "plugin", p.Name())
		}
	}

	return list
}

// Group returns the group for t.
func (l *List) Group(t Type) *Group {
	switch t {
	case TypeCore:
		return l.Core
	case TypeInstalled:
		return l.Installed
	case TypeThirdParty:
		return l.ThirdParty
	case TypeAvailable:
		return l.Available
	}
	return nil
}

// All yields every plugin: core, available, installed, then third-party.
func (l *List) All() iter.Seq[*Plugin] {
	return func(yield func(*Plugin) bool) {
		for _, g := range []*Group{l.Core, l.Available, l.Installed, l.ThirdParty} {
			for _, p := range g.Plugins() {
				if !yield(p) {
					return
				}
			}
		}
	}
}

// Get finds a plugin by any spelling of its name. Available plugins are only
// considered when checkAvailable is set.
func (l *List) Get(name string, checkAvailable bool) (*Plugin, bool) {
	module := normalizeModuleName(strings.TrimSpace(name))

	for _, g := range []*Group{l.Core, l.Installed, l.ThirdParty} {
		if p, ok := g.Get(module); ok {
			return p, true
		}
	}
	if checkAvailable {
		return l.Available.Get(module)
	}
	return nil, false
}

// RenderOptions controls List.Render.
type RenderOptions struct {
	// Include selects the sections; empty means installed and third-party.
	Include []Type

	NoVersion bool
	Format    OutputFormat
}

func (l *List) String() string {
	return l.Render(RenderOptions{})
}

// Render prints the selected, non-empty sections separated by blank lines.
// Core and available plugins are printed without versions.
func (l *List) Render(opts RenderOptions) string {
	include := opts.Include
	if len(include) == 0 {
		include = []Type{TypeInstalled, TypeThirdParty}
	}

	var sections []*Group
	for _, t := range Types {
		if slices.Contains(include, t) && !l.Group(t).Empty() {
			sections = append(sections, l.Group(t))
		}
	}
	if len(sections) == 0 {
		return ""
	}

	prefixed := opts.Format == FormatPrefixed
	maxLength := 0
	for _, g := range sections {
		maxLength = max(maxLength, g.MaxNameLength(prefixed))
	}

	formatted := make([]string, len(sections))
	for i, g := range sections {
		formatted[i] = g.Format(FormatOptions{
			MaxLength: maxLength,
			NoVersion: opts.NoVersion || g.Type == TypeCore || g.Type == TypeAvailable,
			Format:    opts.Format,
		})
	}

	return strings.Join(formatted, "\n\n")
}
