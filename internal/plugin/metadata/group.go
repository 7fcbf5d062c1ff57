package metadata

import (
	"fmt"
	"sort"
	"strings"
)

// Group holds the plugins of one Type, keyed by module name.
type Group struct {
	Type    Type
	plugins map[string]*Plugin
}

// NewGroup creates an empty group.
func NewGroup(t Type) *Group {
	return &Group{Type: t, plugins: make(map[string]*Plugin)}
}

// Add stores p under its module name, replacing any previous entry.
func (g *Group) Add(p *Plugin) {
	g.plugins[p.ModuleName()] = p
}

// Get looks up a plugin by module name.
func (g *Group) Get(moduleName string) (*Plugin, bool) {
	p, ok := g.plugins[moduleName]
	return p, ok
}

// Len returns the number of plugins.
func (g *Group) Len() int {
	return len(g.plugins)
}

// Empty reports whether the group has no plugins.
func (g *Group) Empty() bool {
	return len(g.plugins) == 0
}

// Name is the capitalised type, e.g. "Installed".
func (g *Group) Name() string {
	return g.Type.Title()
}

// Plugins returns the plugins sorted by name.
func (g *Group) Plugins() []*Plugin {
	out := make([]*Plugin, 0, len(g.plugins))
	for _, p := range g.plugins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Names returns the short names sorted.
func (g *Group) Names() []string {
	plugins := g.Plugins()
	out := make([]string, len(plugins))
	for i, p := range plugins {
		out[i] = p.Name()
	}
	return out
}

// MaxNameLength is the widest label the group would print.
func (g *Group) MaxNameLength(prefixed bool) int {
	longest := 0
	for _, p := range g.plugins {
		longest = max(longest, len(label(p, prefixed)))
	}
	return longest
}

func (g *Group) String() string {
	return g.Format(FormatOptions{})
}

// GoString implements fmt.GoStringer.
func (g *Group) GoString() string {
	return fmt.Sprintf("<%s Plugins Group>", g.Name())
}

// FormatOptions controls Group.Format.
type FormatOptions struct {
	// MaxLength aligns versions across groups. Zero uses the group's own width.
	MaxLength int

	// NoVersion hides versions.
	NoVersion bool

	// Format defaults to FormatDefault.
	Format OutputFormat
}

// Format renders the group.
func (g *Group) Format(opts FormatOptions) string {
	if opts.Format == FormatFreeze {
		return g.formatFreeze(!opts.NoVersion)
	}
	return g.formatDefault(opts.MaxLength, !opts.NoVersion, opts.Format == FormatPrefixed)
}

func (g *Group) formatDefault(maxLength int, includeVersion, prefixed bool) string {
	title := g.Name() + " Plugins"
	if g.Empty() {
		return title
	}

	if maxLength == 0 {
		maxLength = g.MaxNameLength(prefixed)
	}

	lines := []string{title}
	for _, p := range g.Plugins() {
		line := label(p, prefixed)
		if includeVersion {
			if v := displayVersion(p); v != "" {
				spacing := max(maxLength-len(line), 0) + 4
				line += strings.Repeat(" ", spacing) + v
			}
		}
		lines = append(lines, "  "+line)
	}

	return strings.Join(lines, "\n")
}

func (g *Group) formatFreeze(includeVersion bool) string {
	var lines []string
	for _, p := range g.Plugins() {
		line := p.PackageName()
		if includeVersion {
			if v := displayVersion(p); v != "" {
				line += "==" + v
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func label(p *Plugin, prefixed bool) string {
	if prefixed {
		return p.PackageName()
	}
	return p.Name()
}

// displayVersion prefers the requested version and falls back to the
// installed one.
func displayVersion(p *Plugin) string {
	if v := p.Version(); v != "" {
		return v
	}
	return p.CurrentVersion()
}
