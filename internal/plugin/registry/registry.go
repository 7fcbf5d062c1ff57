// Package registry lists the plugins that can be installed from a trusted
// source. Every registry returns plugin module names such as "ape_solidity".
package registry

import (
	"context"
	"slices"
	"sort"
	"strings"
)

const (
	packagePrefix = "ape-"
	modulePrefix  = "ape_"
)

// Registry lists available plugin module names.
type Registry interface {
	Available(ctx context.Context) ([]string, error)
}

// Static is a fixed registry, used offline and in tests.
type Static []string

// Available implements Registry.
func (s Static) Available(context.Context) ([]string, error) {
	return normalize(s), nil
}

// ModuleName converts a repository or package name such as "ape-foo" to a
// module name. Names without a plugin prefix report false.
func ModuleName(name string) (string, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasPrefix(n, packagePrefix):
		return modulePrefix + strings.ReplaceAll(strings.TrimPrefix(n, packagePrefix), "-", "_"), true
	case strings.HasPrefix(n, modulePrefix):
		return n, true
	}
	return "", false
}

// normalize maps names to sorted, de-duplicated module names.
func normalize(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if m, ok := ModuleName(n); ok && m != modulePrefix {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return slices.Compact(out)
}
