package metadata

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Type classifies a plugin.
type Type string

const (
	// TypeCore plugins ship with the host.
	TypeCore Type = "core"

	// TypeInstalled plugins are installed and maintained by a trusted source.
	TypeInstalled Type = "installed"

	// TypeThirdParty plugins are installed but not maintained by a trusted source.
	TypeThirdParty Type = "third-party"

	// TypeAvailable plugins can be installed from the trusted registry.
	TypeAvailable Type = "available"
)

// Types lists every Type in display order.
var Types = []Type{TypeCore, TypeInstalled, TypeThirdParty, TypeAvailable}

// ParseType parses a type name.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case TypeCore, TypeInstalled, TypeThirdParty, TypeAvailable:
		return t, nil
	}
	return "", fmt.Errorf("unknown plugin type %q (want core, installed, third-party or available)", s)
}

// Title is the capitalised type, e.g. "Third-party".
func (t Type) Title() string {
	s := string(t)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// TypeList is a pflag.Value collecting types from repeated or comma separated flags.
type TypeList []Type

var _ pflag.Value = (*TypeList)(nil)

func (l *TypeList) String() string {
	parts := make([]string, len(*l))
	for i, t := range *l {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// Set implements pflag.Value.
func (l *TypeList) Set(s string) error {
	for part := range strings.SplitSeq(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := ParseType(part)
		if err != nil {
			return err
		}
		*l = append(*l, t)
	}
	return nil
}

// Type implements pflag.Value.
func (l *TypeList) Type() string {
	return "types"
}

// OutputFormat selects how plugin listings are rendered.
type OutputFormat string

const (
	// FormatDefault shows titled sections with short names.
	FormatDefault OutputFormat = "default"

	// FormatPrefixed shows titled sections with package names.
	FormatPrefixed OutputFormat = "prefixed"

	// FormatFreeze shows "package==version" lines, like a requirements file.
	FormatFreeze OutputFormat = "freeze"
)

var _ pflag.Value = (*OutputFormat)(nil)

func (f *OutputFormat) String() string {
	if *f == "" {
		return string(FormatDefault)
	}
	return string(*f)
}

// Set implements pflag.Value.
func (f *OutputFormat) Set(s string) error {
	switch v := OutputFormat(strings.ToLower(strings.TrimSpace(s))); v {
	case FormatDefault, FormatPrefixed, FormatFreeze:
		*f = v
		return nil
	}
	return fmt.Errorf("unknown output format %q (want default, prefixed or freeze)", s)
}

// Type implements pflag.Value.
func (f *OutputFormat) Type() string {
	return "format"
}
