package version

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidSpecifier is returned when a version specifier cannot be parsed.
var ErrInvalidSpecifier = errors.New("invalid version specifier")

// specifierOperators is ordered so that longer operators match first.
var specifierOperators = []string{"===", "~=", "==", "!=", "<=", ">=", "<", ">"}

// Host is the version of the host tool that plugins extend.
// Plugin releases follow the host's minor series while the host is pre-1.0,
// and its major series afterwards.
type Host struct {
	raw string
	v   *semver.Version
}

// ParseHost parses a PEP 440 host version string. Development suffixes are
// stripped, so "0.8.12.dev3+g1a2b" is treated as "0.8.12". Release candidates
// keep their pre-release, so "0.8.0rc1" is "0.8.0-rc.1".
func ParseHost(s string) (*Host, error) {
	cleaned := s
	if idx := strings.Index(cleaned, "dev"); idx >= 0 {
		cleaned = cleaned[:idx]
	}
	cleaned = strings.TrimRight(strings.TrimSpace(cleaned), ".-_")
	if cleaned == "" {
		return nil, fmt.Errorf("parse host version %q: empty version", s)
	}

	v, err := parsePEP440(cleaned)
	if err != nil {
		return nil, fmt.Errorf("parse host version %q: %w", s, err)
	}

	return &Host{raw: s, v: v}, nil
}

// MustParseHost is like ParseHost but panics on error.
func MustParseHost(s string) *Host {
	h, err := ParseHost(s)
	if err != nil {
		panic(err)
	}
	return h
}

// String returns the normalised version.
func (h *Host) String() string {
	return h.v.String()
}

// Raw returns the version string as it was given.
func (h *Host) Raw() string {
	return h.raw
}

// Major returns the major component.
func (h *Host) Major() int {
	return int(h.v.Major())
}

// Minor returns the minor component.
func (h *Host) Minor() int {
	return int(h.v.Minor())
}

// IsPreOne reports whether the host has not reached 1.0 yet.
func (h *Host) IsPreOne() bool {
	return h.Major() == 0
}

// VersionRange returns the specifier for plugin releases compatible with
// this host, e.g. ">=0.8,<0.9" or ">=1,<2".
func (h *Host) VersionRange() string {
	return h.window(0)
}

// NextVersionRange returns the compatibility window of the next release series.
func (h *Host) NextVersionRange() string {
	return h.window(1)
}

// PreviousVersionRange returns the window two series back, matching the
// window used when checking for plugins stuck on an older host.
func (h *Host) PreviousVersionRange() string {
	return h.window(-2)
}

// Base returns the first release of the current series.
func (h *Host) Base() string {
	if h.IsPreOne() {
		return fmt.Sprintf("0.%d.0", h.Minor())
	}
	return fmt.Sprintf("%d.0.0", h.Major())
}

func (h *Host) window(shift int) string {
	if h.IsPreOne() {
		lo := max(h.Minor()+shift, 0)
		return fmt.Sprintf(">=0.%d,<0.%d", lo, lo+1)
	}
	lo := max(h.Major()+shift, 0)
	return fmt.Sprintf(">=%d,<%d", lo, lo+1)
}

// WouldGetDowngraded reports whether installing a plugin pinned by spec
// would pull the host back to an older series. Only pinning and upper-bound
// clauses ("==", "<", "<=") can force a downgrade.
func (h *Host) WouldGetDowngraded(spec string) (bool, error) {
	clauses, err := ParseSpecifiers(spec)
	if err != nil {
		return false, err
	}

	for _, c := range clauses {
		switch c.Operator {
		case "==", "<", "<=":
		default:
			continue
		}

		if !h.IsPreOne() {
			continue
		}

		if int(c.Version.Major()) < h.Major() || int(c.Version.Minor()) < h.Minor() {
			return true, nil
		}
	}

	return false, nil
}

// Specifier is one clause of a comma separated specifier set.
type Specifier struct {
	Operator string
	Version  *semver.Version
}

// ParseSpecifiers splits a specifier set such as ">=0.8,<0.9" into clauses.
// Clause versions follow PEP 440, e.g. "==0.8.1rc1" or "<0.9.post1".
func ParseSpecifiers(spec string) ([]Specifier, error) {
	var clauses []Specifier

	for part := range strings.SplitSeq(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		op := ""
		for _, candidate := range specifierOperators {
			if strings.HasPrefix(part, candidate) {
				op = candidate
				break
			}
		}
		if op == "" {
			return nil, fmt.Errorf("%w: %q has no operator", ErrInvalidSpecifier, part)
		}

		raw := strings.TrimSpace(strings.TrimPrefix(part, op))
		raw = strings.TrimSuffix(raw, ".*")
		v, err := parsePEP440(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidSpecifier, part, err)
		}

		clauses = append(clauses, Specifier{Operator: op, Version: v})
	}

	if len(clauses) == 0 {
		return nil, fmt.Errorf("%w: %q is empty", ErrInvalidSpecifier, spec)
	}

	return clauses, nil
}
