// Package security validates remote plugin sources before they are handed to
// the package manager.
package security

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
)

// allowedRemoteSchemes lists the transports accepted after the "git+" prefix.
var allowedRemoteSchemes = []string{"https", "ssh", "git"}

// ValidateGitRemote checks a pip-style git requirement such as
// "git+https://github.com/ApeWorX/ape-foo.git@v0.8.0".
// Only https, ssh and git transports to public hosts are allowed.
func ValidateGitRemote(remote string) error {
	raw, ok := strings.CutPrefix(remote, "git+")
	if !ok {
		return fmt.Errorf("git remote %q must start with git+", remote)
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid git remote: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	allowed := false
	for _, s := range allowedRemoteSchemes {
		if scheme == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("invalid git remote protocol %q (only https, ssh and git allowed)", scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("git remote must have a hostname")
	}

	host := strings.ToLower(parsed.Hostname())
	if isLocalOrPrivateHost(host) {
		return fmt.Errorf("git remote cannot point to local or private hosts: %s", host)
	}

	return nil
}

// isLocalOrPrivateHost checks if a hostname is localhost or a private,
// loopback or link-local address.
func isLocalOrPrivateHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}

	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		return false
	}

	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsUnspecified()
}
