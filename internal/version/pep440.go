package version

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// pep440Pattern matches a public PEP 440 version with an optional local part.
// Epochs are not supported.
var pep440Pattern = regexp.MustCompile(`(?i)^v?` +
	`(?P<release>\d+(?:\.\d+)*)` +
	`(?:[-_.]?(?P<pre>alpha|beta|preview|pre|rc|a|b|c)[-_.]?(?P<prenum>\d*))?` +
	`(?:-(?P<implicitpost>\d+)|[-_.]?(?P<post>post|rev|r)[-_.]?(?P<postnum>\d*))?` +
	`(?:[-_.]?(?P<dev>dev)[-_.]?(?P<devnum>\d*))?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?$`)

var preReleaseLabels = map[string]string{
	"a":       "a",
	"alpha":   "a",
	"b":       "b",
	"beta":    "b",
	"c":       "rc",
	"rc":      "rc",
	"pre":     "rc",
	"preview": "rc",
}

// parsePEP440 converts a PEP 440 version such as "0.8.1rc1", "0.8.1.post1"
// or "0.8.1.1" into a semantic version. The first three release components
// become major, minor and patch. Pre-release and development segments become
// the semver pre-release, so "0.8.1rc1.dev2" is "0.8.1-rc.1.dev.2". Extra
// release components, post releases and local labels are kept as build
// metadata and do not take part in comparisons.
func parsePEP440(s string) (*semver.Version, error) {
	m := pep440Pattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("%q is not a PEP 440 version", s)
	}
	group := func(name string) string {
		return m[pep440Pattern.SubexpIndex(name)]
	}

	release := strings.Split(group("release"), ".")
	for i, part := range release {
		release[i] = trimNumber(part)
	}
	for len(release) < 3 {
		release = append(release, "0")
	}

	var pre, build []string
	if label := group("pre"); label != "" {
		pre = append(pre, preReleaseLabels[strings.ToLower(label)], numberOrZero(group("prenum")))
	}
	if group("dev") != "" {
		pre = append(pre, "dev", numberOrZero(group("devnum")))
	}

	if len(release) > 3 {
		build = append(build, release[3:]...)
	}
	switch {
	case group("implicitpost") != "":
		build = append(build, "post", trimNumber(group("implicitpost")))
	case group("post") != "":
		build = append(build, "post", numberOrZero(group("postnum")))
	}
	if local := group("local"); local != "" {
		build = append(build, "local")
		build = append(build, strings.FieldsFunc(strings.ToLower(local), isLocalSeparator)...)
	}

	out := strings.Join(release[:3], ".")
	if len(pre) > 0 {
		out += "-" + strings.Join(pre, ".")
	}
	if len(build) > 0 {
		out += "+" + strings.Join(build, ".")
	}

	return semver.NewVersion(out)
}

// trimNumber drops leading zeros, which semver rejects in numeric identifiers.
func trimNumber(s string) string {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return s
	}
	return strconv.FormatUint(n, 10)
}

func numberOrZero(s string) string {
	if s == "" {
		return "0"
	}
	return trimNumber(s)
}

func isLocalSeparator(r rune) bool {
	return r == '-' || r == '_' || r == '.'
}
