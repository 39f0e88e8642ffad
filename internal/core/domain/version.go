package domain

import (
	"regexp"
	"strconv"

	"github.com/Masterminds/semver/v3"
	"go.trai.ch/zerr"
)

var versionRE = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// DetectVersion scans free-form probe output (--version and friends) for
// the first dotted version number. It returns nil when none is found;
// callers treat that as "version unknown", never as an error.
func DetectVersion(output string) *semver.Version {
	m := versionRE.FindStringSubmatch(output)
	if m == nil {
		return nil
	}

	major, _ := strconv.ParseUint(m[1], 10, 64)
	minor, _ := strconv.ParseUint(m[2], 10, 64)
	var patch uint64
	if m[3] != "" {
		patch, _ = strconv.ParseUint(m[3], 10, 64)
	}
	return semver.New(major, minor, patch, "", "")
}

// VersionInRange reports whether v satisfies the constraint. A nil version
// or a malformed constraint never matches.
func VersionInRange(v *semver.Version, constraint string) bool {
	if v == nil {
		return false
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// CheckVersionConstraint validates a user-supplied constraint string up
// front so resolution errors mention the constraint, not a parser detail.
func CheckVersionConstraint(constraint string) error {
	if constraint == "" {
		return nil
	}
	if _, err := semver.NewConstraint(constraint); err != nil {
		return zerr.With(zerr.Wrap(err, "invalid version constraint"),
			"constraint", constraint)
	}
	return nil
}
