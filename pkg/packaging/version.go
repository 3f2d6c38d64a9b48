package packaging

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver"
)

// modernInterpreter is the first interpreter release that dropped
// windows 9x and me. Builds against it get a MinVersion, and lose the
// w9xpopen helper.
const modernInterpreter = ">= 2.6"

// isModernInterpreter reports whether version satisfies
// modernInterpreter. Unparseable or empty versions are not modern;
// we'd rather bundle an unneeded helper than drop a needed one.
func isModernInterpreter(version string) bool {
	if version == "" {
		return false
	}

	v, err := parseInterpreterVersion(version)
	if err != nil {
		return false
	}

	c, err := semver.NewConstraint(modernInterpreter)
	if err != nil {
		return false
	}

	return c.Check(v)
}

// interpreterVersions returns the dotted and the compact major/minor
// forms of an interpreter version. (eg: 2.6 and 26)
func interpreterVersions(version string) (string, string, error) {
	v, err := parseInterpreterVersion(version)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("%d.%d", v.Major(), v.Minor()), fmt.Sprintf("%d%d", v.Major(), v.Minor()), nil
}

var interpreterVersionRegex = regexp.MustCompile(`^(\d+)\.(\d+)`)

// parseInterpreterVersion parses the major.minor prefix of an
// interpreter version. Release candidates (3.11.0rc1) and builds
// (2.7.18+) are the same interpreter as far as we're concerned.
func parseInterpreterVersion(version string) (*semver.Version, error) {
	m := interpreterVersionRegex.FindStringSubmatch(version)
	if m == nil {
		return nil, fmt.Errorf("parse interpreter version %q: no major.minor", version)
	}

	v, err := semver.NewVersion(m[1] + "." + m[2])
	if err != nil {
		return nil, fmt.Errorf("parse interpreter version %q: %w", version, err)
	}
	return v, nil
}

var versionRegex = regexp.MustCompile(`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:[.-](\d+).*)?`)

// formatVersion formats the version for VersionInfoVersion. Windows
// version resources must conform to W.X.Y.Z, so we convert what we
// have into that.
func formatVersion(rawVersion string) (string, error) {
	matches := versionRegex.FindAllStringSubmatch(rawVersion, -1)

	if len(matches) == 0 {
		return "", fmt.Errorf("Version %s did not match expected format", rawVersion)
	}

	if len(matches[0]) != 5 {
		return "", fmt.Errorf("Something very wrong. Expected 5 subgroups got %d from string %s", len(matches), rawVersion)
	}

	major := matches[0][1]
	minor := matches[0][2]
	patch := matches[0][3]
	build := matches[0][4]

	// If things are "", they should be 0
	if minor == "" {
		minor = "0"
	}
	if patch == "" {
		patch = "0"
	}
	if build == "" {
		build = "0"
	}

	return fmt.Sprintf("%s.%s.%s.%s", major, minor, patch, build), nil
}
