package syncx

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the semantic version of this module.
const Version = "v0.1.0"

// Info describes the running library.
type Info struct {
	// Version is the canonical semantic version.
	Version string

	// MajorMinor is the vMAJOR.MINOR prefix of Version.
	MajorMinor string

	// Prerelease is the -suffix of Version, if any.
	Prerelease string

	// Algorithm names the condition variable implementation.
	Algorithm string
}

// GetInfo returns information about the library.
//
//	info := syncx.GetInfo()
//	fmt.Printf("condsync %s (%s)\n", info.Version, info.Algorithm)
func GetInfo() Info {
	return Info{
		Version:    semver.Canonical(Version),
		MajorMinor: semver.MajorMinor(Version),
		Prerelease: semver.Prerelease(Version),
		Algorithm:  "epoch ticket relay",
	}
}

// Compatible reports whether code written against version want can use
// this library: same major version and not newer than Version. The
// leading "v" is optional.
func Compatible(want string) bool {
	if !strings.HasPrefix(want, "v") {
		want = "v" + want
	}
	if !semver.IsValid(want) {
		return false
	}
	return semver.Major(want) == semver.Major(Version) && semver.Compare(want, Version) <= 0
}
