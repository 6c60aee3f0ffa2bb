// Package version carries the stagehand module version.
package version

var version = "1.0.0"

// GetVersion returns the semver compatible version number.
func GetVersion() string {
	return version
}
