// Package version holds the build version of modplan.
package version

// Overridden at build time:
// go build -ldflags "-X modplan/internal/version.Version=1.0.0 -X modplan/internal/version.Commit=abc123"
var (
	Version = "0.3.0"

	// Commit is the git commit hash
	Commit = "unknown"

	// BuildDate is the build timestamp
	BuildDate = "unknown"
)

// Info returns the version with a short commit when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line version banner.
func Full() string {
	return "modplan version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate
}
