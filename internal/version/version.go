package version

import "fmt"

// Build information set by ldflags
var (
	Version = "dev"     // -X github.com/arthur-debert/gistsync/internal/version.Version={{.Version}}
	Commit  = "unknown" // -X github.com/arthur-debert/gistsync/internal/version.Commit={{.Commit}}
	Date    = "unknown" // -X github.com/arthur-debert/gistsync/internal/version.Date={{.Date}}
)

// String is the one-line form used by `gistsync --version`
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}
