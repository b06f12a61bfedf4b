// Package buildinfo identifies the stackquery binary: the release it was
// cut from, shown by --version, and the User-Agent it presents to the
// GitHub and fakestore APIs.
//
// Release builds stamp the values through the linker, e.g.
//
//	go build -ldflags "-X github.com/matzehuels/stackquery/pkg/buildinfo.Version=v0.3.0" ./cmd/stackquery
//
// Commit and Date are stamped the same way. Local builds report "dev".
package buildinfo

import "fmt"

// Stamped by the linker for release builds.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Template is the cobra version template printed by --version.
func Template() string {
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", Version, Commit, Date)
}

// UserAgent names stackquery and its version in outgoing API requests.
func UserAgent() string {
	return "stackquery/" + Version
}
