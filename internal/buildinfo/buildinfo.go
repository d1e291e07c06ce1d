// Package buildinfo holds the version constants embedded at build time.
//
// Release builds override the defaults with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/nebula-lang/nebula-setup/internal/buildinfo.ProductVersion=1.2.0"
package buildinfo

var (
	// ProductVersion is the version of the Nebula runtime bundled in the payload.
	ProductVersion = "1.0.0"

	// ExtensionVersion is the version of the editor integration payload.
	// It moves independently of ProductVersion.
	ExtensionVersion = "1.0.0"

	// Commit is the VCS revision the installer was built from.
	Commit = "unknown"
)
