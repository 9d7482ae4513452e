// ABOUTME: Build version information
// ABOUTME: Version is overridden at link time with -ldflags "-X .../internal/version.Version=..."
package version

// Version of the heywifi build
var Version = "0.1.0-dev"

const (
	// Product identifies the receiver in logs and the status view
	Product = "heywifi"

	// Manufacturer of the receiver
	Manufacturer = "heywifi project"
)

// String returns "heywifi <version>"
func String() string {
	return Product + " " + Version
}
