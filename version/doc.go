// Package version provides build-time version information for rendercore.
//
// Set the values with ldflags:
//
//	go build -ldflags "\
//	  -X github.com/ncobase/rendercore/version.Version=1.2.3 \
//	  -X github.com/ncobase/rendercore/version.Branch=main \
//	  -X github.com/ncobase/rendercore/version.Revision=abc123 \
//	  -X 'github.com/ncobase/rendercore/version.BuiltAt=$(date)'"
//
// Values left unset are taken from the build info embedded by the Go
// toolchain (module version, vcs.revision, vcs.time) when available.
package version
