// Package version reports the framegraph build.
//
// Version, commit and build time are stamped at link time:
//
//	go build -ldflags "-X github.com/kbukum/framegraph/version.Version=0.4.0" ./cmd/framegraph
//
// Fields left empty are filled from the module's embedded VCS settings.
package version
