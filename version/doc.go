// Package version exposes build information for resourcekit binaries.
//
//	go build -ldflags "-X github.com/kbukum/resourcekit/version.Version=1.0.0"
package version
