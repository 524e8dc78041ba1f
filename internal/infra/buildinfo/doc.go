// Package buildinfo reports the version of the respkv binaries.
//
// Release builds set the variables with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/respkv/internal/infra/buildinfo.Version=v1.0.0"
//
// Otherwise Version, Commit and BuildTime are taken from the module and VCS
// stamps the Go toolchain embeds, when present.
package buildinfo
