// Package version carries the build identity stamped into the membridge
// binaries. There is no build file in this repo; release builds inject
// both values directly:
//
//	go build -ldflags "\
//	  -X membridge/internal/version.Version=v0.3.0 \
//	  -X membridge/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/membridge
//
// Unstamped builds report "dev". The value also reaches clients: the
// initialize handshake advertises Version in its serverInfo.
package version

import "fmt"

// Version is the release tag, "dev" when built without ldflags.
var Version = "dev"

// BuildTime is the UTC build timestamp, "unknown" when built without
// ldflags.
var BuildTime = "unknown"

// String returns the formatted version information.
func String() string {
	return fmt.Sprintf("membridge version %s (built %s)", Version, BuildTime)
}
