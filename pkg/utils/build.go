// Build information injected through -ldflags, e.g.
//   go build -ldflags "-X github.com/nobletooth/filecache/pkg/utils.Version=v1.2.0" ./cmd/filecache
// CAUTION: The variable names are part of the build scripts; renaming them silently drops the build info.

package utils

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

// devVersion is reported by binaries built without -ldflags. It is still a valid semantic version.
const devVersion = "v0.0.0-dev"

var (
	TestMode   string // Should be "true" when running tests.
	IsTestMode bool
	Version    string
	Commit     string
	BuildTime  string
	StartTime  time.Time
	Hostname   string
)

func init() {
	StartTime = time.Now()

	if Version == "" {
		Version = devVersion
	}
	if Commit == "" {
		Commit = "unknown"
	}
	if BuildTime == "" {
		BuildTime = "unknown"
	}
	if host, err := os.Hostname(); err == nil {
		Hostname = host
	} else {
		Hostname = "unknown"
	}
	if len(TestMode) > 0 {
		if isTestMode, err := strconv.ParseBool(TestMode); err == nil {
			IsTestMode = isTestMode
		} else {
			slog.Warn("Failed to parse TestMode build flag, defaulting to false", "error", err)
		}
	}
}

// BuildAttrs returns the build information as log attributes.
func BuildAttrs() []any {
	return []any{"version", Version, "commit", Commit, "build", BuildTime, "host", Hostname}
}
