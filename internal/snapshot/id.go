package snapshot

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"
)

// TimestampLayout formats the fallback revision marker.
const TimestampLayout = "20060102T150405Z"

// URLID turns an origin URL into a filesystem-safe identifier:
// "https://docs.trunk.io/guide/" becomes "docs.trunk.io_guide".
func URLID(origin string) string {
	id := strings.Trim(origin, "/")
	id = strings.TrimPrefix(id, "https://")
	id = strings.TrimPrefix(id, "http://")
	id = strings.Trim(id, "/")

	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, id)
}

// ID combines the origin id and a revision marker.
func ID(origin, revision string) string {
	if revision == "" {
		return URLID(origin)
	}
	return URLID(origin) + "-" + revision
}

// Revision returns the short git hash of the working directory's HEAD, or
// now formatted with TimestampLayout when git is unavailable.
func Revision(ctx context.Context, now time.Time) string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--short", "HEAD")
	cmd.Stdout = &out
	if err := cmd.Run(); err == nil {
		if rev := strings.TrimSpace(out.String()); rev != "" {
			return rev
		}
	}
	return now.UTC().Format(TimestampLayout)
}
