// Package handle generates record handles.
// Handles are opaque to every other package; they are produced here as
// dash-free UUIDv7 hex strings so freshly created records sort by creation time.
package handle

import (
	"strings"

	"github.com/google/uuid"
)

// New generates a new time-ordered handle.
func New() string {
	u, err := uuid.NewV7()
	if err != nil {
		// Fallback to V4 if V7 fails (should never happen)
		u = uuid.New()
	}
	return strings.ReplaceAll(u.String(), "-", "")
}

// Valid reports whether s looks like a handle produced by New.
// Handles imported from other systems need not pass this check.
func Valid(s string) bool {
	if len(s) != 32 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
