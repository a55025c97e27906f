// Package mime is the MIME collaborator sketched in spec.md section 6:
// a function from file extension to content type, returning "" (the Go
// equivalent of null) for anything unrecognized. It intentionally wraps
// the standard library's mime.TypeByExtension rather than hand-rolling a
// lookup table -- there is no third-party extension/content-type table
// among the example repos' dependencies, and the standard library's own
// table (backed by the OS mime.types file plus a built-in fallback set)
// is the canonical Go-ecosystem answer to this exact external
// collaborator, so reaching past it would not be grounded in anything.
package mime

import (
	"mime"
	"path/filepath"
	"strings"
)

// TypeByExtension returns the content type for path's extension, or ""
// if unknown. Any "; charset=..." suffix the standard library appends is
// stripped, since the spec's content type values are bare MIME types.
func TypeByExtension(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return ""
	}
	if idx := strings.IndexByte(t, ';'); idx >= 0 {
		t = strings.TrimSpace(t[:idx])
	}
	return t
}
