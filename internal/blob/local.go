// Package blob stores raw uploaded files on the local filesystem, addressed
// by forward-slash paths generated by the upload pipeline.
package blob

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Local is a filesystem-backed blob store rooted at a single directory.
// Paths are validated against escaping the root before any write.
type Local struct {
	root string
}

// NewLocal creates a Local store rooted at dir, creating it if needed.
func NewLocal(dir string) (*Local, error) {
	if dir == "" {
		return nil, fmt.Errorf("blob: root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob: create root: %w", err)
	}
	return &Local{root: dir}, nil
}

// Store writes data under the root at the given slash-separated path.
// The content type is accepted for interface compatibility; the filesystem
// has nowhere useful to record it.
func (l *Local) Store(ctx context.Context, blobPath string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clean := path.Clean(blobPath)
	if clean == "." || strings.HasPrefix(clean, "..") || path.IsAbs(clean) {
		return fmt.Errorf("blob: invalid path %q", blobPath)
	}

	full := filepath.Join(l.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("blob: create directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("blob: write %s: %w", clean, err)
	}
	return nil
}

// SanitizeFileName makes an uploaded file name safe for use inside a blob
// path: path separators are stripped outright, and any remaining character
// outside [A-Za-z0-9_.-] becomes an underscore.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "")
	name = strings.ReplaceAll(name, "/", "")

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '_', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
