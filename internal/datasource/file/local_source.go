// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/zeebo/xxh3"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the bound filesystem path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading and returns an io.ReadCloser.
//
// Behavior:
//   - If the context is already canceled or its deadline exceeded at the time
//     of the call, Open returns the context error immediately without touching
//     the filesystem.
//   - Any filesystem error is wrapped with the path for context, while still
//     permitting errors.Is/As checks by callers (e.g., errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Fingerprint identifies the exact bytes of a source file.
type Fingerprint struct {
	Path  string
	Size  int64
	XXH3  uint64
	Valid bool
}

// String renders the fingerprint as "size=<n> xxh3=<hex>".
func (f Fingerprint) String() string {
	if !f.Valid {
		return "unavailable"
	}
	return fmt.Sprintf("size=%d xxh3=%016x", f.Size, f.XXH3)
}

// Fingerprint streams the file through xxh3-64. Two runs over an identical
// batch report the same fingerprint.
func (l *Local) Fingerprint(ctx context.Context) (Fingerprint, error) {
	rc, err := l.Open(ctx)
	if err != nil {
		return Fingerprint{Path: l.path}, err
	}
	defer rc.Close()

	h := xxh3.New()
	n, err := io.Copy(h, rc)
	if err != nil {
		return Fingerprint{Path: l.path}, fmt.Errorf("hash %s: %w", l.path, err)
	}
	return Fingerprint{Path: l.path, Size: n, XXH3: h.Sum64(), Valid: true}, nil
}
