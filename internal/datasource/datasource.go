// Package datasource defines how raw source bytes are obtained.
package datasource

import (
	"context"
	"io"
)

// Source opens the raw input for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
