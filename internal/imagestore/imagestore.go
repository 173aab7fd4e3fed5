// Package imagestore keeps copies of generated recipe illustrations so they
// outlive the short-lived URLs image services hand out.
package imagestore

import (
	"context"
	"io"
)

type ImageStore interface {
	Save(ctx context.Context, mimeType string, r io.Reader) (key string, err error)
	// Get returns domain.ErrNotFound for an unknown key.
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
}
