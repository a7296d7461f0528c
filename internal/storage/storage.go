package storage

import (
	"context"
	"io"
)

// ImageStore is the blob-upload boundary consumed by the case service.
// Save returns a public reference for the stored image; Remove accepts a
// reference previously returned by Save. Owns reports whether a reference
// points into this store, so cleanup can skip foreign URLs.
type ImageStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
	Remove(ctx context.Context, ref string) error
	Owns(ref string) bool
}
