// Package cache implements the byte cache tiers read by stream resolution:
// a short-term in-memory player cache and a long-term download cache stored
// on disk or in MinIO.
package cache

import (
	"context"
	"errors"
	"io"
)

// ErrMiss is returned by Open when the requested range is not cached.
var ErrMiss = errors.New("cache miss")

// Tier is a cache that can report and serve byte ranges of a track.
// A negative length means "until the end of the content".
type Tier interface {
	Has(ctx context.Context, key string, pos, length int64) bool
	Open(ctx context.Context, key string, pos, length int64) (io.ReadCloser, error)
}

// Store is a download tier holding complete tracks.
type Store interface {
	Tier
	Put(ctx context.Context, key string, r io.Reader, size int64) error
	Remove(ctx context.Context, key string) error
}
