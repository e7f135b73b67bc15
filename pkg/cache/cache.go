// Package cache provides the artifact cache used by the render pipeline:
// rendered figures are stored under content-derived keys so repeated
// requests for the same field, options and size skip the draw entirely.
//
// Backends: file (CLI default), Redis and MongoDB (server deployments),
// and a null cache for disabling caching.
package cache

import (
	"context"
	"time"
)

// Cache is the storage interface shared by all backends.
type Cache interface {
	// Get retrieves a value. The bool reports a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value with an optional TTL (0 means no expiry).
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Keyer builds cache keys for rendered figures.
type Keyer interface {
	// FigureKey identifies a rendered figure by the content hash of its
	// input data plus every option that changes the output.
	FigureKey(contentHash string, opts FigureKeyOpts) string
}

// FigureKeyOpts are the render options that participate in figure keys.
// Any field added here invalidates previously cached figures, which is the
// point: two figures with different options must never share a key.
type FigureKeyOpts struct {
	Kind        string
	Variable    string
	Level       float64
	Region      string
	Site        string
	TopPressure float64
	Width       int
	Height      int
	Format      string

	// AuxHashes are content hashes of the auxiliary inputs that shape the
	// figure beyond the primary data file: overlay fields, spec files,
	// boundary and airport geography. Order matters and must be stable.
	AuxHashes []string
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// FigureKey generates a key for a rendered figure.
func (k *DefaultKeyer) FigureKey(contentHash string, opts FigureKeyOpts) string {
	return hashKey("figure", contentHash, opts)
}
