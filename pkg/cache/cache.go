// Package cache stores generation results keyed by their inputs.
//
// Generation is a pure function of (graph, constraints, parameters, seed),
// so a result computed once can be served again byte for byte. The package
// provides a [Cache] interface with file, Redis and null backends, and a
// [Keyer] that turns generation inputs into content-addressed keys.
//
// Backends:
//
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for the HTTP server
//   - [NullCache]: never stores anything (--no-cache)
//
// Keys are built by a [Keyer]. [ScopedKeyer] prefixes every key, which
// keeps entries of different generators or tenants apart in a shared Redis.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with expiration.
//
// Get reports a miss with (nil, false, nil); errors are reserved for
// backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys.
type Keyer interface {
	// ResultKey addresses one generation result.
	ResultKey(graphHash string, opts ResultKeyOpts) string
}

// ResultKeyOpts are the inputs of a generation run besides the graph.
type ResultKeyOpts struct {
	Seed            uint64
	ConstraintsHash string
	Parameters      map[string]any
}

// DefaultKeyer builds unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ResultKey returns "result:<sha256>" over the graph hash and opts.
// Parameter maps hash identically regardless of insertion order.
func (DefaultKeyer) ResultKey(graphHash string, opts ResultKeyOpts) string {
	return hashKey("result", graphHash, opts.ConstraintsHash, opts.Seed, opts.Parameters)
}

var _ Keyer = DefaultKeyer{}
