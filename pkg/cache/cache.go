// Package cache stores computed results (focus orders, rendered graphs)
// keyed by the content they were computed from.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: shared cache for several API instances
//   - [NullCache]: never stores anything, used when caching is disabled
//
// # Keys
//
// A [Keyer] derives keys from a hash of the commit log plus the options that
// influence the result, so a changed log or option never hits a stale entry:
//
//	keyer := cache.NewDefaultKeyer()
//	key := keyer.OrderKey(cache.Hash(logBytes), cache.OrderKeyOpts{Focus: "main"})
package cache

import (
	"context"
	"time"
)

// Default time-to-live per entry kind. Entries are keyed by content, so
// they never go stale; the TTL only bounds disk and memory use.
const (
	TTLOrder    = 7 * 24 * time.Hour
	TTLArtifact = 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and true, or false on a miss.
	// Expired and corrupt entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Keyer generates cache keys.
type Keyer interface {
	// OrderKey identifies a commit order computed from a log.
	OrderKey(logHash string, opts OrderKeyOpts) string

	// ArtifactKey identifies a rendered artifact of a log.
	ArtifactKey(logHash string, opts ArtifactKeyOpts) string
}

// OrderKeyOpts are the options that change a computed order.
type OrderKeyOpts struct {
	Focus         string `json:"focus,omitempty"` // focused head (ref or hash)
	MaxLookback   int    `json:"max_lookback,omitempty"`
	MaxLayoutJump int    `json:"max_layout_jump,omitempty"`
}

// ArtifactKeyOpts are the options that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format   string   `json:"format"`             // "dot", "svg", "pdf", "png" or "json"
	View     string   `json:"view,omitempty"`     // "collapsed" or "filter"
	Branches []string `json:"branches,omitempty"` // visible branch heads
	Filter   string   `json:"filter,omitempty"`   // hash prefix filter
	Priority []string `json:"priority,omitempty"` // layout head priority
	Collapse bool     `json:"collapse,omitempty"`
	Detailed bool     `json:"detailed,omitempty"`
}

// DefaultKeyer produces "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// OrderKey implements Keyer.
func (DefaultKeyer) OrderKey(logHash string, opts OrderKeyOpts) string {
	return hashKey("order", logHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(logHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", logHash, opts)
}
