// Package cache stores pipeline results keyed by content hash.
//
// Three backends implement [Cache]: [FileCache] for the CLI, [RedisCache]
// for servers sharing results across replicas, and [NullCache] when caching
// is disabled. A [Keyer] turns inputs and options into cache keys so that
// every backend agrees on naming.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	InputTTL  = 7 * 24 * time.Hour
	LayoutTTL = 30 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
type Cache interface {
	// Get returns the stored value and true, or nil and false on a miss.
	// Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Keyer derives cache keys.
type Keyer interface {
	// InputKey names a parsed input document of the given variant.
	InputKey(variant string, content []byte) string

	// LayoutKey names the layout computed from an input under opts.
	LayoutKey(inputHash string, opts LayoutKeyOpts) string

	// ArtifactKey names a rendered preview of a layout.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts lists every option that changes a computed layout.
type LayoutKeyOpts struct {
	Variant        string  `json:"variant"`
	Direction      string  `json:"direction"`
	TensorKind     string  `json:"tensor_kind"`
	Width          float64 `json:"width"`
	Height         float64 `json:"height"`
	WidthFraction  float64 `json:"width_fraction"`
	HeightFraction float64 `json:"height_fraction"`
	Gap            float64 `json:"gap"`
	CharWidth      float64 `json:"char_width"`
	LineHeight     float64 `json:"line_height"`
	Padding        float64 `json:"padding"`
	StrictOrder    bool    `json:"strict_order"`
	BreakCycles    bool    `json:"break_cycles"`
}

// ArtifactKeyOpts lists every option that changes a rendered preview.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Engine string `json:"engine,omitempty"`
}

// DefaultKeyer produces "kind:sha256" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// InputKey implements [Keyer].
func (DefaultKeyer) InputKey(variant string, content []byte) string {
	return "input:" + variant + ":" + Hash(content)
}

// LayoutKey implements [Keyer].
func (DefaultKeyer) LayoutKey(inputHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", inputHash, opts)
}

// ArtifactKey implements [Keyer].
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}

var _ Keyer = DefaultKeyer{}
