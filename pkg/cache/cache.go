// Package cache provides pluggable byte caches and cache-key generation for
// the layout pipeline.
//
// The pipeline caches two expensive stages independently: workflow detection
// (keyed by snapshot hash plus detection options) and the finished layout
// (keyed by snapshot hash plus layout options). Backends cover CLI usage
// (FileCache), servers (RedisCache), and tests (NullCache).
package cache

import (
	"context"
	"time"
)

// TTLs per cached stage. Detection and layout are pure functions of their
// key inputs, so long TTLs are safe; entries exist to bound disk/redis use,
// not correctness.
const (
	// TTLSnapshot applies to raw graph snapshots mirrored by the server.
	TTLSnapshot = 24 * time.Hour

	// TTLDetect applies to cached detection results.
	TTLDetect = 7 * 24 * time.Hour

	// TTLLayout applies to cached finalized layouts.
	TTLLayout = 7 * 24 * time.Hour
)

// Cache is a byte-oriented cache with TTL support.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss;
// errors are reserved for backend failures. A ttl of 0 in Set means no
// expiration.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DetectKeyOpts are the detection options that affect cached results.
type DetectKeyOpts struct {
	PivotType      string `json:"pivot_type"`
	MergeThreshold int    `json:"merge_threshold"`
}

// LayoutKeyOpts are the options that affect a cached layout. Any option
// that changes geometry or grouping must appear here or stale layouts get
// served.
type LayoutKeyOpts struct {
	PivotType      string  `json:"pivot_type"`
	MergeThreshold int     `json:"merge_threshold"`
	NodeSep        float64 `json:"node_sep"`
	RankSep        float64 `json:"rank_sep"`
	Margin         float64 `json:"margin"`
	FontSize       float64 `json:"font_size"`
	MaxWidth       float64 `json:"max_width"`
}

// Keyer generates cache keys for the pipeline stages.
type Keyer interface {
	// SnapshotKey keys a raw graph snapshot by its content hash.
	SnapshotKey(hash string) string

	// DetectKey keys a detection result by snapshot hash and options.
	DetectKey(snapshotHash string, opts DetectKeyOpts) string

	// LayoutKey keys a finalized layout by snapshot hash and options.
	LayoutKey(snapshotHash string, opts LayoutKeyOpts) string
}

// DefaultKeyer generates hash-based keys with stage prefixes.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// SnapshotKey generates a key for a raw snapshot.
func (k *DefaultKeyer) SnapshotKey(hash string) string {
	return "snapshot:" + hash
}

// DetectKey generates a key for a detection result.
func (k *DefaultKeyer) DetectKey(snapshotHash string, opts DetectKeyOpts) string {
	return hashKey("detect", snapshotHash, opts)
}

// LayoutKey generates a key for a finalized layout.
func (k *DefaultKeyer) LayoutKey(snapshotHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", snapshotHash, opts)
}
