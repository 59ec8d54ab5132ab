// Package cache stores generated answers keyed by question fingerprint.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// KeyPrefix namespaces all answer keys in the backing store.
const KeyPrefix = "chembot:qa:"

// nsPrefix namespaces the per-content key indexes.
const nsPrefix = "chembot:ns:"

// Cache maps a (question, content, params) fingerprint to a stored answer.
// Implementations marshal values as JSON.
type Cache interface {
	// Get unmarshals a cached answer into dest. The second return is true on a hit.
	Get(ctx context.Context, question, namespace string, params map[string]any, dest any) (bool, error)
	// Put stores value under the derived key with the configured TTL.
	Put(ctx context.Context, question, namespace string, params map[string]any, value any) error
	// InvalidateNamespace removes every entry stored for one content namespace.
	InvalidateNamespace(ctx context.Context, namespace string) (int, error)
	// ClearAll removes every answer entry.
	ClearAll(ctx context.Context) error
	// Enabled reports whether the cache is currently usable.
	Enabled() bool
	// Stats returns local hit/miss counters.
	Stats() Stats
}

// Stats holds local cache counters.
type Stats struct {
	Enabled bool  `json:"enabled"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Stores  int64 `json:"stores"`
	Errors  int64 `json:"errors"`
}

// HitRate returns the hit percentage over all lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Key derives the cache key for a question. It is a pure function of the
// namespace, the normalized question and the sorted extra parameters, so
// case and whitespace differences never change the key.
func Key(question, namespace string, params map[string]any) string {
	normalized := strings.ToLower(strings.TrimSpace(question))

	material := namespace + ":" + normalized
	if len(params) > 0 {
		// json.Marshal writes map keys in sorted order
		encoded, _ := json.Marshal(params)
		material += ":" + string(encoded)
	}

	sum := sha256.Sum256([]byte(material))
	return KeyPrefix + hex.EncodeToString(sum[:])
}

func nsIndexKey(namespace string) string {
	return nsPrefix + namespace
}
