// Package vectorstore provides provider-agnostic vector storage and
// nearest-neighbor retrieval scoped by content namespace.
package vectorstore

import "context"

// Point is one embedded chunk ready for upsert.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// Match is one retrieval hit, higher score is better.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// Store is the capability set every vector provider implements. Namespace
// is the content identifier; one logical collection per deployment.
type Store interface {
	// EnsureReady prepares the collection for vectors of the given dimension.
	EnsureReady(ctx context.Context, dimension int) error
	// Upsert writes points under a namespace.
	Upsert(ctx context.Context, points []Point, namespace string) error
	// Query returns the topK closest matches within a namespace,
	// ordered descending by score.
	Query(ctx context.Context, vector []float32, namespace string, topK int) ([]Match, error)
	// DeleteNamespace removes every point stored for a namespace.
	DeleteNamespace(ctx context.Context, namespace string) error
}
