package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// Memory is an in-process store scoring by cosine similarity, for tests
// and local deployments without qdrant.
type Memory struct {
	mu     sync.RWMutex
	points map[string][]Point
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{points: make(map[string][]Point)}
}

func (m *Memory) EnsureReady(context.Context, int) error { return nil }

func (m *Memory) Upsert(_ context.Context, points []Point, namespace string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.points[namespace]
	for _, p := range points {
		replaced := false
		for i := range existing {
			if existing[i].ID == p.ID {
				existing[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, p)
		}
	}
	m.points[namespace] = existing
	return nil
}

func (m *Memory) Query(_ context.Context, vector []float32, namespace string, topK int) ([]Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	points := m.points[namespace]
	matches := make([]Match, 0, len(points))
	for _, p := range points {
		matches = append(matches, Match{
			ID:       p.ID,
			Score:    cosine(vector, p.Vector),
			Metadata: p.Payload,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *Memory) DeleteNamespace(_ context.Context, namespace string) error {
	m.mu.Lock()
	delete(m.points, namespace)
	m.mu.Unlock()
	return nil
}

// Count returns the number of points stored for a namespace.
func (m *Memory) Count(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.points[namespace])
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
