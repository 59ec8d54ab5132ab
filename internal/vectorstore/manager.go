package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SurabhiV1999/ChemBot/internal/chunker"
	"github.com/SurabhiV1999/ChemBot/internal/ratelimit"
)

// Embedder is the embedding surface the manager needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// Manager owns the embedder, the executor and the store, turning chunks
// into points and questions into matches.
type Manager struct {
	store     Store
	embedder  Embedder
	exec      *ratelimit.Executor
	batchSize int
}

// NewManager creates a manager. Embedding calls route through the executor;
// upserts run in batches of batchSize to bound request payloads.
func NewManager(store Store, embedder Embedder, exec *ratelimit.Executor, batchSize int) *Manager {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Manager{
		store:     store,
		embedder:  embedder,
		exec:      exec,
		batchSize: batchSize,
	}
}

// StoreChunks embeds and upserts chunks under a content namespace.
// The progress callback, if set, receives (batches done, total batches).
func (m *Manager) StoreChunks(ctx context.Context, chunks []chunker.Chunk, contentID string, progress func(done, total int)) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := m.store.EnsureReady(ctx, m.embedder.Dimension()); err != nil {
		return 0, fmt.Errorf("prepare vector store: %w", err)
	}

	totalBatches := (len(chunks) + m.batchSize - 1) / m.batchSize
	stored := 0
	start := time.Now()

	for batch := 0; batch < totalBatches; batch++ {
		lo := batch * m.batchSize
		hi := min(lo+m.batchSize, len(chunks))
		group := chunks[lo:hi]

		texts := make([]string, len(group))
		for i, chunk := range group {
			texts[i] = chunk.Text
		}

		vectors, err := ratelimit.Do(ctx, m.exec, func(ctx context.Context) ([][]float32, error) {
			return m.embedder.EmbedBatch(ctx, texts)
		})
		if err != nil {
			return stored, fmt.Errorf("embed batch %d: %w", batch+1, err)
		}

		points := make([]Point, len(group))
		for i, chunk := range group {
			payload := make(map[string]any, len(chunk.Metadata)+4)
			for k, v := range chunk.Metadata {
				payload[k] = v
			}
			payload["text"] = chunk.Text
			payload["chunk_index"] = chunk.Index
			payload["word_count"] = chunk.WordCount
			payload["chunking_strategy"] = chunk.Method

			points[i] = Point{
				ID:      uuid.NewString(),
				Vector:  vectors[i],
				Payload: payload,
			}
		}

		if err := m.store.Upsert(ctx, points, contentID); err != nil {
			return stored, fmt.Errorf("upsert batch %d: %w", batch+1, err)
		}

		stored += len(points)
		if progress != nil {
			progress(batch+1, totalBatches)
		}
	}

	slog.Info("stored chunks", "content_id", contentID, "chunks", stored, "batches", totalBatches, "duration_ms", time.Since(start).Milliseconds())
	return stored, nil
}

// SearchSimilar embeds the query once and runs a single top-k search.
// Provider errors propagate; there is no silent partial failure.
func (m *Manager) SearchSimilar(ctx context.Context, query, contentID string, topK int) ([]Match, error) {
	vector, err := ratelimit.Do(ctx, m.exec, func(ctx context.Context) ([]float32, error) {
		return m.embedder.Embed(ctx, query)
	})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := m.store.Query(ctx, vector, contentID, topK)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	slog.Debug("vector search complete", "content_id", contentID, "top_k", topK, "matches", len(matches))
	return matches, nil
}

// DeleteContent removes all vectors for one content.
func (m *Manager) DeleteContent(ctx context.Context, contentID string) error {
	return m.store.DeleteNamespace(ctx, contentID)
}
