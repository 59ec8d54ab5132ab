package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/SurabhiV1999/ChemBot/internal/chunker"
	"github.com/SurabhiV1999/ChemBot/internal/llm"
	"github.com/SurabhiV1999/ChemBot/internal/ratelimit"
)

// fakeEmbedder maps texts to fixed 3-dimensional vectors.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	// Stable fallback derived from the text length
	return []float32{float32(len(text)), 1, 0}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vectorFor(text), nil
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.vectorFor(t)
	}
	return out, nil
}

func (f *fakeEmbedder) Dimension() int { return 3 }

// recordingStore wraps Memory and records upsert batch sizes.
type recordingStore struct {
	*Memory
	batchSizes []int
}

func (r *recordingStore) Upsert(ctx context.Context, points []Point, namespace string) error {
	r.batchSizes = append(r.batchSizes, len(points))
	return r.Memory.Upsert(ctx, points, namespace)
}

func testExecutor() *ratelimit.Executor {
	return ratelimit.New(2, 1, time.Millisecond, 2.0, llm.IsRetryable)
}

func makeChunks(n int) []chunker.Chunk {
	chunks := make([]chunker.Chunk, n)
	for i := range chunks {
		chunks[i] = chunker.Chunk{
			Text:      fmt.Sprintf("chunk %d text", i),
			Metadata:  map[string]any{"section_title": "S"},
			WordCount: 3,
			Index:     i,
			Method:    "heuristic",
		}
	}
	return chunks
}

func TestStoreChunksBatches(t *testing.T) {
	store := &recordingStore{Memory: NewMemory()}
	m := NewManager(store, &fakeEmbedder{}, testExecutor(), 2)

	var progress []int
	stored, err := m.StoreChunks(context.Background(), makeChunks(5), "doc1", func(done, total int) {
		progress = append(progress, done)
		if total != 3 {
			t.Errorf("total batches = %d, want 3", total)
		}
	})
	if err != nil {
		t.Fatalf("store chunks: %v", err)
	}
	if stored != 5 {
		t.Errorf("stored = %d, want 5", stored)
	}

	wantBatches := []int{2, 2, 1}
	if len(store.batchSizes) != len(wantBatches) {
		t.Fatalf("batch count = %d, want %d", len(store.batchSizes), len(wantBatches))
	}
	for i, want := range wantBatches {
		if store.batchSizes[i] != want {
			t.Errorf("batch %d size = %d, want %d", i, store.batchSizes[i], want)
		}
	}
	if len(progress) != 3 {
		t.Errorf("progress callbacks = %d, want 3", len(progress))
	}
}

func TestStoreChunksEmbedErrorPropagates(t *testing.T) {
	m := NewManager(NewMemory(), &fakeEmbedder{err: errors.New("invalid api key")}, testExecutor(), 100)

	_, err := m.StoreChunks(context.Background(), makeChunks(2), "doc1", nil)
	if err == nil {
		t.Fatal("expected embed error to propagate")
	}
}

func TestSearchSimilarRanksByCosine(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"about acids": {1, 0, 0},
		"about bases": {0, 1, 0},
		"acid query":  {0.9, 0.1, 0},
	}}

	store := NewMemory()
	m := NewManager(store, embedder, testExecutor(), 100)

	chunks := []chunker.Chunk{
		{Text: "about acids", Index: 0, WordCount: 2},
		{Text: "about bases", Index: 1, WordCount: 2},
	}
	if _, err := m.StoreChunks(context.Background(), chunks, "doc1", nil); err != nil {
		t.Fatalf("store chunks: %v", err)
	}

	matches, err := m.SearchSimilar(context.Background(), "acid query", "doc1", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Metadata["text"] != "about acids" {
		t.Errorf("best match = %v, want the acid chunk", matches[0].Metadata["text"])
	}
	if matches[0].Score < matches[1].Score {
		t.Error("matches not ordered descending by score")
	}
}

func TestSearchScopedToNamespace(t *testing.T) {
	embedder := &fakeEmbedder{}
	m := NewManager(NewMemory(), embedder, testExecutor(), 100)

	if _, err := m.StoreChunks(context.Background(), makeChunks(2), "doc1", nil); err != nil {
		t.Fatalf("store: %v", err)
	}

	matches, err := m.SearchSimilar(context.Background(), "anything", "doc2", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("got %d matches from wrong namespace, want 0", len(matches))
	}
}

func TestDeleteContent(t *testing.T) {
	store := NewMemory()
	m := NewManager(store, &fakeEmbedder{}, testExecutor(), 100)

	if _, err := m.StoreChunks(context.Background(), makeChunks(3), "doc1", nil); err != nil {
		t.Fatalf("store: %v", err)
	}
	if err := m.DeleteContent(context.Background(), "doc1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if store.Count("doc1") != 0 {
		t.Error("points survived namespace delete")
	}
}

func TestPointPayloadFields(t *testing.T) {
	store := NewMemory()
	m := NewManager(store, &fakeEmbedder{}, testExecutor(), 100)

	chunks := []chunker.Chunk{{
		Text:      "some chunk text here",
		Metadata:  map[string]any{"section_title": "Acids"},
		WordCount: 4,
		Index:     7,
		Method:    "semantic",
	}}
	if _, err := m.StoreChunks(context.Background(), chunks, "doc1", nil); err != nil {
		t.Fatalf("store: %v", err)
	}

	matches, err := m.SearchSimilar(context.Background(), "some chunk text here", "doc1", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	meta := matches[0].Metadata
	if meta["text"] != "some chunk text here" {
		t.Errorf("payload text = %v", meta["text"])
	}
	if meta["chunk_index"] != 7 {
		t.Errorf("payload chunk_index = %v, want 7", meta["chunk_index"])
	}
	if meta["section_title"] != "Acids" {
		t.Errorf("payload section_title = %v", meta["section_title"])
	}
	if matches[0].ID == "" {
		t.Error("point was assigned no ID")
	}
}
