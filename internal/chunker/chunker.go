// Package chunker splits document text into ordered retrieval units.
package chunker

import (
	"context"
	"log/slog"
	"strings"
)

// Strategy selects how a document is split.
type Strategy string

const (
	StrategyHeuristic   Strategy = "heuristic"
	StrategySemantic    Strategy = "semantic"
	StrategyIntelligent Strategy = "intelligent"
)

// Chunk is one retrieval unit of a document.
type Chunk struct {
	Text      string
	Metadata  map[string]any
	WordCount int
	Index     int
	// Method records how this particular chunk was produced
	// (heuristic, semantic, semantic_hybrid, intelligent_single, intelligent_llm).
	Method string
}

// Config defines chunking parameters, both measured in words.
type Config struct {
	ChunkSize int
	Overlap   int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize: 800,
		Overlap:   150,
	}
}

// Chunker splits text into ordered chunks.
type Chunker interface {
	Chunk(ctx context.Context, text string, metadata map[string]any) ([]Chunk, error)
}

// Splitter asks a language model to insert split markers into oversized text.
// The returned text must contain the original content with marker lines added.
type Splitter interface {
	Split(ctx context.Context, text string) (string, error)
}

// New creates a chunker for the given strategy. An unknown strategy falls
// back to semantic. The splitter is only used by the intelligent strategy
// and may be nil.
func New(strategy Strategy, cfg Config, splitter Splitter) Chunker {
	if cfg.ChunkSize <= 0 {
		cfg = DefaultConfig()
	}

	switch strategy {
	case StrategyHeuristic:
		return &heuristicChunker{cfg: cfg}
	case StrategySemantic:
		return &semanticChunker{cfg: cfg}
	case StrategyIntelligent:
		return &intelligentChunker{cfg: cfg, splitter: splitter}
	default:
		slog.Warn("unknown chunking strategy, using semantic", "strategy", strategy)
		return &semanticChunker{cfg: cfg}
	}
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

// renumber assigns contiguous indexes in document order.
func renumber(chunks []Chunk) []Chunk {
	for i := range chunks {
		chunks[i].Index = i
		if chunks[i].Metadata != nil {
			chunks[i].Metadata["chunk_index"] = i
		}
	}
	return chunks
}

// copyMeta clones base metadata so chunks never share maps.
func copyMeta(base map[string]any) map[string]any {
	meta := make(map[string]any, len(base)+4)
	for k, v := range base {
		meta[k] = v
	}
	return meta
}
