package chunker

import (
	"context"
	"log/slog"
	"strings"
)

// SplitMarker is the line the splitter model inserts between segments.
const SplitMarker = "---SPLIT---"

// minSegmentWords discards fragments too small to be useful retrieval units.
const minSegmentWords = 50

// intelligentChunker short-circuits small documents, runs the semantic
// strategy as a base, and asks a language model to re-split chunks that are
// still too large. A splitter failure falls back to heuristic chunking for
// that chunk only.
type intelligentChunker struct {
	cfg      Config
	splitter Splitter
}

func (c *intelligentChunker) Chunk(ctx context.Context, text string, metadata map[string]any) ([]Chunk, error) {
	if wordCount(text) <= c.cfg.ChunkSize {
		meta := copyMeta(metadata)
		meta["chunking_strategy"] = "intelligent_single"
		meta["is_complete_document"] = true
		return renumber([]Chunk{{
			Text:      strings.TrimSpace(text),
			Metadata:  meta,
			WordCount: wordCount(text),
			Method:    "intelligent_single",
		}}), nil
	}

	semantic := &semanticChunker{cfg: c.cfg}
	base := semantic.chunk(text, metadata)

	threshold := c.cfg.ChunkSize + c.cfg.ChunkSize/2

	var chunks []Chunk
	for _, chunk := range base {
		if chunk.WordCount <= threshold {
			chunks = append(chunks, chunk)
			continue
		}
		chunks = append(chunks, c.splitOversized(ctx, chunk, metadata)...)
	}

	return renumber(chunks), nil
}

// splitOversized asks the model to insert split markers. Any failure keeps
// chunking alive by falling back to the heuristic strategy for this chunk.
func (c *intelligentChunker) splitOversized(ctx context.Context, chunk Chunk, metadata map[string]any) []Chunk {
	heuristic := &heuristicChunker{cfg: c.cfg}

	if c.splitter == nil {
		return heuristic.chunk(chunk.Text, metadata)
	}

	marked, err := c.splitter.Split(ctx, chunk.Text)
	if err != nil {
		slog.Warn("intelligent split failed, falling back to heuristic", "error", err, "words", chunk.WordCount)
		return heuristic.chunk(chunk.Text, metadata)
	}

	var chunks []Chunk
	for _, segment := range strings.Split(marked, SplitMarker) {
		segment = strings.TrimSpace(segment)
		if wordCount(segment) < minSegmentWords {
			continue
		}
		meta := copyMeta(metadata)
		meta["chunking_strategy"] = "intelligent_llm"
		for k, v := range map[string]any{
			"section_title": chunk.Metadata["section_title"],
			"section_level": chunk.Metadata["section_level"],
		} {
			if v != nil {
				meta[k] = v
			}
		}
		chunks = append(chunks, Chunk{
			Text:      segment,
			Metadata:  meta,
			WordCount: wordCount(segment),
			Method:    "intelligent_llm",
		})
	}

	if len(chunks) == 0 {
		slog.Warn("intelligent split produced no usable segments, falling back to heuristic", "words", chunk.WordCount)
		return heuristic.chunk(chunk.Text, metadata)
	}

	return chunks
}
