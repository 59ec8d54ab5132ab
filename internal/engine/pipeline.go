package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/SurabhiV1999/ChemBot/internal/chunker"
	"github.com/SurabhiV1999/ChemBot/internal/llm"
	"github.com/SurabhiV1999/ChemBot/internal/metrics"
	"github.com/SurabhiV1999/ChemBot/internal/prompts"
	"github.com/SurabhiV1999/ChemBot/internal/ratelimit"
)

// Ingest chunks, embeds and stores converted document text under a content
// namespace, reporting progress at fixed milestones. Document conversion
// happens upstream; this consumes markdown text.
func (e *Engine) Ingest(ctx context.Context, text, contentID string, metadata map[string]any, progress func(Progress)) (*IngestResult, error) {
	start := time.Now()
	report := func(stage string, pct int, msg string) {
		if progress != nil {
			progress(Progress{Stage: stage, Percentage: pct, Message: msg})
		}
		slog.Info("ingest progress", "content_id", contentID, "stage", stage, "percentage", pct)
	}
	fail := func(err error) (*IngestResult, error) {
		report("error", 0, fmt.Sprintf("Processing failed: %v", err))
		return nil, err
	}

	report("initializing", 0, "Initializing ingestion pipeline...")

	report("converting", 10, "Reading converted text...")
	wordCount := len(strings.Fields(text))
	if wordCount == 0 {
		return fail(fmt.Errorf("document is empty"))
	}
	report("converting", 25, fmt.Sprintf("Conversion complete. Extracted %d words", wordCount))

	strategy := chunker.Strategy(e.cfg.ChunkStrategy)
	report("chunking", 30, fmt.Sprintf("Chunking document using %s strategy...", strategy))

	chunkMeta := map[string]any{"content_id": contentID}
	for k, v := range metadata {
		chunkMeta[k] = v
	}

	c := chunker.New(strategy, chunker.Config{
		ChunkSize: e.cfg.ChunkSize,
		Overlap:   e.cfg.ChunkOverlap,
	}, e.splitter())

	chunks, err := c.Chunk(ctx, text, chunkMeta)
	if err != nil {
		return fail(fmt.Errorf("chunk document: %w", err))
	}
	report("chunking", 50, fmt.Sprintf("Created %d chunks", len(chunks)))

	report("embedding", 55, fmt.Sprintf("Generating embeddings for %d chunks...", len(chunks)))
	stored, err := e.retriever.StoreChunks(ctx, chunks, contentID, func(done, total int) {
		pct := 55 + int(float64(done)/float64(total)*35)
		report("embedding", pct, fmt.Sprintf("Processed %d/%d batches", done, total))
	})
	if err != nil {
		return fail(fmt.Errorf("store chunks: %w", err))
	}

	report("completing", 95, "Finalizing processing...")

	result := &IngestResult{
		ContentID:  contentID,
		ChunkCount: stored,
		WordCount:  wordCount,
		Strategy:   string(strategy),
		Duration:   time.Since(start),
	}

	report("completing", 100, "Processing complete!")
	e.metrics.RecordTiming(metrics.OpIngest, result.Duration)
	slog.Info("document ingested", "content_id", contentID, "chunks", stored, "words", wordCount, "duration_ms", result.Duration.Milliseconds())
	return result, nil
}

// splitter adapts the generation model to the chunker's split interface.
func (e *Engine) splitter() chunker.Splitter {
	return &llmSplitter{
		gen:       e.gen,
		exec:      e.exec,
		prompts:   e.prompts,
		chunkSize: e.cfg.ChunkSize,
	}
}

type llmSplitter struct {
	gen       Generator
	exec      *ratelimit.Executor
	prompts   *prompts.Library
	chunkSize int
}

func (s *llmSplitter) Split(ctx context.Context, text string) (string, error) {
	size := strconv.Itoa(s.chunkSize)
	systemPrompt := s.prompts.Render(prompts.SplitSystem, map[string]string{"chunk_size": size})
	userPrompt := s.prompts.Render(prompts.SplitUser, map[string]string{"chunk_size": size, "text": text})

	generation, err := ratelimit.Do(ctx, s.exec, func(ctx context.Context) (*llm.Generation, error) {
		return s.gen.GenerateWithSystem(ctx, systemPrompt, userPrompt, llms.WithTemperature(0.3))
	})
	if err != nil {
		return "", err
	}
	return generation.Text, nil
}
