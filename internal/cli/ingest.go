package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SurabhiV1999/ChemBot/internal/engine"
	"github.com/SurabhiV1999/ChemBot/internal/parser"
)

var (
	ingestContentID string
	ingestTitle     string
	ingestStrategy  string
	ingestPlain     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Chunk, embed and store a document",
	Long: `Ingest a markdown or plain-text document into the vector store.

The document is chunked with the configured strategy, embedded in batches
and stored under a content ID that later questions reference.

Examples:
  chembot ingest notes/chapter-3.md
  chembot ingest handout.md --content organic-1 --strategy intelligent
  chembot ingest handout.md --title "Reaction Kinetics"`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestContentID, "content", "c", "", "content ID (defaults to the file name)")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title stored with each chunk")
	ingestCmd.Flags().StringVar(&ingestStrategy, "strategy", "", "chunking strategy: heuristic, semantic or intelligent")
	ingestCmd.Flags().BoolVar(&ingestPlain, "plain", false, "line-based progress output instead of the progress bar")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := cmd.Context()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read document: %w", err)
	}

	contentID := ingestContentID
	if contentID == "" {
		contentID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if ingestStrategy != "" {
		cfg.ChunkStrategy = ingestStrategy
	}

	eng, err := getEngine(ctx)
	if err != nil {
		return err
	}

	doc := parser.ParseMarkdown(string(data))

	metadata := map[string]any{"filename": filepath.Base(path)}
	for k, v := range doc.Frontmatter {
		metadata[k] = v
	}
	if ingestTitle != "" {
		metadata["title"] = ingestTitle
	} else if doc.Title != "" {
		metadata["title"] = doc.Title
	}

	run := func(ctx context.Context, report func(engine.Progress)) (*engine.IngestResult, error) {
		return eng.Ingest(ctx, doc.Content, contentID, metadata, report)
	}

	var result *engine.IngestResult
	if ingestPlain {
		result, err = run(ctx, func(p engine.Progress) {
			fmt.Printf("[%s] %3d%% %s\n", p.Stage, p.Percentage, p.Message)
		})
	} else {
		result, err = runIngestProgress(ctx, run)
	}
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	fmt.Printf("\nIngested %q as %s\n", filepath.Base(path), result.ContentID)
	fmt.Printf("  Words:    %d\n", result.WordCount)
	fmt.Printf("  Chunks:   %d (%s)\n", result.ChunkCount, result.Strategy)
	fmt.Printf("  Duration: %s\n", result.Duration.Round(durationPrecision))
	return nil
}
