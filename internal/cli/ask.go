package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SurabhiV1999/ChemBot/internal/engine"
)

var (
	askContentID string
	askUserID    string
	askTopK      int
	askStream    bool
	askNoCache   bool
	askSources   bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about ingested material",
	Long: `Ask a question about a previously ingested document.

The question is classified, relevant chunks are retrieved and an answer is
generated from them. Answers are cached; repeat questions return instantly.

Examples:
  chembot ask "What is a catalyst?" --content chapter-3
  chembot ask "How do acids react with bases?" -c chapter-3 --stream
  chembot ask "Define molarity" -c chapter-3 --no-cache --sources`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askContentID, "content", "c", "", "content ID to answer from (required)")
	askCmd.Flags().StringVarP(&askUserID, "user", "u", "default", "user ID for conversation history")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (0 = configured default)")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer as it is generated")
	askCmd.Flags().BoolVar(&askNoCache, "no-cache", false, "bypass the answer cache")
	askCmd.Flags().BoolVar(&askSources, "sources", false, "show source chunks with the answer")
	_ = askCmd.MarkFlagRequired("content")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, err := getEngine(ctx)
	if err != nil {
		return err
	}

	// Hydrate the window so follow-up phrasing resolves against past turns
	if err := eng.LoadConversation(ctx, askContentID, askUserID); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not load conversation history: %v\n", err)
	}

	req := engine.AskRequest{
		Question:  args[0],
		ContentID: askContentID,
		UserID:    askUserID,
		TopK:      askTopK,
		UseCache:  !askNoCache,
	}

	var answer *engine.Answer
	if askStream {
		answer, err = eng.AskStream(ctx, req, func(token string) error {
			fmt.Print(token)
			return nil
		})
		fmt.Println()
	} else {
		answer, err = eng.Ask(ctx, req)
		if err == nil {
			fmt.Println(answer.Answer)
		}
	}
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	printAnswerDetails(answer)
	return nil
}

func printAnswerDetails(answer *engine.Answer) {
	if answer.Cached {
		fmt.Println("\n(cached answer)")
	}
	if answer.ConfidenceScore > 0 {
		fmt.Printf("\nConfidence: %.2f  Time: %dms", answer.ConfidenceScore, answer.ResponseTimeMS)
		if answer.TokensUsed > 0 {
			fmt.Printf("  Tokens: %d", answer.TokensUsed)
		}
		fmt.Println()
	}

	if askSources && len(answer.SourceChunks) > 0 {
		fmt.Printf("\nSources (%d):\n", len(answer.SourceChunks))
		for _, src := range answer.SourceChunks {
			title := src.SectionTitle
			if title == "" {
				title = fmt.Sprintf("chunk %d", src.ChunkIndex)
			}
			fmt.Printf("  [%.3f] %s\n", src.RelevanceScore, title)
		}
	}
}
