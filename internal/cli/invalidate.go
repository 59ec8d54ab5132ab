package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var invalidateCmd = &cobra.Command{
	Use:   "invalidate <content-id>",
	Short: "Remove a content's vectors and cached answers",
	Long: `Remove everything stored for a content ID: its vectors, its cached
answers and its stored questions. Run this before re-ingesting an updated
version of a document.`,
	Args: cobra.ExactArgs(1),
	RunE: runInvalidate,
}

func runInvalidate(cmd *cobra.Command, args []string) error {
	contentID := args[0]
	ctx := cmd.Context()

	eng, err := getEngine(ctx)
	if err != nil {
		return err
	}

	if err := eng.Invalidate(ctx, contentID); err != nil {
		return fmt.Errorf("invalidate: %w", err)
	}

	if dbClient != nil {
		deleted, err := dbClient.QueryDeleteContentQuestions(ctx, contentID)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not delete stored questions: %v\n", err)
		} else if deleted > 0 {
			fmt.Printf("Deleted %d stored questions.\n", deleted)
		}
	}

	fmt.Printf("Invalidated %s.\n", contentID)
	return nil
}
