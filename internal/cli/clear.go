package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearUserID string

var clearCmd = &cobra.Command{
	Use:   "clear <content-id>",
	Short: "Forget a user's conversation for a content",
	Args:  cobra.ExactArgs(1),
	RunE:  runClear,
}

func init() {
	clearCmd.Flags().StringVarP(&clearUserID, "user", "u", "default", "user whose conversation to clear")
}

func runClear(cmd *cobra.Command, args []string) error {
	contentID := args[0]
	ctx := cmd.Context()

	eng, err := getEngine(ctx)
	if err != nil {
		return err
	}

	eng.ClearConversation(contentID, clearUserID)

	if dbClient != nil {
		deleted, err := dbClient.QueryDeleteUserQuestions(ctx, contentID, clearUserID)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not delete stored questions: %v\n", err)
		} else {
			fmt.Printf("Deleted %d stored questions.\n", deleted)
		}
	}

	fmt.Printf("Cleared conversation for %s on %s.\n", clearUserID, contentID)
	return nil
}
