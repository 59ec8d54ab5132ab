package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SurabhiV1999/ChemBot/internal/engine"
)

var (
	chatContentID string
	chatUserID    string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive question session over ingested material",
	Long: `Start an interactive session against one document. Follow-up
questions see the previous turns, so "why does that happen?" resolves
against the last answer.

Type /clear to forget the conversation, /quit to exit.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatContentID, "content", "c", "", "content ID to answer from (required)")
	chatCmd.Flags().StringVarP(&chatUserID, "user", "u", "default", "user ID for conversation history")
	_ = chatCmd.MarkFlagRequired("content")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	eng, err := getEngine(ctx)
	if err != nil {
		return err
	}

	if err := eng.LoadConversation(ctx, chatContentID, chatUserID); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not load conversation history: %v\n", err)
	}

	fmt.Printf("Chatting about %q. Type /quit to exit.\n\n", chatContentID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return nil
		case "/clear":
			eng.ClearConversation(chatContentID, chatUserID)
			fmt.Println("Conversation cleared.")
			continue
		}

		fmt.Print("chembot> ")
		_, err := eng.AskStream(ctx, engine.AskRequest{
			Question:  line,
			ContentID: chatContentID,
			UserID:    chatUserID,
			UseCache:  true,
		}, func(token string) error {
			fmt.Print(token)
			return nil
		})
		fmt.Println()
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		fmt.Println()
	}

	return scanner.Err()
}
