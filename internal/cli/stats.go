package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show runtime counters",
	Long:  `Show rate limiter, cache and conversation counters for this process.`,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	eng, err := getEngine(cmd.Context())
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(eng.Stats(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
