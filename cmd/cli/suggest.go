package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/circleup/backend/internal/database"
	"github.com/circleup/backend/internal/suggest"
	"github.com/spf13/cobra"
)

var suggestLimit int

var suggestCmd = &cobra.Command{
	Use:   "suggest <username>",
	Short: "Print ranked follow suggestions for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, err := findUser(args[0])
		if err != nil {
			return err
		}

		scorer := suggest.NewScorer(database.DB)
		suggestions, err := scorer.Suggest(context.Background(), user, suggestLimit)
		if err != nil {
			return fmt.Errorf("failed to compute suggestions: %w", err)
		}

		if output == "json" {
			return json.NewEncoder(os.Stdout).Encode(suggestions)
		}

		if len(suggestions) == 0 {
			fmt.Println("No suggestions")
			return nil
		}
		fmt.Printf("%-20s %-6s %-7s %s\n", "HANDLE", "SCORE", "MUTUALS", "LOCATION")
		for _, s := range suggestions {
			fmt.Printf("%-20s %-6d %-7d %s\n", s.UserHandle, s.Score, s.MutualConnections, s.Location)
		}
		return nil
	},
}

func init() {
	suggestCmd.Flags().IntVar(&suggestLimit, "limit", suggest.DefaultLimit, "Maximum suggestions to return")
}
