package main

import (
	"fmt"
	"log"
	"os"

	"github.com/circleup/backend/internal/database"
	"github.com/circleup/backend/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var output string = "text" // "text" or "json"

var rootCmd = &cobra.Command{
	Use:   "circleup",
	Short: "Circleup admin CLI - Manage users and inspect suggestions",
	Long: `Circleup admin CLI provides direct database access for operators.
Verify users, promote admins, inspect suggestion output and view stats.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional, system environment is enough
		_ = godotenv.Load()
		if err := logger.Initialize("warn", ""); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		if err := database.Initialize(); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&output, "output", output, "Output format: text or json")

	rootCmd.AddCommand(verifyUserCmd)
	rootCmd.AddCommand(promoteAdminCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(suggestCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
