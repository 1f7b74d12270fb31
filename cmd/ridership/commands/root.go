package commands

import (
	"github.com/spf13/cobra"
)

var verbose bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ridership",
	Short: "Bangkok transit ridership feature pipeline",
	Long: `Maintains the per-day features table for Bangkok rail ridership
forecasting: daily passenger counts per line, citywide rainfall average and
a day-type classification, pulled incrementally from three external sources.

Usage:
  go run ./cmd/ridership [command]

Examples:
  go run ./cmd/ridership initdb
  go run ./cmd/ridership run
  go run ./cmd/ridership gaps
  go run ./cmd/ridership serve
  go run ./cmd/ridership scheduler`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
