package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/warit/ridership/backend/internal/contracts"
	"github.com/warit/ridership/backend/internal/gaps"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps",
	Short: "Report unfilled dates and fields in the features table",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		report, err := gaps.Detect(ctx, rt.store)
		if errors.Is(err, contracts.ErrEmptyStore) {
			fmt.Println("Features table is empty; run the pipeline to backfill.")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Latest date: %s\n", report.MaxDate.Format("2006-01-02"))
		printDates("Missing rain", report.MissingRain)
		printDates("Unclassified day type", report.Unclassified)
		return nil
	},
}

func printDates(label string, dates []time.Time) {
	fmt.Printf("%s: %d\n", label, len(dates))
	for _, d := range dates {
		fmt.Printf("  %s\n", d.Format("2006-01-02"))
	}
}

func init() {
	rootCmd.AddCommand(gapsCmd)
}
