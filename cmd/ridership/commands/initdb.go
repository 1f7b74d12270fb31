package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the features table and indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := rt.db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}

		fmt.Println("Database schema is up to date.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initdbCmd)
}
