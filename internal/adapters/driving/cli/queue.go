package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the fetch queue",
}

var queueClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all pending fetches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if coordinator == nil {
			return errors.New("fetch coordinator not configured")
		}
		cmd.Printf("Dropped %d pending fetches.\n", coordinator.ClearQueue())
		return nil
	},
}

func init() {
	queueCmd.AddCommand(queueClearCmd)
	rootCmd.AddCommand(queueCmd)
}
