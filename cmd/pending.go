package cmd

import (
	"github.com/spf13/cobra"
)

var pendingOpensCmd = &cobra.Command{
	Use:   "pending-opens",
	Short: "Drain the queue of paths the OS requested be opened",
	RunE: func(cmd *cobra.Command, args []string) error {
		if Bridge == nil {
			return printJSON([]string{})
		}
		return printJSON(Bridge.TakePendingOpenPaths())
	},
}

func init() {
	rootCmd.AddCommand(pendingOpensCmd)
}
