package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recentLimit int

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently opened files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if Store == nil {
			return fmt.Errorf("recent-files store is unavailable")
		}
		files, err := Store.ListRecent(recentLimit)
		if err != nil {
			return err
		}
		return printJSON(files)
	},
}

func init() {
	recentCmd.Flags().IntVar(&recentLimit, "limit", 20, "Maximum number of entries to return")
	rootCmd.AddCommand(recentCmd)
}
