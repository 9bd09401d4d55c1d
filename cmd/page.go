package cmd

import (
	"github.com/spf13/cobra"
)

var (
	pageCursor string
	pageSize   int
)

var pageCmd = &cobra.Command{
	Use:   "page <path>",
	Short: "Read one page of records, optionally resuming from a cursor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, first, err := Engine.OpenFile(args[0])
		if err != nil {
			return err
		}

		if pageCursor == "" && pageSize <= 0 {
			return printJSON(first)
		}

		page, err := Engine.NextPage(session.ID, &pageCursor, pageSize)
		if err != nil {
			return err
		}
		return printJSON(page)
	},
}

func init() {
	pageCmd.Flags().StringVar(&pageCursor, "cursor", "", "Opaque cursor from a previous page's next_cursor")
	pageCmd.Flags().IntVar(&pageSize, "page-size", 0, "Records per page (0 = engine default)")
	rootCmd.AddCommand(pageCmd)
}
