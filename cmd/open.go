package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Open a dataset file and print its first page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, page, err := Engine.OpenFile(args[0])
		if err != nil {
			return err
		}
		return printJSON(map[string]interface{}{
			"session_id": session.ID,
			"format":     session.Format.String(),
			"page":       page,
		})
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
