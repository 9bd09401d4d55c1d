package cmd

import (
	"github.com/spf13/cobra"
)

var (
	treeMaxDepth int
	treeMaxNodes int
)

var treeCmd = &cobra.Command{
	Use:   "tree <path>",
	Short: "Scan a directory for the folder-browsing dialog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := Engine.ScanFolderTree(args[0], treeMaxDepth, treeMaxNodes)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	treeCmd.Flags().IntVar(&treeMaxDepth, "max-depth", 0, "Maximum directory depth (0 = engine default)")
	treeCmd.Flags().IntVar(&treeMaxNodes, "max-nodes", 0, "Maximum total nodes (0 = engine default)")
	rootCmd.AddCommand(treeCmd)
}
