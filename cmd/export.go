package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sec-view/DataLens/internal/motor"
)

var (
	exportKind   string
	exportIDs    string
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <path>",
	Short: "Export a selection of records to jsonl, json, or csv",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _, err := Engine.OpenFile(args[0])
		if err != nil {
			return err
		}

		req := motor.ExportRequest{Kind: motor.ExportRequestKind(exportKind)}
		if exportKind == string(motor.ExportSelection) {
			ids, err := parseIDs(exportIDs)
			if err != nil {
				return err
			}
			req.RecordIDs = ids
		}

		result, err := Engine.Export(session.ID, req, motor.ExportFormat(exportFormat), exportOut)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func parseIDs(s string) ([]uint64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var ids []uint64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid record id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func init() {
	exportCmd.Flags().StringVar(&exportKind, "kind", string(motor.ExportSelection), "selection, search_task, or json_subtree")
	exportCmd.Flags().StringVar(&exportIDs, "ids", "", "Comma-separated record ids (selection kind)")
	exportCmd.Flags().StringVar(&exportFormat, "format", string(motor.ExportJSONL), "jsonl, json, or csv")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file path")
	exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}
