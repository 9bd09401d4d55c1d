package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sec-view/DataLens/internal/motor"
)

var (
	searchText          string
	searchMode          string
	searchCaseSensitive bool
	searchMaxHits       int
)

var searchCmd = &cobra.Command{
	Use:   "search <path>",
	Short: "Search a dataset file's current page or its whole contents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, _, err := Engine.OpenFile(args[0])
		if err != nil {
			return err
		}

		result, err := Engine.Search(session.ID, motor.SearchQuery{
			Text:          searchText,
			Mode:          motor.SearchMode(searchMode),
			CaseSensitive: searchCaseSensitive,
			MaxHits:       searchMaxHits,
		})
		if err != nil {
			return err
		}

		if result.Task == nil {
			return printJSON(result)
		}

		// scan_all runs in the background; this one-shot CLI invocation
		// blocks on it so the caller gets a finished result instead of a
		// task handle it has no later process to poll with.
		taskID := result.Task.ID
		var info motor.TaskInfo
		for {
			info, err = Engine.GetTask(taskID)
			if err != nil {
				return err
			}
			if info.Finished {
				break
			}
			time.Sleep(50 * time.Millisecond)
		}

		hits, err := Engine.SearchTaskHitsPage(taskID, nil, 0)
		if err != nil {
			return err
		}
		return printJSON(map[string]interface{}{
			"task": info,
			"hits": hits,
		})
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchText, "text", "", "Substring to search for")
	searchCmd.Flags().StringVar(&searchMode, "mode", string(motor.SearchCurrentPage), "current_page or scan_all")
	searchCmd.Flags().BoolVar(&searchCaseSensitive, "case-sensitive", false, "Case-sensitive match")
	searchCmd.Flags().IntVar(&searchMaxHits, "max-hits", 0, "Cap on returned/collected hits (0 = engine default)")
	searchCmd.MarkFlagRequired("text")
	rootCmd.AddCommand(searchCmd)
}
