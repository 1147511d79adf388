package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"mirrorsync/internal/model"
	"mirrorsync/internal/repository"

	"github.com/spf13/cobra"
)

var (
	historyN      int
	historyFolder string
	historyFailed bool
	historyStats  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View replication history",
	RunE: func(cmd *cobra.Command, args []string) error {
		query := url.Values{}
		query.Set("n", strconv.Itoa(historyN))
		if historyFolder != "" {
			query.Set("folder", historyFolder)
		}
		if historyFailed {
			query.Set("failed", "true")
		}

		if historyStats {
			var stats repository.Stats
			if err := call(http.MethodGet, "/history/stats?"+query.Encode(), nil, &stats); err != nil {
				return err
			}

			fmt.Printf("%s %d  %s %d  %s %d\n",
				labelStyle.Render("total"), stats.Total,
				okStyle.Render("success"), stats.Success,
				failStyle.Render("failed"), stats.Failed)
			return nil
		}

		var histories []model.History
		if err := call(http.MethodGet, "/history?"+query.Encode(), nil, &histories); err != nil {
			return err
		}

		if len(histories) == 0 {
			fmt.Println("no history yet")
			return nil
		}

		for _, h := range histories {
			fmt.Printf("%s %s %-17s %s\n",
				mark(h.Status == model.StatusSuccess),
				timeStyle.Render("["+h.SyncedAt.Format("2006-01-02 15:04:05")+"]"),
				h.Event,
				h.Source,
			)
			if h.Status == model.StatusFailed {
				fmt.Println(dimStyle.Render("    " + h.Result + ": " + h.ErrMsg))
			}
		}

		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of history entries to show")
	historyCmd.Flags().StringVar(&historyFolder, "folder", "", "only show entries of this folder (id or alias)")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only show failed entries")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "show totals instead of entries")
	rootCmd.AddCommand(historyCmd)
}
