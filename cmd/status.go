package cmd

import (
	"fmt"
	"net/http"
	"time"

	"mirrorsync/internal/model"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View daemon status",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Sessions []model.SessionSnapshot `json:"sessions"`
		}
		if err := call(http.MethodGet, "/status", nil, &result); err != nil {
			return err
		}

		if len(result.Sessions) == 0 {
			fmt.Println("no active folders")
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("%-20s %-8s %-8s %-8s %s",
			"FOLDER", "RUNNING", "SYNCED", "FAILED", "LAST EVENT")))

		for _, snap := range result.Sessions {
			fmt.Printf("%-20s %-8s %-8d %-8d %s\n",
				snap.Alias, mark(snap.Running), snap.Synced, snap.Failed, timeStyle.Render(formatTime(snap.LastEvent)))

			uptime := time.Since(snap.StartedAt).Round(time.Second)
			fmt.Printf("%s %s --> %s\n", dimStyle.Render(fmt.Sprintf("%20s uptime %s", "", uptime)), snap.Source, snap.Target)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
