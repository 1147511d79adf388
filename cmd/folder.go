package cmd

import (
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"mirrorsync/internal/model"

	"github.com/spf13/cobra"
)

var (
	folderAlias         string
	folderIncludeHidden bool
	folderBufferSize    int
	folderAutostart     bool
	folderStart         bool
)

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage paired folders",
}

var folderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all paired folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Folders []model.PairedFolder             `json:"folders"`
			Running map[string]model.SessionSnapshot `json:"running"`
		}
		if err := call(http.MethodGet, "/folders", nil, &result); err != nil {
			return err
		}

		if len(result.Folders) == 0 {
			fmt.Println("no paired folders configured")
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("%-36s %-20s %-8s %-9s %s",
			"ID", "ALIAS", "STATUS", "AUTOSTART", "SOURCE --> TARGET")))
		for _, f := range result.Folders {
			status := dimStyle.Render(fmt.Sprintf("%-8s", "stopped"))
			if snap, ok := result.Running[f.ID]; ok && snap.Running {
				status = okStyle.Render(fmt.Sprintf("%-8s", "running"))
			}
			fmt.Printf("%-36s %-20s %s %-9t %s\n", f.ID, f.Alias, status, f.Autostart, f.Session())
		}

		return nil
	},
}

var folderAddCmd = &cobra.Command{
	Use:   "add [source] [target]",
	Short: "Pair a source folder with a target folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		dst, err := filepath.Abs(args[1])
		if err != nil {
			return err
		}

		var folder model.PairedFolder
		if err := call(http.MethodPost, "/folders", map[string]any{
			"source":         src,
			"target":         dst,
			"alias":          folderAlias,
			"include_hidden": folderIncludeHidden,
			"buffer_size":    folderBufferSize,
			"autostart":      folderAutostart,
			"start":          folderStart,
		}, &folder); err != nil {
			return err
		}

		fmt.Printf("%s folder added: %s %s\n", mark(true), labelStyle.Render(folder.Alias), dimStyle.Render("id="+folder.ID))
		return nil
	},
}

var folderUpdateCmd = &cobra.Command{
	Use:   "update [id|alias]",
	Short: "Change the options of a paired folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		changes := map[string]any{}
		flags := cmd.Flags()
		if flags.Changed("alias") {
			changes["alias"] = folderAlias
		}
		if flags.Changed("include-hidden") {
			changes["include_hidden"] = folderIncludeHidden
		}
		if flags.Changed("buffer-size") {
			changes["buffer_size"] = folderBufferSize
		}
		if flags.Changed("autostart") {
			changes["autostart"] = folderAutostart
		}
		if len(changes) == 0 {
			return fmt.Errorf("nothing to update")
		}

		var folder model.PairedFolder
		if err := call(http.MethodPatch, "/folders/"+url.PathEscape(args[0]), changes, &folder); err != nil {
			return err
		}

		fmt.Printf("%s folder %s updated\n", mark(true), labelStyle.Render(folder.Alias))
		return nil
	},
}

func folderAction(use, short, method, suffix, done string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id|alias]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := call(method, "/folders/"+url.PathEscape(args[0])+suffix, nil, nil); err != nil {
				return err
			}

			fmt.Printf("%s folder %s %s\n", mark(true), labelStyle.Render(args[0]), done)
			return nil
		},
	}
}

var (
	folderRemoveCmd = folderAction("remove", "Remove a paired folder", http.MethodDelete, "", "removed")
	folderStartCmd  = folderAction("start", "Start mirroring a paired folder", http.MethodPost, "/start", "started")
	folderStopCmd   = folderAction("stop", "Stop mirroring a paired folder", http.MethodPost, "/stop", "stopped")
)

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

func init() {
	folderAddCmd.Flags().StringVar(&folderAlias, "alias", "", "name for the pair (default \"<source base> --> <target base>\")")
	folderAddCmd.Flags().BoolVar(&folderIncludeHidden, "include-hidden", false, "mirror hidden files and folders")
	folderAddCmd.Flags().IntVar(&folderBufferSize, "buffer-size", 0, "history entries to keep (default from config)")
	folderAddCmd.Flags().BoolVar(&folderAutostart, "autostart", false, "start mirroring when the daemon starts")
	folderAddCmd.Flags().BoolVar(&folderStart, "start", true, "start mirroring immediately")

	folderUpdateCmd.Flags().StringVar(&folderAlias, "alias", "", "new name for the pair")
	folderUpdateCmd.Flags().BoolVar(&folderIncludeHidden, "include-hidden", false, "mirror hidden files and folders")
	folderUpdateCmd.Flags().IntVar(&folderBufferSize, "buffer-size", 0, "history entries to keep")
	folderUpdateCmd.Flags().BoolVar(&folderAutostart, "autostart", false, "start mirroring when the daemon starts")

	folderCmd.AddCommand(folderListCmd, folderAddCmd, folderUpdateCmd, folderRemoveCmd, folderStartCmd, folderStopCmd)
	rootCmd.AddCommand(folderCmd)
}
