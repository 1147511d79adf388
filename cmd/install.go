package cmd

import (
	"fmt"
	"os"

	"mirrorsync/internal/autostart"

	"github.com/spf13/cobra"
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Register the daemon to start at login",
	RunE: func(cmd *cobra.Command, args []string) error {
		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}

		as := autostart.New()
		if err := as.Install(execPath); err != nil {
			return err
		}

		fmt.Printf("%s mirrorsync daemon registered for autostart\n", mark(true))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
}
