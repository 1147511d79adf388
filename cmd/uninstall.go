package cmd

import (
	"fmt"

	"mirrorsync/internal/autostart"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Unregister the daemon from login",
	RunE: func(cmd *cobra.Command, args []string) error {
		as := autostart.New()

		installed, err := as.IsInstalled()
		if err != nil {
			return err
		}
		if !installed {
			fmt.Println("mirrorsync daemon is not registered")
			return nil
		}

		if err := as.Uninstall(); err != nil {
			return err
		}

		fmt.Printf("%s mirrorsync daemon autostart removed\n", mark(true))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}
