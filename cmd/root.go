package cmd

import (
	"fmt"
	"os"

	"mirrorsync/internal/config"
	"mirrorsync/internal/db"
	"mirrorsync/internal/logger"

	"github.com/spf13/cobra"
)

var (
	cfg   *config.Config
	debug bool
)

// Commands that only talk to a running daemon and never open the database.
var clientCmds = map[string]bool{
	"status": true, "stop": true, "history": true,
	"add": true, "list": true, "update": true, "remove": true, "start": true,
	"install": true, "uninstall": true,
}

var rootCmd = &cobra.Command{
	Use:           "mirrorsync",
	Short:         "Mirror a folder onto another in real time",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "completion" || cmd == configInitCmd {
			return nil
		}

		logger.Init(debug)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}

		if !clientCmds[cmd.Name()] {
			if err := db.Init(cfg.DBPath); err != nil {
				return err
			}
		}

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error:"), err)
		os.Exit(1)
	}
}

func daemonURL(path string) string {
	return fmt.Sprintf("http://localhost:%d%s", cfg.DaemonPort, path)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug mode")
}
