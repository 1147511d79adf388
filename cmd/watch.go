package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mirrorsync/internal/daemon"
	"mirrorsync/internal/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Start the daemon and mirror every autostart folder",
	RunE:  runDaemon,
}

func runDaemon(cmd *cobra.Command, args []string) error {
	defer logger.Sync()

	manager := daemon.NewSessionManager(cfg)

	started, err := manager.StartAutostart()
	if err != nil {
		return err
	}

	if started == 0 {
		logger.Log.Info("no folders running, use 'mirrorsync folder add <source> <target>' to add one")
	}

	srv := daemon.NewServer(manager, cfg.DaemonPort)
	srv.Start()

	logger.Log.Info("mirrorsync daemon started",
		zap.Int("folders", started),
		zap.Int("port", cfg.DaemonPort))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Log.Info("shutting down",
			zap.String("signal", sig.String()))
	case <-srv.StopCh():
		logger.Log.Info("stop requested via API")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Stop(ctx)
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
