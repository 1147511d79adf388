package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mirrorsync/internal/logger"
	"mirrorsync/internal/mirror"
	"mirrorsync/internal/model"
	"mirrorsync/internal/repository"
	"mirrorsync/internal/validate"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncIncludeHidden bool

var syncCmd = &cobra.Command{
	Use:   "sync [source] [target]",
	Short: "Mirror every file of source onto target once",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		folder := model.PairedFolder{
			Source:        args[0],
			Target:        args[1],
			IncludeHidden: syncIncludeHidden,
			BufferSize:    cfg.BufferSize,
		}
		if err := validate.PairedFolder(folder, nil); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		repo := repository.NewHistoryRepository()

		var synced, failed int
		sink := mirror.SinkFunc(func(r model.Report) {
			if err := repo.Save("", r); err != nil {
				logger.Log.Warn("failed to save history",
					zap.Error(err))
			}

			if r.OK() {
				synced++
				return
			}
			failed++
			fmt.Printf("%s %s %s\n", mark(false), r.Source, dimStyle.Render(r.Result))
		})

		err := mirror.FullSync(ctx, folder.Session(), sink,
			mirror.WithIgnoreList(cfg.IgnoreList))

		if pruneErr := repo.Prune("", cfg.BufferSize); pruneErr != nil {
			logger.Log.Warn("failed to prune history",
				zap.Error(pruneErr))
		}

		if err != nil {
			return err
		}

		fmt.Printf("%s done: %d synced, %d failed\n", mark(failed == 0), synced, failed)
		return nil
	},
}

func init() {
	syncCmd.Flags().BoolVar(&syncIncludeHidden, "include-hidden", false, "mirror hidden files and folders")
	rootCmd.AddCommand(syncCmd)
}
