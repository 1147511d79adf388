package mirror

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"mirrorsync/internal/logger"
	"mirrorsync/internal/model"
	"mirrorsync/internal/pathmap"
	"mirrorsync/internal/pipeline"

	"go.uber.org/zap"
)

// FullSync replays the current source tree onto the target as creations,
// reporting each entry to sink. Filtered directories are not descended into.
func FullSync(ctx context.Context, session model.MirrorSession, sink Sink, opts ...Option) error {
	o := buildOptions(opts)

	filter, err := pipeline.NewFilter(session.IncludeHidden, o.ignoreList)
	if err != nil {
		return err
	}

	mapper, err := pathmap.NewMapper(session)
	if err != nil {
		return fmt.Errorf("source location is not valid: %w", err)
	}

	if sink == nil {
		sink = SinkFunc(func(model.Report) {})
	}

	logger.Log.Info("starting full sync",
		zap.String("src", session.SourceRoot),
		zap.String("dst", session.TargetRoot))

	return filepath.WalkDir(mapper.Source.Resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		src, dst, suffix := mapper.Pairs(path)
		if len(suffix) == 0 {
			return nil
		}

		if !filter.Allow(suffix) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		sink.Report(Replicate(model.ChangeEvent{
			Kind:   model.Created,
			IsDir:  d.IsDir(),
			Source: src,
			Target: dst,
		}))

		return nil
	})
}
