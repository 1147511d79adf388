package mirror

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mirrorsync/internal/logger"
	"mirrorsync/internal/model"
	"mirrorsync/internal/util"

	"go.uber.org/zap"
)

// Replicate applies ev to the target tree and reports the outcome. Failures are
// carried in the report and never returned.
func Replicate(ev model.ChangeEvent) model.Report {
	noun := ev.Noun()
	report := model.Report{
		Kind:   ev.Kind,
		Source: ev.Source.Display,
		Target: ev.Target.Display,
		At:     time.Now(),
	}

	switch ev.Kind {
	case model.Created:
		report.Event = noun + " creation"
		report.Err = replicateCreate(ev)
		report.Result = outcome(report.Err, noun+" created successfully", "creating", noun)

	case model.Deleted:
		report.Event = noun + " deletion"
		report.Err = replicateDelete(ev)
		report.Result = outcome(report.Err, noun+" deleted successfully", "deleting", noun)

	case model.Moved:
		report.Event = noun + " movement"
		report.Source = fmt.Sprintf("%s --> %s", ev.Source.Display, ev.Dest.Display)
		report.Target = fmt.Sprintf("%s --> %s", ev.Target.Display, ev.TargetDest.Display)
		report.Err = replicateMove(ev)
		report.Result = outcome(report.Err, noun+" moved correctly", "moving", noun)

	case model.Modified:
		report.Event = "File edition"
		report.Err = replicateModify(ev)
		report.Result = outcome(report.Err, "File edited correctly", "editing", "file")

	default:
		report.Event = string(ev.Kind)
		report.Err = fmt.Errorf("unknown change kind %q", ev.Kind)
		report.Result = report.Err.Error()
	}

	if report.Err != nil {
		logger.Log.Error("replication failed",
			zap.String("kind", string(ev.Kind)),
			zap.String("src", ev.Source.Resolved),
			zap.String("dst", ev.Target.Resolved),
			zap.Error(report.Err))
	} else {
		logger.Log.Info("replicated",
			zap.String("kind", string(ev.Kind)),
			zap.String("src", report.Source),
			zap.String("dst", report.Target))
	}

	return report
}

func outcome(err error, success, verb, noun string) string {
	if err == nil {
		return success
	}
	return fmt.Sprintf("An error occurred %s the %s", verb, strings.ToLower(noun))
}

// The source may already be gone when a creation is processed; later events
// in the burst account for that.
func replicateCreate(ev model.ChangeEvent) error {
	if !util.Exists(ev.Source.Resolved, true) {
		return nil
	}

	if ev.IsDir {
		return util.EnsureDir(ev.Target.Resolved)
	}

	return util.CopyFile(ev.Source.Resolved, ev.Target.Resolved)
}

func replicateDelete(ev model.ChangeEvent) error {
	if !util.Exists(ev.Target.Resolved, false) {
		return nil
	}

	return util.RemoveTree(ev.Target.Resolved)
}

func replicateMove(ev model.ChangeEvent) error {
	if !util.Exists(ev.Target.Resolved, false) {
		return nil
	}

	if err := util.EnsureDir(filepath.Dir(ev.TargetDest.Resolved)); err != nil {
		return err
	}

	if err := os.Rename(ev.Target.Resolved, ev.TargetDest.Resolved); err != nil {
		return fmt.Errorf("failed to rename: %w", err)
	}

	return nil
}

func replicateModify(ev model.ChangeEvent) error {
	if !util.Exists(ev.Source.Resolved, true) {
		return nil
	}

	return util.CopyFile(ev.Source.Resolved, ev.Target.Resolved)
}
