package mirror

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mirrorsync/internal/logger"
	"mirrorsync/internal/model"
	"mirrorsync/internal/pathmap"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// tracker is the part of *fsnotify.Watcher the classifier drives.
type tracker interface {
	Add(name string) error
	Remove(name string) error
}

type pendingRename struct {
	path  string
	isDir bool
	info  os.FileInfo
	at    time.Time
}

// classifier turns raw fsnotify events into change events. It is owned by a
// single delivery goroutine and keeps the state that spans consecutive events:
// the directories under watch, the identity of every known entry, a rename
// waiting for its destination, and writes waiting to settle.
type classifier struct {
	mapper     pathmap.Mapper
	tracker    tracker
	settle     time.Duration
	moveWindow time.Duration

	dirs      map[string]struct{}
	ids       map[string]os.FileInfo
	movedAway map[string]struct{}
	pending   *pendingRename
	writes    []string
	lastWrite map[string]time.Time
}

func newClassifier(mapper pathmap.Mapper, t tracker, settle, moveWindow time.Duration) *classifier {
	return &classifier{
		mapper:     mapper,
		tracker:    t,
		settle:     settle,
		moveWindow: moveWindow,
		dirs:       make(map[string]struct{}),
		ids:        make(map[string]os.FileInfo),
		movedAway:  make(map[string]struct{}),
		lastWrite:  make(map[string]time.Time),
	}
}

// seed registers every directory of the source tree. Any failure aborts the
// start of the watch.
func (c *classifier) seed() error {
	return filepath.WalkDir(c.mapper.Source.Resolved, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		c.remember(path, d)

		if d.IsDir() {
			if err := c.tracker.Add(path); err != nil {
				return err
			}
			c.dirs[path] = struct{}{}

			logger.Log.Debug("watching directory",
				zap.String("path", path))
		}

		return nil
	})
}

func (c *classifier) push(ev fsnotify.Event, now time.Time) []model.ChangeEvent {
	if ev.Name == "" {
		return nil
	}

	// Events on the root itself have no counterpart below the target root.
	if len(pathmap.Suffix(c.mapper.Source.Resolved, ev.Name)) == 0 {
		if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
			logger.Log.Warn("source root removed or moved",
				zap.String("path", ev.Name))
		}
		return nil
	}

	switch {
	case ev.Has(fsnotify.Create):
		delete(c.movedAway, ev.Name)
		if c.pending != nil {
			old := *c.pending
			c.pending = nil
			out := c.flushWrites()

			// Only the same object reappearing completes the move.
			if info, err := os.Lstat(ev.Name); err == nil && old.info != nil && os.SameFile(old.info, info) {
				return append(out, c.moved(old, ev.Name, info))
			}
			out = append(out, c.renamedAway(old))
			return append(out, c.created(ev.Name)...)
		}
		return append(c.flushWrites(), c.created(ev.Name)...)

	case ev.Has(fsnotify.Remove):
		out := c.flushAll()
		return append(out, c.deleted(ev.Name))

	case ev.Has(fsnotify.Rename):
		// A watched directory reports its own move after the parent did.
		if c.pending != nil && c.pending.path == ev.Name {
			return nil
		}
		if _, ok := c.movedAway[ev.Name]; ok {
			delete(c.movedAway, ev.Name)
			return nil
		}

		out := c.flushAll()
		_, isDir := c.dirs[ev.Name]
		c.pending = &pendingRename{path: ev.Name, isDir: isDir, info: c.ids[ev.Name], at: now}
		return out

	case ev.Has(fsnotify.Write):
		if _, isDir := c.dirs[ev.Name]; isDir {
			return nil
		}
		out := c.flushRename()
		if _, ok := c.lastWrite[ev.Name]; !ok {
			c.writes = append(c.writes, ev.Name)
		}
		c.lastWrite[ev.Name] = now
		return out

	default:
		return nil
	}
}

// expire emits the writes that have settled and a rename whose destination
// never showed up.
func (c *classifier) expire(now time.Time) []model.ChangeEvent {
	var out []model.ChangeEvent

	if c.pending != nil && !now.Before(c.pending.at.Add(c.moveWindow)) {
		out = append(out, c.flushRename()...)
	}

	kept := c.writes[:0]
	for _, path := range c.writes {
		if now.Before(c.lastWrite[path].Add(c.settle)) {
			kept = append(kept, path)
			continue
		}
		delete(c.lastWrite, path)
		out = append(out, c.event(model.Modified, path, false))
	}
	c.writes = kept

	return out
}

// deadline is the next time expire has work to do.
func (c *classifier) deadline() (time.Time, bool) {
	var at time.Time
	found := false

	if c.pending != nil {
		at = c.pending.at.Add(c.moveWindow)
		found = true
	}

	for _, path := range c.writes {
		t := c.lastWrite[path].Add(c.settle)
		if !found || t.Before(at) {
			at = t
			found = true
		}
	}

	return at, found
}

func (c *classifier) flushAll() []model.ChangeEvent {
	return append(c.flushWrites(), c.flushRename()...)
}

func (c *classifier) flushWrites() []model.ChangeEvent {
	if len(c.writes) == 0 {
		return nil
	}

	out := make([]model.ChangeEvent, 0, len(c.writes))
	for _, path := range c.writes {
		out = append(out, c.event(model.Modified, path, false))
	}

	c.writes = nil
	clear(c.lastWrite)
	return out
}

// flushRename turns an unmatched rename into a deletion: the entry left the tree.
func (c *classifier) flushRename() []model.ChangeEvent {
	if c.pending == nil {
		return nil
	}

	old := *c.pending
	c.pending = nil

	return []model.ChangeEvent{c.renamedAway(old)}
}

func (c *classifier) renamedAway(old pendingRename) model.ChangeEvent {
	if old.isDir {
		c.forget(old.path)
	}
	delete(c.ids, old.path)

	return c.event(model.Deleted, old.path, old.isDir)
}

// resync reconciles the whole tree after notifications were lost: target
// entries whose source is gone are deleted, then every source entry is
// replayed as a creation and re-watched.
func (c *classifier) resync() []model.ChangeEvent {
	out := c.flushAll()

	target := c.mapper.Target.Resolved
	_ = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil || path == target {
			return nil
		}

		suffix := pathmap.Suffix(target, path)
		src := c.mapper.Source.Translate(suffix).Resolved
		if _, err := os.Lstat(src); errors.Is(err, fs.ErrNotExist) {
			out = append(out, c.event(model.Deleted, src, d.IsDir()))
			if d.IsDir() {
				return filepath.SkipDir
			}
		}

		return nil
	})

	for path := range c.ids {
		if _, err := os.Lstat(path); err != nil {
			delete(c.ids, path)
			delete(c.dirs, path)
		}
	}

	return append(out, c.track(c.mapper.Source.Resolved, true)...)
}

func (c *classifier) created(path string) []model.ChangeEvent {
	info, err := os.Lstat(path)
	isDir := err == nil && info.IsDir()
	if err == nil {
		c.ids[path] = info
	}

	out := []model.ChangeEvent{c.event(model.Created, path, isDir)}
	if isDir {
		out = append(out, c.track(path, true)...)
	}

	return out
}

func (c *classifier) deleted(path string) model.ChangeEvent {
	_, isDir := c.dirs[path]
	if isDir {
		c.forget(path)
	}

	delete(c.ids, path)
	delete(c.lastWrite, path)
	return c.event(model.Deleted, path, isDir)
}

func (c *classifier) moved(old pendingRename, dest string, info os.FileInfo) model.ChangeEvent {
	isDir := info.IsDir()

	delete(c.ids, old.path)
	c.ids[dest] = info

	if isDir {
		c.forget(old.path)
		c.movedAway[old.path] = struct{}{}
		c.track(dest, false)
	}

	ev := c.event(model.Moved, old.path, isDir)
	ev.Dest, ev.TargetDest, _ = c.mapper.Pairs(dest)
	return ev
}

// track watches dir and everything below it. With emit set, the entries found
// below dir are returned as creations: they appeared before the watch did.
func (c *classifier) track(dir string, emit bool) []model.ChangeEvent {
	var out []model.ChangeEvent

	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		c.remember(path, d)

		if d.IsDir() {
			if err := c.tracker.Add(path); err != nil {
				logger.Log.Warn("failed to watch new directory",
					zap.String("path", path),
					zap.Error(err))
			} else {
				logger.Log.Debug("added new directory to watch",
					zap.String("path", path))
			}
			c.dirs[path] = struct{}{}
		}

		if emit && path != dir {
			out = append(out, c.event(model.Created, path, d.IsDir()))
		}

		return nil
	})

	return out
}

func (c *classifier) remember(path string, d fs.DirEntry) {
	if info, err := d.Info(); err == nil {
		c.ids[path] = info
	}
}

// forget drops dir and its descendants from the watch.
func (c *classifier) forget(dir string) {
	prefix := dir + string(filepath.Separator)
	for path := range c.dirs {
		if path == dir || strings.HasPrefix(path, prefix) {
			delete(c.dirs, path)
			_ = c.tracker.Remove(path)
		}
	}
	for path := range c.ids {
		if path == dir || strings.HasPrefix(path, prefix) {
			delete(c.ids, path)
		}
	}
}

func (c *classifier) event(kind model.ChangeKind, path string, isDir bool) model.ChangeEvent {
	src, dst, _ := c.mapper.Pairs(path)
	return model.ChangeEvent{
		Kind:   kind,
		IsDir:  isDir,
		Source: src,
		Target: dst,
	}
}
