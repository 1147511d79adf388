// Package mirror replays changes observed under a source directory onto a
// target directory.
//
// An Engine owns one fsnotify watch over the resolved source tree and one
// delivery goroutine. Every notification is classified, filtered, replicated
// and reported synchronously on that goroutine, in delivery order.
package mirror

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"mirrorsync/internal/logger"
	"mirrorsync/internal/model"
	"mirrorsync/internal/pathmap"
	"mirrorsync/internal/pipeline"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const (
	DefaultSettleDelay = 100 * time.Millisecond
	DefaultMoveWindow  = 50 * time.Millisecond
)

// Sink receives one report per replicated event.
type Sink interface {
	Report(model.Report)
}

type SinkFunc func(model.Report)

func (f SinkFunc) Report(r model.Report) {
	f(r)
}

type options struct {
	settle     time.Duration
	moveWindow time.Duration
	ignoreList []string
}

type Option func(*options)

// WithSettleDelay sets how long a file must stay unwritten before its edit is replicated.
func WithSettleDelay(d time.Duration) Option {
	return func(o *options) {
		o.settle = d
	}
}

// WithMoveWindow sets how long a rename waits for its destination before it
// is treated as a deletion.
func WithMoveWindow(d time.Duration) Option {
	return func(o *options) {
		o.moveWindow = d
	}
}

func WithIgnoreList(patterns []string) Option {
	return func(o *options) {
		o.ignoreList = patterns
	}
}

func buildOptions(opts []Option) options {
	o := options{
		settle:     DefaultSettleDelay,
		moveWindow: DefaultMoveWindow,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

type Engine struct {
	session model.MirrorSession
	sink    Sink
	opts    options
	filter  *pipeline.Filter

	mu      sync.Mutex
	running atomic.Bool
	fw      *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func New(session model.MirrorSession, sink Sink, opts ...Option) (*Engine, error) {
	o := buildOptions(opts)

	filter, err := pipeline.NewFilter(session.IncludeHidden, o.ignoreList)
	if err != nil {
		return nil, err
	}

	if sink == nil {
		sink = SinkFunc(func(model.Report) {})
	}

	return &Engine{
		session: session,
		sink:    sink,
		opts:    o,
		filter:  filter,
	}, nil
}

func (e *Engine) Session() model.MirrorSession {
	return e.session
}

// Running reports whether the watch is live.
func (e *Engine) Running() bool {
	return e.running.Load()
}

// Start establishes the recursive watch. On failure the engine stays stopped;
// callers treat the error as an invalid source location.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopCh != nil {
		if e.running.Load() {
			return nil
		}
		e.teardown()
	}

	mapper, err := pathmap.NewMapper(e.session)
	if err != nil {
		return fmt.Errorf("source location is not valid: %w", err)
	}

	info, err := os.Stat(mapper.Source.Resolved)
	if err != nil {
		return fmt.Errorf("source location is not valid: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source location is not valid: %s is not a directory", e.session.SourceRoot)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	c := newClassifier(mapper, fw, e.opts.settle, e.opts.moveWindow)
	if err := c.seed(); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch %s: %w", e.session.SourceRoot, err)
	}

	e.fw = fw
	e.stopCh = make(chan struct{})
	e.doneCh = make(chan struct{})
	e.running.Store(true)

	go e.run(fw, c, e.stopCh, e.doneCh)

	logger.Log.Info("mirror started",
		zap.String("src", e.session.SourceRoot),
		zap.String("dst", e.session.TargetRoot),
		zap.Bool("include_hidden", e.session.IncludeHidden))

	return nil
}

// Stop releases the watch and waits for the event being replicated, if any.
// No report is emitted once Stop returns. Stopping a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopCh == nil {
		return
	}

	e.teardown()

	logger.Log.Info("mirror stopped",
		zap.String("src", e.session.SourceRoot))
}

func (e *Engine) teardown() {
	close(e.stopCh)
	_ = e.fw.Close()
	<-e.doneCh

	e.fw = nil
	e.stopCh = nil
	e.doneCh = nil
	e.running.Store(false)
}

func (e *Engine) run(fw *fsnotify.Watcher, c *classifier, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		var timeout <-chan time.Time
		if at, ok := c.deadline(); ok {
			timeout = time.After(time.Until(at))
		}

		select {
		case <-stopCh:
			return

		case ev, ok := <-fw.Events:
			if !ok {
				e.running.Store(false)
				return
			}
			e.dispatch(stopCh, c.mapper, c.push(ev, time.Now()))

		case err, ok := <-fw.Errors:
			if !ok {
				e.running.Store(false)
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				logger.Log.Warn("watcher dropped events, rescanning",
					zap.String("src", e.session.SourceRoot))
				e.dispatch(stopCh, c.mapper, c.resync())
				continue
			}
			logger.Log.Error("watcher error",
				zap.String("src", e.session.SourceRoot),
				zap.Error(err))

		case now := <-timeout:
			e.dispatch(stopCh, c.mapper, c.expire(now))
		}
	}
}

func (e *Engine) dispatch(stopCh <-chan struct{}, mapper pathmap.Mapper, events []model.ChangeEvent) {
	for _, ev := range events {
		select {
		case <-stopCh:
			return
		default:
		}

		if !e.filter.Allow(pathmap.Suffix(mapper.Source.Resolved, ev.Source.Resolved)) {
			logger.Log.Debug("event filtered",
				zap.String("kind", string(ev.Kind)),
				zap.String("path", ev.Source.Resolved))
			continue
		}

		e.sink.Report(Replicate(ev))
	}
}
