package daemon

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"mirrorsync/internal/config"
	"mirrorsync/internal/logger"
	"mirrorsync/internal/mirror"
	"mirrorsync/internal/model"
	"mirrorsync/internal/repository"
	"mirrorsync/internal/validate"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrAlreadyRunning = errors.New("folder already running")
	ErrNotRunning     = errors.New("folder not running")
)

// autostartLimit bounds how many folders seed their watches concurrently at boot.
const autostartLimit = 4

type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*SessionState
	cfg      *config.Config
	folders  *repository.PairedFolderRepository
	history  *repository.HistoryRepository
}

func NewSessionManager(cfg *config.Config) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*SessionState),
		cfg:      cfg,
		folders:  repository.NewPairedFolderRepository(),
		history:  repository.NewHistoryRepository(),
	}
}

// StartFolder validates folder against the stored pairs, then builds and
// starts an engine for it. The manager lock is not held while the watch is
// being established.
func (m *SessionManager) StartFolder(folder model.PairedFolder) error {
	m.mu.RLock()
	_, exists := m.sessions[folder.ID]
	m.mu.RUnlock()

	if exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, folder.Alias)
	}

	if err := m.check(folder); err != nil {
		return fmt.Errorf("invalid folder %q: %w", folder.Alias, err)
	}

	state := NewSessionState(folder)

	engine, err := mirror.New(folder.Session(),
		mirror.SinkFunc(func(report model.Report) {
			m.record(folder, state, report)
		}),
		mirror.WithSettleDelay(m.cfg.SettleDelay),
		mirror.WithMoveWindow(m.cfg.MoveWindow),
		mirror.WithIgnoreList(m.cfg.IgnoreList))
	if err != nil {
		return err
	}
	state.engine = engine

	if err := engine.Start(); err != nil {
		return err
	}

	m.mu.Lock()
	if _, exists := m.sessions[folder.ID]; exists {
		m.mu.Unlock()
		engine.Stop()
		return fmt.Errorf("%w: %s", ErrAlreadyRunning, folder.Alias)
	}
	m.sessions[folder.ID] = state
	m.mu.Unlock()

	logger.Log.Info("folder started",
		zap.String("id", folder.ID),
		zap.String("alias", folder.Alias))

	return nil
}

func (m *SessionManager) record(folder model.PairedFolder, state *SessionState, report model.Report) {
	state.RecordReport(report)

	if err := m.history.Save(folder.ID, report); err != nil {
		logger.Log.Warn("failed to save history",
			zap.String("id", folder.ID),
			zap.Error(err))
		return
	}

	keep := folder.BufferSize
	if keep <= 0 {
		keep = m.cfg.BufferSize
	}

	if err := m.history.Prune(folder.ID, keep); err != nil {
		logger.Log.Warn("failed to prune history",
			zap.String("id", folder.ID),
			zap.Error(err))
	}
}

func (m *SessionManager) StopFolder(id string) error {
	m.mu.Lock()
	state, exists := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrNotRunning, id)
	}

	state.engine.Stop()

	logger.Log.Info("folder stopped",
		zap.String("id", id),
		zap.String("alias", state.Alias))

	return nil
}

func (m *SessionManager) StopAll() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		_ = m.StopFolder(id)
	}
}

// check runs the paired folder checks on stored data, which may have gone
// stale since the folder was added.
func (m *SessionManager) check(folder model.PairedFolder) error {
	existing, err := m.folders.GetAll()
	if err != nil {
		return fmt.Errorf("failed to load folders: %w", err)
	}

	if folder.BufferSize <= 0 {
		folder.BufferSize = m.cfg.BufferSize
	}
	return validate.PairedFolder(folder, existing)
}

func (m *SessionManager) IsRunning(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.sessions[id]
	return exists
}

// StartAutostart starts every stored folder flagged for autostart and returns
// how many are running. A folder that fails to start is logged and skipped.
func (m *SessionManager) StartAutostart() (int, error) {
	folders, err := m.folders.GetAutostart()
	if err != nil {
		return 0, fmt.Errorf("failed to load folders: %w", err)
	}

	var g errgroup.Group
	g.SetLimit(autostartLimit)

	for _, folder := range folders {
		folder := folder
		g.Go(func() error {
			if err := m.StartFolder(folder); err != nil {
				logger.Log.Warn("failed to start folder",
					zap.String("id", folder.ID),
					zap.String("alias", folder.Alias),
					zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}

func (m *SessionManager) Snapshots() []model.SessionSnapshot {
	m.mu.RLock()
	snaps := make([]model.SessionSnapshot, 0, len(m.sessions))
	for _, state := range m.sessions {
		snaps = append(snaps, state.Snapshot())
	}
	m.mu.RUnlock()

	slices.SortFunc(snaps, func(a, b model.SessionSnapshot) int {
		return strings.Compare(a.Alias, b.Alias)
	})

	return snaps
}
