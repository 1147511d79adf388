package daemon

import (
	"sync"
	"time"

	"mirrorsync/internal/mirror"
	"mirrorsync/internal/model"
)

type SessionState struct {
	mu        sync.RWMutex
	FolderID  string
	Alias     string
	Source    string
	Target    string
	StartedAt time.Time
	Synced    int
	Failed    int
	LastEvent *time.Time
	engine    *mirror.Engine
}

func NewSessionState(folder model.PairedFolder) *SessionState {
	return &SessionState{
		FolderID:  folder.ID,
		Alias:     folder.Alias,
		Source:    folder.Source,
		Target:    folder.Target,
		StartedAt: time.Now(),
	}
}

func (s *SessionState) RecordReport(report model.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at := report.At
	s.LastEvent = &at
	if report.OK() {
		s.Synced++
	} else {
		s.Failed++
	}
}

func (s *SessionState) Snapshot() model.SessionSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return model.SessionSnapshot{
		FolderID:  s.FolderID,
		Alias:     s.Alias,
		Source:    s.Source,
		Target:    s.Target,
		Running:   s.engine != nil && s.engine.Running(),
		StartedAt: s.StartedAt,
		Synced:    s.Synced,
		Failed:    s.Failed,
		LastEvent: s.LastEvent,
	}
}
