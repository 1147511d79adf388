package daemon

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mirrorsync/internal/config"
	"mirrorsync/internal/db"
	"mirrorsync/internal/model"
	"mirrorsync/internal/repository"
)

func newTestManager(t *testing.T) *SessionManager {
	t.Helper()

	if err := db.Init(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default
	cfg.SettleDelay = 20 * time.Millisecond

	m := NewSessionManager(&cfg)
	t.Cleanup(func() {
		m.StopAll()
		_ = db.Close()
	})
	return m
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestServerFolderLifecycle(t *testing.T) {
	m := newTestManager(t)
	s := NewServer(m, 0)
	src, dst := t.TempDir(), t.TempDir()

	body := fmt.Sprintf(`{"source":%q,"target":%q,"alias":"docs","start":true}`, src, dst)
	rec := do(t, s, http.MethodPost, "/folders", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: %d %s", rec.Code, rec.Body)
	}
	folder := decode[model.PairedFolder](t, rec)
	if folder.BufferSize != config.Default.BufferSize {
		t.Errorf("BufferSize = %d", folder.BufferSize)
	}

	status := decode[struct {
		Sessions []model.SessionSnapshot `json:"sessions"`
	}](t, do(t, s, http.MethodGet, "/status", ""))
	if len(status.Sessions) != 1 || !status.Sessions[0].Running || status.Sessions[0].Alias != "docs" {
		t.Fatalf("status = %+v", status)
	}

	if err := os.WriteFile(filepath.Join(src, "a.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "history entry", func() bool {
		rec := do(t, s, http.MethodGet, "/history?folder=docs", "")
		return len(decode[[]model.History](t, rec)) > 0
	})

	histories := decode[[]model.History](t, do(t, s, http.MethodGet, "/history?folder=docs", ""))
	created := false
	for _, h := range histories {
		if h.Event == "File creation" && h.Status == model.StatusSuccess {
			created = true
		}
	}
	if !created {
		t.Errorf("no successful creation in history: %+v", histories)
	}
	if _, err := os.Stat(filepath.Join(dst, "a.txt")); err != nil {
		t.Errorf("replica missing: %v", err)
	}

	stats := decode[repository.Stats](t, do(t, s, http.MethodGet, "/history/stats?folder=docs", ""))
	if stats.Total == 0 || stats.Failed != 0 {
		t.Errorf("stats = %+v", stats)
	}

	if rec := do(t, s, http.MethodPost, "/folders/docs/stop", ""); rec.Code != http.StatusOK {
		t.Fatalf("stop: %d %s", rec.Code, rec.Body)
	}
	if rec := do(t, s, http.MethodPost, "/folders/docs/stop", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("second stop: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/folders/"+folder.ID+"/start", ""); rec.Code != http.StatusOK {
		t.Fatalf("restart by id: %d %s", rec.Code, rec.Body)
	}

	if rec := do(t, s, http.MethodDelete, "/folders/docs", ""); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d %s", rec.Code, rec.Body)
	}
	if m.IsRunning(folder.ID) {
		t.Error("deleted folder still running")
	}

	list := decode[struct {
		Folders []model.PairedFolder `json:"folders"`
	}](t, do(t, s, http.MethodGet, "/folders", ""))
	if len(list.Folders) != 0 {
		t.Errorf("folders after delete = %+v", list.Folders)
	}
}

func TestServerRejectsInvalidFolder(t *testing.T) {
	s := NewServer(newTestManager(t), 0)
	src := t.TempDir()

	body := fmt.Sprintf(`{"source":%q,"target":%q}`, src, src)
	rec := do(t, s, http.MethodPost, "/folders", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "same location") {
		t.Errorf("body = %s", rec.Body)
	}

	if rec := do(t, s, http.MethodPost, "/folders", `{"source":""}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty request code = %d", rec.Code)
	}
}

func TestServerUnknownFolder(t *testing.T) {
	s := NewServer(newTestManager(t), 0)

	for _, path := range []string{"/folders/ghost/start", "/folders/ghost/stop"} {
		if rec := do(t, s, http.MethodPost, path, ""); rec.Code != http.StatusNotFound {
			t.Errorf("%s: code = %d", path, rec.Code)
		}
	}
	if rec := do(t, s, http.MethodGet, "/history?folder=ghost", ""); rec.Code != http.StatusNotFound {
		t.Errorf("history: code = %d", rec.Code)
	}
}

func TestServerStopSignals(t *testing.T) {
	s := NewServer(newTestManager(t), 0)

	do(t, s, http.MethodPost, "/stop", "")
	do(t, s, http.MethodPost, "/stop", "")

	select {
	case <-s.StopCh():
	default:
		t.Fatal("stop request not signalled")
	}
}

func TestStartAutostart(t *testing.T) {
	m := newTestManager(t)
	repo := repository.NewPairedFolderRepository()

	good, err := repo.Add(model.PairedFolder{Alias: "good", Source: t.TempDir(), Target: t.TempDir(), BufferSize: 100, Autostart: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Add(model.PairedFolder{Alias: "broken", Source: filepath.Join(t.TempDir(), "gone"), Target: t.TempDir(), BufferSize: 100, Autostart: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.Add(model.PairedFolder{Alias: "manual", Source: t.TempDir(), Target: t.TempDir(), BufferSize: 100}); err != nil {
		t.Fatal(err)
	}
	nestedSrc := t.TempDir()
	mustMkdirAll(t, filepath.Join(nestedSrc, "mirror"))
	nested, err := repo.Add(model.PairedFolder{Alias: "nested", Source: nestedSrc, Target: filepath.Join(nestedSrc, "mirror"), BufferSize: 100, Autostart: true})
	if err != nil {
		t.Fatal(err)
	}

	n, err := m.StartAutostart()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 || !m.IsRunning(good.ID) {
		t.Fatalf("running = %d, snapshots = %+v", n, m.Snapshots())
	}
	if m.IsRunning(nested.ID) {
		t.Error("folder with target inside its source was started")
	}
}

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatal(err)
	}
}

func TestStartFolderTwice(t *testing.T) {
	m := newTestManager(t)
	folder := model.PairedFolder{ID: "f1", Alias: "f1", Source: t.TempDir(), Target: t.TempDir(), BufferSize: 100}

	if err := m.StartFolder(folder); err != nil {
		t.Fatal(err)
	}
	if err := m.StartFolder(folder); err == nil {
		t.Fatal("expected already running error")
	}
	if err := m.StopFolder("f1"); err != nil {
		t.Fatal(err)
	}
	if err := m.StopFolder("f1"); err == nil {
		t.Fatal("expected not running error")
	}
}

func TestHistoryBoundedByBufferSize(t *testing.T) {
	m := newTestManager(t)
	src, dst := t.TempDir(), t.TempDir()
	limit := config.MinBufferSize
	folder := model.PairedFolder{ID: "f1", Alias: "f1", Source: src, Target: dst, BufferSize: limit}

	if err := m.StartFolder(folder); err != nil {
		t.Fatal(err)
	}

	total := limit + 5
	for i := 0; i < total; i++ {
		name := filepath.Join(src, fmt.Sprintf("f%d.txt", i))
		if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	waitFor(t, "all replicas", func() bool {
		for i := 0; i < total; i++ {
			if _, err := os.Stat(filepath.Join(dst, fmt.Sprintf("f%d.txt", i))); err != nil {
				return false
			}
		}
		return true
	})
	if err := m.StopFolder("f1"); err != nil {
		t.Fatal(err)
	}

	rows, err := repository.NewHistoryRepository().GetRecent(10*limit, "f1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) > limit {
		t.Errorf("history holds %d rows, want at most %d", len(rows), limit)
	}
}

func TestStartFolderRejectsStaleFolder(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()

	tests := []struct {
		name    string
		folder  model.PairedFolder
		wantErr string
	}{
		{
			name:    "target inside source",
			folder:  model.PairedFolder{Source: src, Target: filepath.Join(src, "mirror")},
			wantErr: "inside the source",
		},
		{
			name:    "source removed",
			folder:  model.PairedFolder{Source: filepath.Join(src, "gone"), Target: dst},
			wantErr: "source path is not a valid location",
		},
		{
			name:    "same location",
			folder:  model.PairedFolder{Source: src, Target: src},
			wantErr: "same location",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t)
			mustMkdirAll(t, tt.folder.Target)

			folder, err := repository.NewPairedFolderRepository().Add(tt.folder)
			if err != nil {
				t.Fatal(err)
			}

			err = m.StartFolder(folder)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
			if m.IsRunning(folder.ID) {
				t.Error("rejected folder is running")
			}
		})
	}
}

func TestStartFolderRejectsTargetInUse(t *testing.T) {
	m := newTestManager(t)
	repo := repository.NewPairedFolderRepository()
	dst := t.TempDir()

	if _, err := repo.Add(model.PairedFolder{Alias: "first", Source: t.TempDir(), Target: dst, BufferSize: 100}); err != nil {
		t.Fatal(err)
	}
	second, err := repo.Add(model.PairedFolder{Alias: "second", Source: t.TempDir(), Target: dst, BufferSize: 100})
	if err != nil {
		t.Fatal(err)
	}

	if err := m.StartFolder(second); err == nil || !strings.Contains(err.Error(), "already in use") {
		t.Fatalf("err = %v, want target in use", err)
	}
}

func TestServerUpdateFolder(t *testing.T) {
	s := NewServer(newTestManager(t), 0)
	src, dst := t.TempDir(), t.TempDir()

	body := fmt.Sprintf(`{"source":%q,"target":%q,"alias":"photos"}`, src, dst)
	if rec := do(t, s, http.MethodPost, "/folders", body); rec.Code != http.StatusCreated {
		t.Fatalf("add: %d %s", rec.Code, rec.Body)
	}

	rec := do(t, s, http.MethodPatch, "/folders/photos", `{"autostart":true,"buffer_size":250}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body)
	}
	updated := decode[model.PairedFolder](t, rec)
	if !updated.Autostart || updated.BufferSize != 250 || updated.Alias != "photos" {
		t.Errorf("updated = %+v", updated)
	}

	if rec := do(t, s, http.MethodPatch, "/folders/photos", `{"buffer_size":5}`); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid buffer size accepted: %d", rec.Code)
	}

	stored, err := repository.NewPairedFolderRepository().Find("photos")
	if err != nil {
		t.Fatal(err)
	}
	if stored.BufferSize != 250 {
		t.Errorf("stored BufferSize = %d", stored.BufferSize)
	}
}
