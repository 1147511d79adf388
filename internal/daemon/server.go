package daemon

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"mirrorsync/internal/logger"
	"mirrorsync/internal/model"
	"mirrorsync/internal/repository"
	"mirrorsync/internal/validate"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Server struct {
	echo       *echo.Echo
	manager    *SessionManager
	folderRepo *repository.PairedFolderRepository
	histRepo   *repository.HistoryRepository
	port       int
	stopCh     chan struct{}
}

func NewServer(manager *SessionManager, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:       e,
		manager:    manager,
		folderRepo: repository.NewPairedFolderRepository(),
		histRepo:   repository.NewHistoryRepository(),
		port:       port,
		stopCh:     make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	// For the entire daemon
	s.echo.GET("/status", s.handleStatus)
	s.echo.POST("/stop", s.handleStop)

	// For a specific paired folder, addressed by id or alias
	g := s.echo.Group("/folders")
	g.GET("", s.handleListFolders)
	g.POST("", s.handleAddFolder)
	g.PATCH("/:id", s.handleUpdateFolder)
	g.DELETE("/:id", s.handleRemoveFolder)
	g.POST("/:id/start", s.handleStartFolder)
	g.POST("/:id/stop", s.handleStopFolder)

	// History
	s.echo.GET("/history", s.handleHistory)
	s.echo.GET("/history/stats", s.handleHistoryStats)
}

func (s *Server) Start() {
	go func() {
		addr := "localhost:" + strconv.Itoa(s.port)
		logger.Log.Info("daemon server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("daemon server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	s.manager.StopAll()
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func errorJSON(c echo.Context, code int, err error) error {
	return c.JSON(code, map[string]string{"error": err.Error()})
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"sessions": s.manager.Snapshots(),
	})
}

func (s *Server) handleStop(c echo.Context) error {
	select {
	case s.stopCh <- struct{}{}:
	default:
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}

func (s *Server) handleListFolders(c echo.Context) error {
	folders, err := s.folderRepo.GetAll()
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}

	running := make(map[string]model.SessionSnapshot)
	for _, snap := range s.manager.Snapshots() {
		running[snap.FolderID] = snap
	}

	return c.JSON(http.StatusOK, map[string]any{
		"folders": folders,
		"running": running,
	})
}

type addFolderRequest struct {
	Source        string `json:"source"`
	Target        string `json:"target"`
	Alias         string `json:"alias"`
	IncludeHidden bool   `json:"include_hidden"`
	BufferSize    int    `json:"buffer_size"`
	Autostart     bool   `json:"autostart"`
	Start         bool   `json:"start"`
}

func (s *Server) handleAddFolder(c echo.Context) error {
	var req addFolderRequest
	if err := c.Bind(&req); err != nil || req.Source == "" || req.Target == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "source and target required"})
	}

	folder := model.PairedFolder{
		Alias:         req.Alias,
		Source:        req.Source,
		Target:        req.Target,
		IncludeHidden: req.IncludeHidden,
		BufferSize:    req.BufferSize,
		Autostart:     req.Autostart,
	}
	if folder.BufferSize == 0 {
		folder.BufferSize = s.manager.cfg.BufferSize
	}

	existing, err := s.folderRepo.GetAll()
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}

	if err := validate.PairedFolder(folder, existing); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	folder, err = s.folderRepo.Add(folder)
	if err != nil {
		return errorJSON(c, http.StatusConflict, err)
	}

	if req.Start {
		if err := s.manager.StartFolder(folder); err != nil {
			return errorJSON(c, http.StatusInternalServerError, err)
		}
	}

	return c.JSON(http.StatusCreated, folder)
}

func (s *Server) findFolder(ref string) (model.PairedFolder, int, error) {
	folder, err := s.folderRepo.Find(ref)
	switch {
	case errors.Is(err, repository.ErrFolderNotFound):
		return folder, http.StatusNotFound, err
	case err != nil:
		return folder, http.StatusInternalServerError, err
	}
	return folder, http.StatusOK, nil
}

type updateFolderRequest struct {
	Alias         *string `json:"alias"`
	IncludeHidden *bool   `json:"include_hidden"`
	BufferSize    *int    `json:"buffer_size"`
	Autostart     *bool   `json:"autostart"`
}

// handleUpdateFolder changes a folder's options. A running folder is restarted
// so the new session takes effect.
func (s *Server) handleUpdateFolder(c echo.Context) error {
	folder, code, err := s.findFolder(c.Param("id"))
	if err != nil {
		return errorJSON(c, code, err)
	}

	var req updateFolderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.Alias != nil && *req.Alias != "" {
		folder.Alias = *req.Alias
	}
	if req.IncludeHidden != nil {
		folder.IncludeHidden = *req.IncludeHidden
	}
	if req.BufferSize != nil {
		folder.BufferSize = *req.BufferSize
	}
	if req.Autostart != nil {
		folder.Autostart = *req.Autostart
	}

	existing, err := s.folderRepo.GetAll()
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	if err := validate.PairedFolder(folder, existing); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	if err := s.folderRepo.Update(folder); err != nil {
		return errorJSON(c, http.StatusConflict, err)
	}

	if s.manager.IsRunning(folder.ID) {
		_ = s.manager.StopFolder(folder.ID)
		if err := s.manager.StartFolder(folder); err != nil {
			return errorJSON(c, http.StatusInternalServerError, err)
		}
	}

	return c.JSON(http.StatusOK, folder)
}

func (s *Server) handleRemoveFolder(c echo.Context) error {
	folder, code, err := s.findFolder(c.Param("id"))
	if err != nil {
		return errorJSON(c, code, err)
	}

	_ = s.manager.StopFolder(folder.ID)

	if err := s.folderRepo.Delete(folder.ID); err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleStartFolder(c echo.Context) error {
	folder, code, err := s.findFolder(c.Param("id"))
	if err != nil {
		return errorJSON(c, code, err)
	}

	if err := s.manager.StartFolder(folder); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "started"})
}

func (s *Server) handleStopFolder(c echo.Context) error {
	folder, code, err := s.findFolder(c.Param("id"))
	if err != nil {
		return errorJSON(c, code, err)
	}

	if err := s.manager.StopFolder(folder.ID); err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "stopped"})
}

// folderFilter resolves the optional ?folder= query to a folder id.
func (s *Server) folderFilter(c echo.Context) (string, error) {
	ref := c.QueryParam("folder")
	if ref == "" {
		return "", nil
	}

	folder, err := s.folderRepo.Find(ref)
	if err != nil {
		return "", err
	}
	return folder.ID, nil
}

func (s *Server) handleHistory(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil && parsed > 0 {
			n = parsed
		}
	}

	folderID, err := s.folderFilter(c)
	if err != nil {
		return errorJSON(c, http.StatusNotFound, err)
	}

	var histories []model.History
	if c.QueryParam("failed") == "true" {
		histories, err = s.histRepo.GetFailed(folderID)
	} else {
		histories, err = s.histRepo.GetRecent(n, folderID)
	}
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, histories)
}

func (s *Server) handleHistoryStats(c echo.Context) error {
	folderID, err := s.folderFilter(c)
	if err != nil {
		return errorJSON(c, http.StatusNotFound, err)
	}

	stats, err := s.histRepo.GetStats(folderID)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, stats)
}
