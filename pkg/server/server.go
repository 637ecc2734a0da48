// Package server exposes the local timer over a small HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"tableflip.dev/tickr/pkg/api"
	"tableflip.dev/tickr/pkg/app"
	"tableflip.dev/tickr/pkg/timeutil"
	"tableflip.dev/tickr/pkg/view"
)

// DefaultAddr is where the API listens when no address is configured.
const DefaultAddr = "127.0.0.1:7777"

// Server provides an HTTP API for the local timer.
type Server struct {
	addr      string
	app       *app.Service
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
	errs      chan error
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, a *app.Service) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		app:    a,
		ctx:    ctx,
		cancel: cancel,
		errs:   make(chan error, 1),
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/timer", s.handleTimer)
	r.POST("/api/timer/start", s.handleStart)
	r.POST("/api/timer/pause", s.handlePause)
	r.POST("/api/timer/resume", s.handleResume)
	r.POST("/api/timer/stop", s.handleStop)
	r.POST("/api/timer/sync", s.handleSync)
	r.GET("/api/entries", s.handleEntries)
	r.GET("/api/log", s.handleLog)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.errs <- fmt.Errorf("server: serve: %w", err)
		}
	}()
	return nil
}

// Wait blocks until ctx is done or the server stops serving on its own. It
// returns the serve error in the latter case.
func (s *Server) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return nil
	case err := <-s.errs:
		return err
	}
}

// Addr is the address the server listens on once started.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var apiErr *api.Error
	switch {
	case errors.Is(err, app.ErrDescriptionRequired), errors.Is(err, app.ErrNameRequired):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrAlreadyRunning), errors.Is(err, app.ErrNoSession):
		return http.StatusConflict
	case errors.Is(err, app.ErrNoBackend):
		return http.StatusServiceUnavailable
	case errors.Is(err, api.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		return apiErr.Status
	case errors.As(err, new(*url.Error)):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	st, err := s.app.Status()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read timer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"uptime":  time.Since(s.startTime).String(),
		"running": st.Running(),
	})
}

func (s *Server) handleTimer(c *gin.Context) {
	st, err := s.app.Status()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view.FromStatus(st))
}

func (s *Server) handleStart(c *gin.Context) {
	var req struct {
		Description string `json:"description" binding:"required"`
		ProjectID   *int64 `json:"project_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body or missing description field"})
		return
	}

	st, err := s.app.Start(c.Request.Context(), req.Description, req.ProjectID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view.FromStatus(st))
}

func (s *Server) handlePause(c *gin.Context) {
	st, err := s.app.Pause()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view.FromStatus(st))
}

func (s *Server) handleResume(c *gin.Context) {
	st, err := s.app.Resume()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view.FromStatus(st))
}

func (s *Server) handleStop(c *gin.Context) {
	res, err := s.app.Stop(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view.FromStop(res))
}

func (s *Server) handleSync(c *gin.Context) {
	st, err := s.app.Sync(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view.FromStatus(st))
}

func (s *Server) handleEntries(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(app.DefaultPerPage)))

	p, err := s.app.Entries(c.Request.Context(), page, perPage)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view.FromPage(p))
}

func (s *Server) handleLog(c *gin.Context) {
	window, label, err := timeutil.ParseWindow(c.Query("last"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessions, err := s.app.Log(c.Request.Context(), time.Now().Add(-window), time.Time{})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"window":   label,
		"count":    len(sessions),
		"sessions": view.FromSessions(sessions),
	})
}
