// Package httpui serves the controller state and operations over local HTTP.
package httpui

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tasksync/internal/service"
	"tasksync/internal/store"
)

const (
	// DefaultAddr is used when no address is configured.
	DefaultAddr = "127.0.0.1:8080"

	requestTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Server exposes one controller as a JSON API.
type Server struct {
	ctrl   *store.Controller
	logger *slog.Logger
	engine *gin.Engine
}

type createRequest struct {
	Task string `json:"task"`
}

// New builds the routes for ctrl.
func New(ctrl *store.Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{ctrl: ctrl, logger: logger}

	// Route registration noise goes to stdout in debug mode.
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), s.requestID, s.requestLogging, timeout(requestTimeout))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/state", s.state)
	api.POST("/reload", s.reload)
	api.POST("/tasks", s.create)
	api.POST("/tasks/:id/toggle", s.toggle)
	api.DELETE("/tasks/:id", s.remove)

	s.engine = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

func (s *Server) state(c *gin.Context) {
	c.JSON(http.StatusOK, s.ctrl.Snapshot())
}

func (s *Server) reload(c *gin.Context) {
	s.respond(c, s.ctrl.Load(c.Request.Context()))
}

func (s *Server) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	s.respond(c, s.ctrl.Add(c.Request.Context(), req.Task))
}

func (s *Server) toggle(c *gin.Context) {
	s.respond(c, s.ctrl.Toggle(c.Request.Context(), c.Param("id")))
}

func (s *Server) remove(c *gin.Context) {
	s.respond(c, s.ctrl.Delete(c.Request.Context(), c.Param("id")))
}

// respond writes the snapshot on success, or the error with a status
// derived from it.
func (s *Server) respond(c *gin.Context, err error) {
	if err == nil {
		c.JSON(http.StatusOK, s.ctrl.Snapshot())
		return
	}
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrEmptyText):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrUnknownTask), errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
