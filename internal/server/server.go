// Package server exposes the troubleshooting flow over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/repaird/internal/devices"
	"github.com/fyrsmithlabs/repaird/internal/logging"
	"github.com/fyrsmithlabs/repaird/internal/manuals"
	"github.com/fyrsmithlabs/repaird/internal/session"
)

// ManualIndexer indexes new repair manuals best-effort.
type ManualIndexer interface {
	AddManual(ctx context.Context, m manuals.Manual) bool
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Server provides the HTTP API for troubleshooting sessions.
type Server struct {
	echo     *echo.Echo
	manager  *session.Manager
	indexer  ManualIndexer
	registry *devices.Registry
	logger   *logging.Logger
	config   Config
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(manager *session.Manager, indexer ManualIndexer, registry *devices.Registry, logger *logging.Logger, cfg Config) (*Server, error) {
	if manager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("device registry is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 8420
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogging(logger))

	s := &Server{
		echo:     e,
		manager:  manager,
		indexer:  indexer,
		registry: registry,
		logger:   logger.Named("http"),
		config:   cfg,
	}
	s.registerRoutes()
	return s, nil
}

// requestLogging propagates the request ID into the context and logs each
// request with its duration.
func requestLogging(logger *logging.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			requestID := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logging.ContextWithRequestID(c.Request().Context(), requestID)
			c.SetRequest(c.Request().WithContext(ctx))

			err := next(c)
			duration := time.Since(start)
			status := c.Response().Status

			RequestDuration.WithLabelValues(
				c.Request().Method, c.Path(), strconv.Itoa(status),
			).Observe(duration.Seconds())

			logger.Info(ctx, "http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", status),
				zap.Duration("duration", duration),
			)
			return err
		}
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/v1")
	v1.POST("/sessions", s.handleCreateSession)
	v1.POST("/sessions/:id/advance", s.handleAdvance)
	v1.GET("/sessions/:id/output", s.handleOutput)
	v1.GET("/sessions/:id/state", s.handleState)
	v1.POST("/manuals", s.handleAddManual)
	v1.GET("/devices", s.handleDevices)
}

// HealthResponse is the response body for GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateSessionResponse is the response body for POST /v1/sessions.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Greeting  string `json:"greeting"`
}

const greeting = "Welcome to the repair assistant. Tell me which device you need help with, for example a model number like SMS6EDI06E."

func (s *Server) handleCreateSession(c echo.Context) error {
	ctx := c.Request().Context()

	sess, err := s.manager.Create(ctx)
	if err != nil {
		if errors.Is(err, session.ErrTooManySessions) {
			return echo.NewHTTPError(http.StatusServiceUnavailable, "session limit reached, try again later")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session")
	}

	SessionsStarted.Inc()
	return c.JSON(http.StatusCreated, CreateSessionResponse{
		SessionID: sess.ID,
		Greeting:  greeting,
	})
}

// AdvanceRequest is the request body for POST /v1/sessions/:id/advance.
type AdvanceRequest struct {
	Input string `json:"input"`
}

// CompletedResponse is returned when advancing an already finished session.
type CompletedResponse struct {
	Error       string               `json:"error"`
	FinalOutput *session.FinalOutput `json:"final_output"`
}

func (s *Server) handleAdvance(c echo.Context) error {
	sess, ok := s.manager.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	var req AdvanceRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := logging.ContextWithSession(c.Request().Context(), sess.ID)
	resp, err := sess.Advance(ctx, req.Input)
	if err != nil {
		if errors.Is(err, session.ErrSessionComplete) {
			return c.JSON(http.StatusConflict, CompletedResponse{
				Error:       "session already complete",
				FinalOutput: sess.FinalOutput(),
			})
		}
		s.logger.Error(ctx, "advance failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to advance session")
	}

	s.recordAdvanceMetrics(resp)
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) recordAdvanceMetrics(resp *session.StageResponse) {
	if resp.Repair == nil {
		return
	}
	switch {
	case resp.Complete && resp.Repair.Resolved:
		SessionsCompleted.WithLabelValues("success").Inc()
	case resp.Complete && resp.Repair.Escalated:
		SessionsCompleted.WithLabelValues("escalated").Inc()
	case resp.Repair.Step != "":
		RepairAttemptsIssued.Inc()
	}
}

func (s *Server) handleOutput(c echo.Context) error {
	sess, ok := s.manager.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, sess.FinalOutput())
}

func (s *Server) handleState(c echo.Context) error {
	sess, ok := s.manager.Get(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}

	data, err := sess.StateJSON()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to export session state")
	}
	return c.JSONBlob(http.StatusOK, data)
}

// AddManualResponse is the response body for POST /v1/manuals.
type AddManualResponse struct {
	Indexed bool `json:"indexed"`
}

func (s *Server) handleAddManual(c echo.Context) error {
	var m manuals.Manual
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if s.indexer == nil || !s.indexer.AddManual(c.Request().Context(), m) {
		return c.JSON(http.StatusBadGateway, AddManualResponse{Indexed: false})
	}
	return c.JSON(http.StatusCreated, AddManualResponse{Indexed: true})
}

// DevicesResponse is the response body for GET /v1/devices.
type DevicesResponse struct {
	Devices []string `json:"devices"`
}

func (s *Server) handleDevices(c echo.Context) error {
	return c.JSON(http.StatusOK, DevicesResponse{Devices: s.registry.DeviceList()})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info(context.Background(), "starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
