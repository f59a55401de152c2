// Package searchapi exposes the shell search-provider boundary over HTTP.
// The five methods mirror the host protocol one to one; the adapter behind
// them owns all result-id semantics.
package searchapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/camelCaseNick/dialect/internal/search"
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type Server struct {
	adapter *search.Adapter
	orch    *search.Orchestrator
	logger  zerolog.Logger
	opts    Options
}

func NewServer(adapter *search.Adapter, orch *search.Orchestrator, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "127.0.0.1"
	}
	port := opts.Port
	if port <= 0 {
		port = 8722
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 60 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		adapter: adapter,
		orch:    orch,
		logger:  logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.adapter == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("search provider listening")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("search provider stopped")
	return nil
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := s.logger.Info()
			if v.Error != nil {
				event = s.logger.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("protocol call")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.POST("/search/initial", s.handleInitialResultSet)
	api.POST("/search/subsearch", s.handleSubsearchResultSet)
	api.POST("/search/metas", s.handleResultMetas)
	api.POST("/search/activate", s.handleActivateResult)
	api.POST("/search/launch", s.handleLaunchSearch)
	return e
}

type termsRequest struct {
	Terms []string `json:"terms"`
}

type subsearchRequest struct {
	PreviousIDs []string `json:"previous_ids"`
	Terms       []string `json:"terms"`
}

type metasRequest struct {
	IDs []string `json:"ids"`
}

type activateRequest struct {
	ID        string   `json:"id"`
	Terms     []string `json:"terms"`
	Timestamp uint32   `json:"timestamp"`
}

type launchRequest struct {
	Terms     []string `json:"terms"`
	Timestamp uint32   `json:"timestamp"`
}

type idsResponse struct {
	IDs []string `json:"ids"`
}

type metasResponse struct {
	Metas []search.ResultMeta `json:"metas"`
}

func (s *Server) handleHealth(c echo.Context) error {
	state := s.orch.State()
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"backend": state.BackendName,
		"ready":   state.Ready,
		"live":    state.Live,
	})
}

func (s *Server) handleInitialResultSet(c echo.Context) error {
	var req termsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ids := s.adapter.ListResults(c.Request().Context(), req.Terms)
	return c.JSON(http.StatusOK, idsResponse{IDs: emptyIfNil(ids)})
}

func (s *Server) handleSubsearchResultSet(c echo.Context) error {
	var req subsearchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ids := s.adapter.Subsearch(c.Request().Context(), req.PreviousIDs, req.Terms)
	return c.JSON(http.StatusOK, idsResponse{IDs: emptyIfNil(ids)})
}

func (s *Server) handleResultMetas(c echo.Context) error {
	var req metasRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	metas := s.adapter.DescribeResults(req.IDs)
	if metas == nil {
		metas = []search.ResultMeta{}
	}
	return c.JSON(http.StatusOK, metasResponse{Metas: metas})
}

func (s *Server) handleActivateResult(c echo.Context) error {
	var req activateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.adapter.Activate(c.Request().Context(), req.ID, req.Terms, req.Timestamp); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "activation failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleLaunchSearch(c echo.Context) error {
	var req launchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.adapter.LaunchSearch(c.Request().Context(), req.Terms, req.Timestamp); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "launch failed")
	}
	return c.NoContent(http.StatusNoContent)
}

func emptyIfNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
