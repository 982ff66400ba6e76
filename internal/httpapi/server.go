// Package httpapi serves the read-only learning API: pattern stats,
// prompt evolution, and the adopted pattern ledger, plus health and
// Prometheus metrics endpoints.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/mentat/internal/learning"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Server exposes the learning state over HTTP. All endpoints are reads;
// mutation stays with the CLI and MCP surfaces.
type Server struct {
	echo     *echo.Echo
	learning *learning.Service
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// RateLimit is the allowed requests per second per client. Zero
	// disables rate limiting.
	RateLimit float64
}

// NewServer creates the HTTP server over the learning service.
func NewServer(svc *learning.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("learning service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8484,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit))))
	}
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		learning: svc,
		logger:   logger,
		config:   cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/stats", s.handleStats)
	v1.GET("/evolution", s.handleEvolution)
	v1.GET("/patterns", s.handlePatterns)
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleStats returns per-pattern effectiveness.
func (s *Server) handleStats(c echo.Context) error {
	effectiveness, err := s.learning.Effectiveness()
	if err != nil {
		s.logger.Error("loading effectiveness", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "loading effectiveness failed")
	}

	return c.JSON(http.StatusOK, StatsResponse{Patterns: effectiveness})
}

// handleEvolution returns the archived prompt version history.
func (s *Server) handleEvolution(c echo.Context) error {
	versions, err := s.learning.Versions()
	if err != nil {
		s.logger.Error("loading versions", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "loading versions failed")
	}

	return c.JSON(http.StatusOK, EvolutionResponse{
		Versions: versions,
		Total:    len(versions),
	})
}

// handlePatterns returns the adopted pattern ledger in insertion order.
func (s *Server) handlePatterns(c echo.Context) error {
	history, err := s.learning.Store().LoadHistory()
	if err != nil {
		s.logger.Error("loading history", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "loading history failed")
	}

	patterns := make([]PatternInfo, 0, len(history.Patterns))
	for i, text := range history.Patterns {
		patterns = append(patterns, PatternInfo{
			ID:   learning.PatternID(i),
			Text: text,
		})
	}

	return c.JSON(http.StatusOK, PatternsResponse{Patterns: patterns})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
