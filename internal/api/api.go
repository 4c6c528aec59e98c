// Package api exposes the internal HTTP surface: the worker result ingest
// endpoint, health, and Prometheus metrics.
//
// This surface is internal infrastructure, not a public API. Callers are
// the extraction workers and the platform's monitoring; the only
// authentication is a shared worker token header.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ironsheep/sheetscan/internal/ingest"
	"github.com/ironsheep/sheetscan/internal/metrics"
	"github.com/ironsheep/sheetscan/internal/store"
)

// workerTokenHeader authenticates worker deliveries.
const workerTokenHeader = "X-Worker-Token"

// Server is the internal HTTP server.
type Server struct {
	echo        *echo.Echo
	ingestor    *ingest.Ingestor
	metrics     *metrics.Metrics
	workerToken string
	address     string
	log         *slog.Logger
}

// Config assembles a Server.
type Config struct {
	Address     string
	WorkerToken string // empty disables token checks (tests, local runs)
	Ingestor    *ingest.Ingestor
	Metrics     *metrics.Metrics
	Log         *slog.Logger
}

// New builds the server and registers all routes.
func New(cfg Config) *Server {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:        e,
		ingestor:    cfg.Ingestor,
		metrics:     cfg.Metrics,
		workerToken: cfg.WorkerToken,
		address:     cfg.Address,
		log:         log,
	}

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(
		cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	e.POST("/api/v1/internal/results/omr/ingest", s.handleIngest, s.requireWorkerToken)

	return s
}

// Start serves until Shutdown or a listener error.
func (s *Server) Start() error {
	s.log.Info("http server starting", "address", s.address)
	err := s.echo.Start(s.address)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the router for tests.
func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) requireWorkerToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.workerToken == "" {
			return next(c)
		}
		if c.Request().Header.Get(workerTokenHeader) != s.workerToken {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "missing or invalid worker token",
			})
		}
		return next(c)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleIngest(c echo.Context) error {
	var req ingest.Request
	if err := c.Bind(&req); err != nil {
		s.metrics.IngestOutcome("rejected")
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "malformed request body",
		})
	}

	resp, err := s.ingestor.Ingest(c.Request().Context(), &req)
	switch {
	case errors.Is(err, ingest.ErrInvalidRequest):
		s.metrics.IngestOutcome("rejected")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, store.ErrSubmissionNotFound):
		s.metrics.IngestOutcome("rejected")
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	case err != nil:
		s.log.Error("ingest failed", "submission_id", req.SubmissionID, "error", err)
		s.metrics.IngestOutcome("error")
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "internal error",
		})
	}

	s.metrics.IngestOutcome(resp.NextAction)
	return c.JSON(http.StatusOK, resp)
}
