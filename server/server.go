// Package server exposes the dashboard's REST API over fiber: agents,
// pipelines, triggers, runs, training jobs, and the workflow editor's
// save/layout/run operations.
package server

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/pipeboard/pipeboard"
)

// Server wires the store and run manager into a fiber app.
type Server struct {
	store pipeboard.Store
	log   *slog.Logger
	runs  *runManager

	// stepDelay is how long the run simulator holds each node in the
	// running state.
	stepDelay time.Duration
}

// Option tweaks server construction.
type Option func(*Server)

// WithStepDelay overrides the simulated per-node run delay.
func WithStepDelay(d time.Duration) Option {
	return func(s *Server) { s.stepDelay = d }
}

// New builds the fiber app with all routes mounted.
func New(store pipeboard.Store, log *slog.Logger, opts ...Option) *fiber.App {
	s := &Server{
		store:     store,
		log:       log,
		runs:      newRunManager(),
		stepDelay: 600 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}

	app := fiber.New()
	app.Use(s.requestLog)

	app.Get("/api/health", s.health)

	api := app.Group("/api")
	s.mountAgents(api)
	s.mountPipelines(api)
	s.mountTriggers(api)
	s.mountTraining(api)
	s.mountWorkflows(api)
	s.mountRuns(api)

	return app
}

var startTime = time.Now()

func (s *Server) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":     "healthy",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"service":    "pipeboard-api",
		"uptime":     time.Since(startTime).String(),
		"go_version": runtime.Version(),
	})
}

func (s *Server) requestLog(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.log.Info("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}
