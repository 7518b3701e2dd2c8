package api

import (
	"context"
	"net"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/pojntfx/pojde-rs/internal/errors"
	"github.com/pojntfx/pojde-rs/internal/instance"
	"github.com/pojntfx/pojde-rs/internal/logging"
	"github.com/pojntfx/pojde-rs/internal/metrics"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// server context is cancelled.
const shutdownTimeout = 5 * time.Second

// Server is the HTTP front end of a Manager.
type Server struct {
	app *fiber.App
}

// New builds the fiber application with every route registered. A nil
// mt leaves /metrics unregistered.
func New(m *instance.Manager, mt *metrics.Metrics) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "pojdectl",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(requestLogger)

	handler := NewInstanceHandler(m)

	api := app.Group("/api")
	v1 := api.Group("/v1")

	instances := v1.Group("/instances")
	instances.Get("/", handler.ListInstances)
	instances.Post("/start", handler.StartInstances)
	instances.Post("/stop", handler.StopInstances)
	instances.Post("/restart", handler.RestartInstances)
	instances.Get("/:name", handler.GetInstance)
	instances.Get("/:name/logs", handler.GetInstanceLogs)

	if mt != nil {
		app.Get("/metrics", adaptor.HTTPHandler(mt.Handler()))
	}

	return &Server{app: app}
}

// App exposes the fiber application, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Serve accepts connections on l until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(l)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errors.Wrap(errors.ExitGeneralError, "api server failed", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			return errors.Wrap(errors.ExitGeneralError, "api server shutdown failed", err)
		}
		return <-errCh
	}
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(errors.ExitGeneralError, "failed to listen on "+addr, err)
	}
	logging.Info("api server listening", "addr", l.Addr().String())
	return s.Serve(ctx, l)
}

func requestLogger(c *fiber.Ctx) error {
	began := time.Now()
	err := c.Next()
	logging.Debug("api request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(began),
	)
	return err
}
