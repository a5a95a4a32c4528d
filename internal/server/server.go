package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/banking_ledger/internal/routes"
)

// Server wraps the Fiber application and the address it listens on.
type Server struct {
	app  *fiber.App
	addr string
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(d routes.Deps) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      d.Cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	if err := routes.Setup(app, d); err != nil {
		return nil, err
	}

	return &Server{app: app, addr: d.Cfg.Address()}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.addr)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
