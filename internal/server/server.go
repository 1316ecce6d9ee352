package server

import (
	"log"
	"net"

	"freewrite-assistant/internal/config"
	"freewrite-assistant/internal/handler"
	"freewrite-assistant/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
)

// Server is the development generation backend.
type Server struct {
	app *fiber.App
	cfg *config.Config
}

func New(cfg *config.Config, streams *handler.StreamHandler) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit:             1 * 1024 * 1024,
		ErrorHandler:          serverutils.ErrorHandler,
		DisableStartupMessage: true,
	})

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	streams.RegisterRoutes(app)

	return &Server{
		app: app,
		cfg: cfg,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("✅ Dev backend is running on ws://localhost:%s/ws", s.cfg.DevServer.Port)
	return s.app.Listen(":" + s.cfg.DevServer.Port)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
