// Package health serves the liveness page, the /health probe and the
// Prometheus metrics endpoint.
package health

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

//go:embed status.html
var statusPage []byte

// Server is the HTTP side of the bot process.
type Server struct {
	app *fiber.App
	now func() time.Time
}

// New builds a server exporting the collectors in reg.
func New(reg prometheus.Gatherer) *Server {
	s := &Server{now: time.Now}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).SendString(fe.Message)
			}
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	})
	s.app.Use(recover.New())

	s.app.Get("/", s.statusHandler)
	s.app.Get("/health", s.healthHandler)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	return s
}

// App exposes the fiber app for in-process requests.
func (s *Server) App() *fiber.App { return s.app }

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() { errc <- s.app.Listen(addr) }()
	log.Info().Str("addr", addr).Msg("health server started")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return <-errc
}

func (s *Server) statusHandler(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(statusPage)
}

func (s *Server) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "OK",
		"timestamp": s.now().UTC().Format(time.RFC3339Nano),
	})
}
