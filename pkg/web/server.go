// Package web exposes the hexapod over HTTP: a small intent API and a
// websocket telemetry stream for the dashboard.
package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/hexapod-robotics/hexapod/internal/log"
	"github.com/hexapod-robotics/hexapod/pkg/control"
	"github.com/hexapod-robotics/hexapod/pkg/hexapod"
	"github.com/hexapod-robotics/hexapod/pkg/hub"
)

// telemetryPeriod is how often state is pushed to websocket clients.
const telemetryPeriod = 200 * time.Millisecond

// Server is the HTTP control surface.
type Server struct {
	app  *fiber.App
	addr string

	hex        *hexapod.Hexapod
	dispatcher *control.Dispatcher
	stateHub   *hub.Hub

	stopTelemetry chan struct{}
}

// NewServer wires the API to the robot and its dispatcher.
func NewServer(addr string, h *hexapod.Hexapod, d *control.Dispatcher) *Server {
	s := &Server{
		addr:          addr,
		hex:           h,
		dispatcher:    d,
		stateHub:      hub.New("state"),
		stopTelemetry: make(chan struct{}),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Hexapod Control",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/intents", s.handleListIntents)
	api.Post("/intents/:name", s.handleIntent)
	api.Post("/body", s.handleBodyPose)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/state", websocket.New(s.handleStateWS))

	s.app = app
	return s
}

// Start blocks serving HTTP on the configured address.
func (s *Server) Start() error {
	go s.stateHub.Run()
	go s.telemetryLoop()
	log.Info("web server listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync serves on a background goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("web server stopped", "err", err)
		}
	}()
}

// telemetryLoop pushes the robot state to every websocket client at a
// fixed rate.
func (s *Server) telemetryLoop() {
	ticker := time.NewTicker(telemetryPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopTelemetry:
			return
		case <-ticker.C:
			if s.stateHub.ClientCount() > 0 {
				s.stateHub.BroadcastJSON(s.status())
			}
		}
	}
}

// Shutdown stops the telemetry loop and the HTTP listener.
func (s *Server) Shutdown() error {
	close(s.stopTelemetry)
	return s.app.Shutdown()
}
