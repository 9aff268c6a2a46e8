package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rxtech-lab/dca-executor/internal/services"
)

type APIServer struct {
	app           *fiber.App
	dispatcher    services.JobDispatcher
	purchases     services.PurchaseService
	walletAddress string
}

func NewAPIServer(dispatcher services.JobDispatcher, purchases services.PurchaseService, walletAddress string) *APIServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Add middleware
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	server := &APIServer{
		app:           app,
		dispatcher:    dispatcher,
		purchases:     purchases,
		walletAddress: walletAddress,
	}
	server.setupRoutes()
	return server
}

func (s *APIServer) setupRoutes() {
	// Webhook ingress for third-party order events
	s.app.Post("/webhook/trade", s.handleTradeWebhook)

	// Purchase history
	s.app.Get("/purchases/:wallet", s.handleListPurchases)

	// Health check
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})
}

// Start starts the server on the given address, blocking until shutdown
func (s *APIServer) Start(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server
func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the fiber app for tests
func (s *APIServer) App() *fiber.App {
	return s.app
}
