package api

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/abridged/discord-bot-template-sub000/internal/api/middleware"
	"github.com/abridged/discord-bot-template-sub000/internal/services"
)

// APIServer is the narrow HTTP surface the job source (the chat bot backend)
// calls to request deployments and read outcomes.
type APIServer struct {
	app        *fiber.App
	resolution services.ResolutionService
	records    services.EscrowRecordService
	locks      services.LockService
	authSecret string
	port       int

	// Background resolutions run on resolutionsCtx so shutdown can cancel
	// them; the wait group lets Shutdown block until each reaches a terminal
	// state and writes its outcome record.
	resolutionsCtx  context.Context
	stopResolutions context.CancelFunc
	resolutions     sync.WaitGroup

	// pending marks job keys accepted for background resolution before the
	// goroutine has acquired the job lock, so an immediate GET or duplicate
	// POST never sees a gap between 202 and lock acquisition.
	pendingMu sync.Mutex
	pending   map[string]struct{}
}

func NewAPIServer(resolution services.ResolutionService, records services.EscrowRecordService, locks services.LockService, authSecret string) *APIServer {
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

	ctx, cancel := context.WithCancel(context.Background())
	server := &APIServer{
		app:             app,
		resolution:      resolution,
		records:         records,
		locks:           locks,
		authSecret:      authSecret,
		resolutionsCtx:  ctx,
		stopResolutions: cancel,
		pending:         make(map[string]struct{}),
	}
	server.SetupRoutes()
	return server
}

// markPending claims a job key for background resolution. It returns false if
// the key is already claimed.
func (s *APIServer) markPending(jobKey string) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if _, exists := s.pending[jobKey]; exists {
		return false
	}
	s.pending[jobKey] = struct{}{}
	return true
}

func (s *APIServer) unmarkPending(jobKey string) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	delete(s.pending, jobKey)
}

func (s *APIServer) isPending(jobKey string) bool {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	_, exists := s.pending[jobKey]
	return exists
}

func (s *APIServer) SetupRoutes() {
	s.app.Get("/health", s.handleHealth)

	v1 := s.app.Group("/api/v1")
	if s.authSecret != "" {
		v1.Use(middleware.AuthMiddleware(middleware.AuthConfig{Secret: s.authSecret}))
	}

	v1.Post("/deployments", s.handleCreateDeployment)
	v1.Get("/deployments", s.handleListDeployments)
	v1.Get("/deployments/:job_key", s.handleGetDeployment)
}

// Start binds to the given port, or finds a free one when port is 0, and
// serves in the background.
func (s *APIServer) Start(port int) (int, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return 0, fmt.Errorf("failed to bind port: %w", err)
	}

	// Get the assigned port
	assigned := listener.Addr().(*net.TCPAddr).Port
	s.port = assigned

	// Close the listener so Fiber can use it
	listener.Close()

	go func() {
		if err := s.app.Listen(fmt.Sprintf(":%d", assigned)); err != nil {
			log.Printf("Error starting API server: %v\n", err)
		}
	}()

	return assigned, nil
}

// Shutdown cancels in-flight background resolutions, waits for each to reach
// a terminal state (they fail as cancelled and write their outcome records),
// then stops serving.
func (s *APIServer) Shutdown() error {
	s.stopResolutions()
	s.resolutions.Wait()
	return s.app.Shutdown()
}

func (s *APIServer) GetPort() int {
	return s.port
}

// App exposes the fiber app for handler tests.
func (s *APIServer) App() *fiber.App {
	return s.app
}

func (s *APIServer) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
