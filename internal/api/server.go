package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/healthmonitree/healthtrack/internal/appointments"
	"github.com/healthmonitree/healthtrack/internal/config"
	"github.com/healthmonitree/healthtrack/internal/hospitals"
	"github.com/healthmonitree/healthtrack/internal/medications"
	"github.com/healthmonitree/healthtrack/internal/metrics"
	"github.com/healthmonitree/healthtrack/internal/notify"
	"github.com/healthmonitree/healthtrack/internal/profile"
	"github.com/healthmonitree/healthtrack/internal/store"
)

// Deps carries everything the HTTP layer needs
type Deps struct {
	Config       *config.Config
	Store        *store.Store
	Medications  *medications.Store
	Scheduler    *medications.Scheduler
	Appointments *appointments.Store
	Profiles     *profile.Store
	Hospitals    *hospitals.Service
	Hub          *notify.Hub
	Metrics      *metrics.Metrics
	Logger       *zap.Logger
}

// Server handles HTTP API and WebSocket
type Server struct {
	app *fiber.App
	Deps
}

// New creates a new API server
func New(deps Deps) *Server {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(deps.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(deps.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	})

	s := &Server{app: app, Deps: deps}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.app.Use(recover.New())
	s.app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(s.Config.Security.AllowOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	s.app.Get("/api/health", s.handleHealth)
	s.app.Get("/metrics", adaptor.HTTPHandler(s.Metrics.Handler()))

	api := s.app.Group("/api")

	// Public routes
	api.Post("/auth/register", s.handleRegister)
	api.Post("/auth/login", s.handleLogin)

	// Protected routes
	protected := api.Use(s.authMiddleware())

	// Medications
	protected.Get("/medications", s.handleListMedications)
	protected.Post("/medications", s.handleCreateMedication)
	protected.Get("/medications/export.ics", s.handleExportMedications)
	protected.Get("/medications/:id", s.handleGetMedication)
	protected.Put("/medications/:id", s.handleUpdateMedication)
	protected.Delete("/medications/:id", s.handleDeleteMedication)
	protected.Get("/medications/:id/logs", s.handleListLogs)
	protected.Get("/medications/:id/adherence", s.handleAdherence)
	protected.Post("/medications/:id/taken", s.handleMarkTaken)
	protected.Post("/medications/:id/snooze", s.handleSnooze)
	protected.Get("/reminders/active", s.handleActiveReminders)

	// Appointments
	protected.Get("/appointments", s.handleListAppointments)
	protected.Post("/appointments", s.handleCreateAppointment)
	protected.Get("/appointments/countdowns", s.handleCountdowns)
	protected.Get("/appointments/:id", s.handleGetAppointment)
	protected.Put("/appointments/:id", s.handleUpdateAppointment)
	protected.Delete("/appointments/:id", s.handleDeleteAppointment)
	protected.Post("/appointments/:id/dismiss", s.handleDismissCountdown)
	protected.Get("/appointments/:id/export.ics", s.handleExportAppointment)
	protected.Get("/appointments/:id/links", s.handleCalendarLinks)

	// Profile
	protected.Get("/profile", s.handleGetProfile)
	protected.Put("/profile", s.handleUpsertProfile)
	protected.Get("/profile/weight-history", s.handleWeightHistory)
	protected.Get("/profile/insights", s.handleInsights)

	// Hospitals
	protected.Get("/hospitals/search", s.handleSearchHospitals)
	protected.Get("/hospitals/geocode", s.handleGeocode)

	// WebSocket notification feed
	s.app.Use("/ws", s.wsUpgrade)
	s.app.Get("/ws", websocket.New(s.handleWebSocket))
}

// Start starts the server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Server.Address, s.Config.Server.Port)
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   "0.1.0",
		"timestamp": time.Now().Unix(),
	})
}
