package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/noah-isme/classops-api/internal/config"
	"github.com/noah-isme/classops-api/internal/handler"
	"github.com/noah-isme/classops-api/internal/middleware"
	"github.com/noah-isme/classops-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	ClassHandler      *handler.ClassHandler
	GroupHandler      *handler.GroupHandler
	AssignmentHandler *handler.AssignmentHandler
	SubmissionHandler *handler.SubmissionHandler
	EvaluationHandler *handler.EvaluationHandler
	InviteHandler     *handler.InviteHandler
	DocumentHandler   *handler.DocumentHandler
	ActivityHandler   *handler.ActivityHandler
	JWTMiddleware     fiber.Handler
	DB                *gorm.DB
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	api.Get("/health", handler.HealthCheck(cfg, deps.DB))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 10, time.Minute))
		deps.AuthHandler.Register(auth)
	}

	if deps.InviteHandler != nil {
		deps.InviteHandler.RegisterPublic(api)
		deps.InviteHandler.RegisterAccept(api.Group("", jwtMiddleware))
	}

	classes := api.Group("/classes", jwtMiddleware)
	if deps.ClassHandler != nil {
		deps.ClassHandler.Register(classes)
	}
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterClassRoutes(classes)
	}
	if deps.GroupHandler != nil {
		deps.GroupHandler.RegisterClassRoutes(classes)
	}
	if deps.InviteHandler != nil {
		deps.InviteHandler.RegisterClassRoutes(classes)
	}
	if deps.ActivityHandler != nil {
		deps.ActivityHandler.RegisterClassRoutes(classes)
	}

	assignments := api.Group("/assignments", jwtMiddleware)
	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.RegisterAssignmentRoutes(assignments)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterAssignmentRoutes(assignments)
	}

	submissions := api.Group("/submissions", jwtMiddleware)
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.RegisterSubmissionRoutes(submissions)
	}
	if deps.EvaluationHandler != nil {
		deps.EvaluationHandler.RegisterSubmissionRoutes(submissions)
	}

	if deps.EvaluationHandler != nil {
		evaluations := api.Group("/evaluations", jwtMiddleware)
		deps.EvaluationHandler.RegisterEvaluationRoutes(evaluations)
	}

	if deps.GroupHandler != nil {
		groups := api.Group("/groups", jwtMiddleware)
		deps.GroupHandler.RegisterGroupRoutes(groups)
	}

	if deps.DocumentHandler != nil {
		documents := api.Group("/documents", jwtMiddleware)
		deps.DocumentHandler.Register(documents)
	}
}
