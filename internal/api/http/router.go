package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/ticket-desk/internal/api/http/handlers"
	"github.com/spec-kit/ticket-desk/internal/auth"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Assignments    *handlers.AssignmentsHandler
	Comments       *handlers.CommentsHandler
	Activity       *handlers.ActivityHandler
	Tags           *handlers.TagsHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authn := cfg.AuthMiddleware.Handle
	assigneeOrAdmin := auth.RequireRoles(domain.RoleAssignee, domain.RoleAdmin)
	adminOnly := auth.RequireRoles(domain.RoleAdmin)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/logout", authn, cfg.Users.Logout)
	authGroup.Get("/me", authn, cfg.Users.Me)
	authGroup.Get("/users", authn, assigneeOrAdmin, cfg.Users.List)
	authGroup.Put("/users/:id/role", authn, adminOnly, cfg.Users.UpdateRole)

	tickets := app.Group("/tickets", authn)
	tickets.Post("/", assigneeOrAdmin, cfg.Tickets.Create)
	tickets.Get("/", cfg.Tickets.List)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Put("/:id", cfg.Tickets.Update)
	tickets.Put("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Put("/:id/assign", cfg.Tickets.Assign)
	tickets.Put("/:id/revoke", cfg.Tickets.Revoke)
	tickets.Put("/:id/withdraw", cfg.Tickets.Withdraw)
	tickets.Put("/:id/tags", cfg.Tickets.SetTags)
	tickets.Delete("/:id", cfg.Tickets.Delete)

	comments := app.Group("/comments", authn)
	comments.Post("/", cfg.Comments.Create)
	comments.Get("/:ticketId", cfg.Comments.ForTicket)
	comments.Put("/:id", cfg.Comments.Update)
	comments.Delete("/:id", cfg.Comments.Delete)

	activity := app.Group("/activity", authn)
	activity.Get("/:ticketId", cfg.Activity.ForTicket)
	activity.Get("/:ticketId/user/:userId", cfg.Activity.ForTicketAndUser)

	assignments := app.Group("/assignments", authn)
	assignments.Get("/", adminOnly, cfg.Assignments.List)
	assignments.Get("/stats", adminOnly, cfg.Assignments.Stats)
	assignments.Get("/ticket/:id", cfg.Assignments.ForTicket)
	assignments.Get("/user/:id", adminOnly, cfg.Assignments.ForUser)

	tags := app.Group("/tags", authn)
	tags.Post("/", adminOnly, cfg.Tags.Create)
	tags.Get("/", cfg.Tags.List)
	tags.Get("/:id", cfg.Tags.Get)
	tags.Delete("/:id", adminOnly, cfg.Tags.Delete)
}
