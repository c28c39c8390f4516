package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/deskflow/support-desk/internal/api/http/handlers"
	"github.com/deskflow/support-desk/internal/auth"
	"github.com/deskflow/support-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Notifications  *handlers.NotificationsHandler
	AdminUsers     *handlers.AdminUsersHandler
	Dashboards     *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	// MetricsGatherer enables GET MetricsPath when set.
	MetricsGatherer prometheus.Gatherer
	MetricsPath     string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	if cfg.MetricsGatherer != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	app.Post("/auth/login", cfg.Auth.Login)

	authed := app.Group("", cfg.AuthMiddleware.Handle)
	authed.Get("/auth/me", cfg.Auth.Me)

	staff := auth.RequireRole(domain.UserRoleAdmin, domain.UserRoleAgent)
	admin := auth.RequireRole(domain.UserRoleAdmin)

	tickets := authed.Group("/tickets")
	tickets.Post("", auth.RequireRole(domain.UserRoleCustomer), cfg.Tickets.CreateTicket)
	tickets.Get("", admin, cfg.Tickets.SearchTickets)
	tickets.Get("/mine", auth.RequireRole(domain.UserRoleCustomer), cfg.Tickets.MyTickets)
	tickets.Get("/assigned", auth.RequireRole(domain.UserRoleAgent), cfg.Tickets.AssignedTickets)
	tickets.Get("/stats/count", staff, cfg.Dashboards.CountByStatus)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id/status", staff, cfg.Tickets.UpdateStatus)
	tickets.Put("/:id/assign/:agentId", admin, cfg.Tickets.AssignTicket)
	tickets.Get("/:id/assignments", staff, cfg.Tickets.ListAssignments)
	tickets.Get("/:id/comments", cfg.Tickets.ListComments)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)

	notifications := authed.Group("/notifications")
	notifications.Get("", cfg.Notifications.List)
	notifications.Get("/unread-count", cfg.Notifications.UnreadCount)
	notifications.Put("/:id/read", cfg.Notifications.MarkRead)

	dashboard := authed.Group("/dashboard")
	dashboard.Get("/admin", admin, cfg.Dashboards.Admin)
	dashboard.Get("/agent", auth.RequireRole(domain.UserRoleAgent), cfg.Dashboards.Agent)
	dashboard.Get("/customer", auth.RequireRole(domain.UserRoleCustomer), cfg.Dashboards.Customer)

	authed.Delete("/admin/users/:id", admin, cfg.AdminUsers.DeleteUser)
}
