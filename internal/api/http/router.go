package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civiops/helpdesk-service/internal/api/http/handlers"
	"github.com/civiops/helpdesk-service/internal/auth"
	"github.com/civiops/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Sessions       *handlers.SessionsHandler
	Tickets        *handlers.TicketsHandler
	Directory      *handlers.DirectoryHandler
	Reports        *handlers.ReportsHandler
	Maintenance    *handlers.MaintenanceHandler
	Inventory      *handlers.InventoryHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Sessions.Login)
	authGroup.Post("/recovery/request", cfg.Sessions.RequestRecovery)
	authGroup.Post("/recovery/confirm", cfg.Sessions.ConfirmRecovery)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.Sessions.ChangePassword)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/assign", auth.RequireRole(domain.RoleProviderAdmin), cfg.Tickets.AssignTicket)
	tickets.Post("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/confirm-closure", cfg.Tickets.ConfirmClosure)

	directory := app.Group("/directory", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleProviderAdmin, domain.RoleReferent))
	directory.Get("/organizations", cfg.Directory.ListOrganizations)
	directory.Post("/organizations", cfg.Directory.CreateOrganization)
	directory.Delete("/organizations/:id", cfg.Directory.DeleteOrganization)
	directory.Get("/organizations/:id/identities", cfg.Directory.ListOrganizationMembers)
	directory.Post("/identities", cfg.Directory.CreateIdentity)
	directory.Delete("/identities/:id", cfg.Directory.DeleteIdentity)
	directory.Get("/technicians", cfg.Directory.ListTechnicians)

	reports := app.Group("/reports", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleProviderAdmin, domain.RoleReferent))
	reports.Get("/monthly", cfg.Reports.MonthlyReport)
	reports.Get("/monthly/export", cfg.Reports.MonthlyReportXLSX)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleProviderAdmin))
	admin.Post("/maintenance/sweep", cfg.Maintenance.RunSweep)
	admin.Get("/inventory", cfg.Inventory.ListEquipment)
	admin.Post("/inventory", cfg.Inventory.RegisterEquipment)
	admin.Delete("/inventory/:id", cfg.Inventory.RemoveEquipment)
}
