package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/support-desk/internal/api/dto"
	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/service"
	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

// DashboardHandler serves per-role summaries.
type DashboardHandler struct {
	dashboards *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboards *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// Admin GET /dashboard/admin.
func (h *DashboardHandler) Admin(c *fiber.Ctx) error {
	summary, err := h.dashboards.Admin(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAdminDashboardResponse(summary)})
}

// Agent GET /dashboard/agent.
func (h *DashboardHandler) Agent(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	summary, err := h.dashboards.Agent(c.UserContext(), p.ID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAgentDashboardResponse(summary)})
}

// Customer GET /dashboard/customer.
func (h *DashboardHandler) Customer(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	summary, err := h.dashboards.Customer(c.UserContext(), p.ID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCustomerDashboardResponse(summary)})
}

// CountByStatus GET /tickets/stats/count?status=.
func (h *DashboardHandler) CountByStatus(c *fiber.Ctx) error {
	raw := strings.ToUpper(strings.TrimSpace(c.Query("status")))
	if raw == "" {
		return apperrors.NewValidationError("status required", nil)
	}
	status := domain.TicketStatus(raw)
	count, err := h.dashboards.CountByStatus(c.UserContext(), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatusCountResponse{Status: status, Count: count}})
}
