package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/support-desk/internal/api/dto"
	"github.com/deskflow/support-desk/internal/auth"
	"github.com/deskflow/support-desk/internal/domain"
	"github.com/deskflow/support-desk/internal/repository"
	"github.com/deskflow/support-desk/internal/service"
	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

// TicketsHandler serves ticket, comment and assignment endpoints.
type TicketsHandler struct {
	tickets     *service.TicketService
	comments    *service.CommentService
	assignments *service.AssignmentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, comments *service.CommentService, assignments *service.AssignmentService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, comments: comments, assignments: assignments}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	view, err := h.tickets.CreateTicket(c.UserContext(), p.ID(), service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		LocationID:  req.LocationID,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(view, false)})
}

// SearchTickets GET /tickets.
func (h *TicketsHandler) SearchTickets(c *fiber.Ctx) error {
	filter, err := parseTicketFilter(c)
	if err != nil {
		return err
	}
	return h.respondPage(c, filter)
}

// MyTickets GET /tickets/mine.
func (h *TicketsHandler) MyTickets(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketFilter(c)
	if err != nil {
		return err
	}
	filter.CustomerID = &p.User.ID
	filter.UnassignedOnly = false
	return h.respondPage(c, filter)
}

// AssignedTickets GET /tickets/assigned.
func (h *TicketsHandler) AssignedTickets(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketFilter(c)
	if err != nil {
		return err
	}
	filter.AssigneeID = &p.User.ID
	filter.UnassignedOnly = false
	return h.respondPage(c, filter)
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	view, err := h.readableTicket(c, p)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(view, isStaff(p))})
}

// UpdateStatus PUT /tickets/:id/status. Agents may only move tickets they
// are assigned to.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}

	ticketID := c.Params("id")
	if p.Role() == domain.UserRoleAgent {
		assignee, ok, err := h.tickets.ActiveAssignee(c.UserContext(), ticketID)
		if err != nil {
			return err
		}
		if !ok || assignee != p.ID() {
			return apperrors.NewForbidden("ticket is not assigned to you")
		}
	}

	status := domain.TicketStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))
	view, err := h.tickets.UpdateStatus(c.UserContext(), ticketID, status, p.ID())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(view, true)})
}

// AssignTicket PUT /tickets/:id/assign/:agentId.
func (h *TicketsHandler) AssignTicket(c *fiber.Ctx) error {
	view, err := h.tickets.AssignToAgent(c.UserContext(), c.Params("id"), c.Params("agentId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(view, true)})
}

// ListAssignments GET /tickets/:id/assignments.
func (h *TicketsHandler) ListAssignments(c *fiber.Ctx) error {
	records, err := h.assignments.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewAssignmentResponses(records)})
}

// ListComments GET /tickets/:id/comments.
func (h *TicketsHandler) ListComments(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	view, err := h.readableTicket(c, p)
	if err != nil {
		return err
	}
	comments, err := h.comments.ListComments(c.UserContext(), view.ID, isStaff(p))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentResponses(comments, isStaff(p))})
}

// AddComment POST /tickets/:id/comments. Internal comments are reserved for
// staff.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(&req); err != nil {
		return err
	}
	if req.Internal && !isStaff(p) {
		return apperrors.NewForbidden("internal comments are reserved for staff")
	}
	view, err := h.readableTicket(c, p)
	if err != nil {
		return err
	}

	comment, err := h.comments.AddComment(c.UserContext(), view.ID, p.ID(), req.Content, req.Internal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(*comment)})
}

func (h *TicketsHandler) respondPage(c *fiber.Ctx, filter repository.TicketFilter) error {
	page, err := h.tickets.SearchTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, dto.NewTicketResponse(&page.Items[i], false))
	}
	return c.JSON(fiber.Map{"data": dto.TicketPageResponse{
		Items:    items,
		Page:     page.Page,
		PageSize: page.PageSize,
		Total:    page.Total,
	}})
}

// readableTicket loads the ticket of the route. Customers only see their own
// tickets; others get NOT_FOUND so ids do not leak.
func (h *TicketsHandler) readableTicket(c *fiber.Ctx, p *auth.Principal) (*domain.TicketView, error) {
	ticketID := c.Params("id")
	view, err := h.tickets.GetTicket(c.UserContext(), ticketID)
	if err != nil {
		return nil, err
	}
	if p.Role() == domain.UserRoleCustomer && view.CustomerID != p.ID() {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return view, nil
}

func isStaff(p *auth.Principal) bool {
	return p.Role() == domain.UserRoleAdmin || p.Role() == domain.UserRoleAgent
}

// parseTicketFilter reads status, priority, q, location_id, unassigned, page
// and page_size. A present but empty q matches every ticket.
func parseTicketFilter(c *fiber.Ctx) (repository.TicketFilter, error) {
	filter := repository.TicketFilter{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 0),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := domain.TicketStatus(strings.ToUpper(raw))
		if !status.Valid() {
			return filter, apperrors.NewValidationError("invalid status", map[string]any{"status": raw})
		}
		filter.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("priority")); raw != "" {
		priority := domain.TicketPriority(strings.ToUpper(raw))
		if !priority.Valid() {
			return filter, apperrors.NewValidationError("invalid priority", map[string]any{"priority": raw})
		}
		filter.Priority = &priority
	}
	if c.Context().QueryArgs().Has("q") {
		text := c.Query("q")
		filter.Text = &text
	}
	if loc := strings.TrimSpace(c.Query("location_id")); loc != "" {
		filter.LocationID = &loc
	}
	filter.UnassignedOnly = c.QueryBool("unassigned", false)
	return filter, nil
}
