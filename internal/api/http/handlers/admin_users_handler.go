package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskflow/support-desk/internal/service"
	apperrors "github.com/deskflow/support-desk/pkg/util/errorutil"
)

// AdminUsersHandler exposes user administration.
type AdminUsersHandler struct {
	users *service.UserService
}

// NewAdminUsersHandler constructs handler.
func NewAdminUsersHandler(users *service.UserService) *AdminUsersHandler {
	return &AdminUsersHandler{users: users}
}

// DeleteUser DELETE /admin/users/:id.
func (h *AdminUsersHandler) DeleteUser(c *fiber.Ctx) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	userID := c.Params("id")
	if userID == p.ID() {
		return apperrors.NewConflict("cannot delete yourself", nil)
	}
	if err := h.users.DeleteUser(c.UserContext(), userID, p.ID()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
