package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/api/dto"
	"github.com/spec-kit/ticket-desk/internal/service"
)

// ActivityHandler exposes the per-ticket activity log.
type ActivityHandler struct {
	activity *service.ActivityService
}

// NewActivityHandler constructs handler.
func NewActivityHandler(activityService *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activityService}
}

// ForTicket handles GET /activity/:ticketId.
func (h *ActivityHandler) ForTicket(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	entries, err := h.activity.ListForTicket(c.UserContext(), identity, c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewActivityListResponse(entries))
}

// ForTicketAndUser handles GET /activity/:ticketId/user/:userId.
func (h *ActivityHandler) ForTicketAndUser(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	entries, err := h.activity.ListForTicketAndUser(c.UserContext(), identity, c.Params("ticketId"), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewActivityListResponse(entries))
}
