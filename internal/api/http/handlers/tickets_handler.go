package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/api/dto"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/service"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets     *service.TicketService
	assignments *service.AssignmentService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, assignmentService *service.AssignmentService) *TicketsHandler {
	return &TicketsHandler{tickets: ticketService, assignments: assignmentService}
}

// Create handles POST /tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	ticket, err := h.tickets.Create(c.UserContext(), identity, service.CreateTicketInput{
		Title:            req.Title,
		Description:      req.Description,
		Priority:         req.Priority,
		AssignedToUserID: req.AssignedToUserID,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.NewTicketResponse(ticket))
}

// List handles GET /tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	page, err := h.tickets.List(c.UserContext(), identity, service.ListTicketsInput{
		Page:     parseInt(c.Query("page"), 1),
		Limit:    parseInt(c.Query("limit"), 0),
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("q"),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketListResponse(page.Tickets, page.Total, page.Page, page.Pages))
}

// Get handles GET /tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	return h.respond(c, func(identity domain.Identity) (*domain.Ticket, error) {
		return h.tickets.Get(c.UserContext(), identity, c.Params("id"))
	})
}

// Update handles PUT /tickets/:id.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.respond(c, func(identity domain.Identity) (*domain.Ticket, error) {
		return h.tickets.Update(c.UserContext(), identity, c.Params("id"), service.UpdateTicketInput{
			Title:       req.Title,
			Description: req.Description,
			Priority:    req.Priority,
		})
	})
}

// UpdateStatus handles PUT /tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.respond(c, func(identity domain.Identity) (*domain.Ticket, error) {
		return h.tickets.UpdateStatus(c.UserContext(), identity, c.Params("id"), req.Status)
	})
}

// Assign handles PUT /tickets/:id/assign.
func (h *TicketsHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.respond(c, func(identity domain.Identity) (*domain.Ticket, error) {
		return h.assignments.Reassign(c.UserContext(), identity, c.Params("id"), req.AssignedToUserID)
	})
}

// Revoke handles PUT /tickets/:id/revoke.
func (h *TicketsHandler) Revoke(c *fiber.Ctx) error {
	return h.respond(c, func(identity domain.Identity) (*domain.Ticket, error) {
		return h.tickets.Revoke(c.UserContext(), identity, c.Params("id"))
	})
}

// Withdraw handles PUT /tickets/:id/withdraw.
func (h *TicketsHandler) Withdraw(c *fiber.Ctx) error {
	return h.respond(c, func(identity domain.Identity) (*domain.Ticket, error) {
		return h.tickets.Withdraw(c.UserContext(), identity, c.Params("id"))
	})
}

// SetTags handles PUT /tickets/:id/tags.
func (h *TicketsHandler) SetTags(c *fiber.Ctx) error {
	var req dto.SetTagsRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	return h.respond(c, func(identity domain.Identity) (*domain.Ticket, error) {
		return h.tickets.SetTags(c.UserContext(), identity, c.Params("id"), req.TagIDs)
	})
}

// Delete handles DELETE /tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	if err := h.tickets.Delete(c.UserContext(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Ticket deleted successfully"})
}

func (h *TicketsHandler) respond(c *fiber.Ctx, fn func(domain.Identity) (*domain.Ticket, error)) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	ticket, err := fn(identity)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewTicketResponse(ticket))
}
