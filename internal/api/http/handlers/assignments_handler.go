package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/api/dto"
	"github.com/spec-kit/ticket-desk/internal/service"
)

// AssignmentsHandler exposes the assignment ledger.
type AssignmentsHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentsHandler constructs handler.
func NewAssignmentsHandler(assignmentService *service.AssignmentService) *AssignmentsHandler {
	return &AssignmentsHandler{assignments: assignmentService}
}

// List handles GET /assignments.
func (h *AssignmentsHandler) List(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	page, err := h.assignments.List(c.UserContext(), identity, service.ListAssignmentsInput{
		TicketID:   c.Query("ticketId"),
		AssignedBy: c.Query("assignedBy"),
		AssignedTo: c.Query("assignedTo"),
		Page:       parseInt(c.Query("page"), 1),
		Limit:      parseInt(c.Query("limit"), 0),
	})
	if err != nil {
		return err
	}
	return c.JSON(dto.AssignmentListResponse{
		Assignments: dto.NewAssignmentListResponse(page.Assignments),
		Total:       page.Total,
		Page:        page.Page,
		Pages:       page.Pages,
	})
}

// ForTicket handles GET /assignments/ticket/:id.
func (h *AssignmentsHandler) ForTicket(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	rows, err := h.assignments.ListByTicket(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAssignmentListResponse(rows))
}

// Stats handles GET /assignments/stats.
func (h *AssignmentsHandler) Stats(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	stats, err := h.assignments.Stats(c.UserContext(), identity)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewAssignmentStatsResponse(stats))
}

// ForUser handles GET /assignments/user/:id.
func (h *AssignmentsHandler) ForUser(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	result, err := h.assignments.ForUser(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.UserAssignmentsResponse{
		User:           result.User,
		AssignedByUser: dto.NewAssignmentListResponse(result.AssignedByUser),
		AssignedToUser: dto.NewAssignmentListResponse(result.AssignedToUser),
	})
}
