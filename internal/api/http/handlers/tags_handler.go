package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/ticket-desk/internal/api/dto"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/service"
)

// TagsHandler serves the tag catalogue.
type TagsHandler struct {
	tags *service.TagService
}

// NewTagsHandler constructs handler.
func NewTagsHandler(tagService *service.TagService) *TagsHandler {
	return &TagsHandler{tags: tagService}
}

// Create handles POST /tags.
func (h *TagsHandler) Create(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	var req dto.CreateTagRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	tag, err := h.tags.Create(c.UserContext(), identity, req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

// List handles GET /tags.
func (h *TagsHandler) List(c *fiber.Ctx) error {
	tags, err := h.tags.List(c.UserContext())
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []domain.Tag{}
	}
	return c.JSON(tags)
}

// Get handles GET /tags/:id.
func (h *TagsHandler) Get(c *fiber.Ctx) error {
	tag, err := h.tags.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(tag)
}

// Delete handles DELETE /tags/:id.
func (h *TagsHandler) Delete(c *fiber.Ctx) error {
	identity, err := currentIdentity(c)
	if err != nil {
		return err
	}
	if err := h.tags.Delete(c.UserContext(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Tag deleted"})
}
