package handlers

import (
	"strings"

	"docmanager/internal/dto"
	"docmanager/internal/middleware"
	"docmanager/internal/services"
	"docmanager/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type TagHandler struct {
	tagService *services.TagService
}

func NewTagHandler(tagService *services.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

func (h *TagHandler) List(c *fiber.Ctx) error {
	tags, err := h.tagService.GetAll()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.TagsFromModels(tags))
}

// My lists the tags used by the caller's own documents.
func (h *TagHandler) My(c *fiber.Ctx) error {
	tags, err := h.tagService.GetByUserID(middleware.Principal(c).ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.TagsFromModels(tags))
}

func (h *TagHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c, "Invalid tag id")
	}

	tag, err := h.tagService.GetByID(uint(id))
	if err != nil {
		return fail(c, err)
	}
	resp := dto.TagFromModel(tag)
	return c.JSON(resp)
}

func (h *TagHandler) Search(c *fiber.Ctx) error {
	query := c.Query("query")
	if strings.TrimSpace(query) == "" {
		return badRequest(c, "Missing search query")
	}

	tags, err := h.tagService.Search(query)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.TagsFromModels(tags))
}

func (h *TagHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTagRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, err)
	}

	tag, err := h.tagService.Create(req.Name)
	if err != nil {
		return fail(c, err)
	}
	resp := dto.TagFromModel(tag)
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *TagHandler) Rename(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c, "Invalid tag id")
	}

	var req dto.UpdateTagRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, err)
	}

	tag, err := h.tagService.Rename(uint(id), req.Name)
	if err != nil {
		return fail(c, err)
	}
	resp := dto.TagFromModel(tag)
	return c.JSON(resp)
}

func (h *TagHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c, "Invalid tag id")
	}

	if err := h.tagService.Delete(uint(id)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteUnused is the administrative sweep removing tags with no document
// associations.
func (h *TagHandler) DeleteUnused(c *fiber.Ctx) error {
	deleted, err := h.tagService.DeleteUnused()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"deleted": deleted})
}

func (h *TagHandler) Stats(c *fiber.Ctx) error {
	total, used, err := h.tagService.Stats()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(dto.TagStatsResponse{
		TotalTags:  total,
		UsedTags:   used,
		UnusedTags: total - used,
	})
}

func (h *TagHandler) Check(c *fiber.Ctx) error {
	exists, err := h.tagService.ExistsByName(c.Params("name"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"exists": exists})
}
