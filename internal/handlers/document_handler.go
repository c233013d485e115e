package handlers

import (
	"fmt"
	"strings"

	"docmanager/internal/dto"
	"docmanager/internal/middleware"
	"docmanager/internal/services"
	"docmanager/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type DocumentHandler struct {
	docService *services.DocumentService
}

func NewDocumentHandler(docService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

func (h *DocumentHandler) List(c *fiber.Ctx) error {
	page, limit := pageParams(c)
	category := c.Query("category")

	docs, total, err := h.docService.List(middleware.Principal(c), category, page, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"documents":  dto.DocumentsFromModels(docs),
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c, "Invalid document id")
	}

	doc, err := h.docService.Get(middleware.Principal(c), uint(id))
	if err != nil {
		return fail(c, err)
	}
	resp := dto.DocumentFromModel(doc)
	return c.JSON(resp)
}

func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, err)
	}

	doc, err := h.docService.Create(middleware.Principal(c), &req)
	if err != nil {
		return fail(c, err)
	}
	resp := dto.DocumentFromModel(doc)
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Upload accepts a multipart file plus metadata form fields. Tags arrive as a
// comma-separated field.
func (h *DocumentHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "Missing file")
	}

	req := dto.CreateDocumentRequest{
		Title:         c.FormValue("title"),
		Category:      c.FormValue("category"),
		ExtractedText: c.FormValue("extracted_text"),
		DocumentDate:  c.FormValue("document_date"),
		Tags:          splitTags(c.FormValue("tags")),
	}

	doc, err := h.docService.Upload(middleware.Principal(c), fileHeader, &req)
	if err != nil {
		return fail(c, err)
	}
	resp := dto.DocumentFromModel(doc)
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Download streams the stored blob as an attachment named after the document
// title.
func (h *DocumentHandler) Download(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c, "Invalid document id")
	}

	doc, file, err := h.docService.Download(middleware.Principal(c), uint(id))
	if err != nil {
		return fail(c, err)
	}
	defer file.Close()

	contentType := doc.FileType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", doc.Title))
	return c.SendStream(file, int(doc.FileSize))
}

func (h *DocumentHandler) Update(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c, "Invalid document id")
	}

	var req dto.UpdateDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return fail(c, err)
	}

	doc, err := h.docService.Update(middleware.Principal(c), uint(id), &req)
	if err != nil {
		return fail(c, err)
	}
	resp := dto.DocumentFromModel(doc)
	return c.JSON(resp)
}

func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return badRequest(c, "Invalid document id")
	}

	if err := h.docService.Delete(middleware.Principal(c), uint(id)); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *DocumentHandler) Search(c *fiber.Ctx) error {
	title := c.Query("title")
	if strings.TrimSpace(title) == "" {
		return badRequest(c, "Missing title query")
	}
	page, limit := pageParams(c)

	docs, total, err := h.docService.SearchByTitle(middleware.Principal(c), title, page, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{
		"documents":  dto.DocumentsFromModels(docs),
		"pagination": dto.NewPagination(page, limit, total),
	})
}

func (h *DocumentHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.docService.Stats(middleware.Principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(stats)
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
