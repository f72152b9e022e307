package handlers

import (
	"errors"
	"log"

	"focusnotebook/internal/middleware"
	"focusnotebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UploadHandler handles file upload endpoints
type UploadHandler struct {
	uploadService *services.UploadService
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService *services.UploadService) *UploadHandler {
	return &UploadHandler{uploadService: uploadService}
}

// Upload accepts one multipart file under the "file" field. The optional
// "source" field tags where the file came from.
// POST /api/uploads
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file field is required",
		})
	}

	source := c.FormValue("source", "web")

	upload, err := h.uploadService.Save(c.Context(), middleware.UserID(c), source, header)
	if err != nil {
		log.Printf("⚠️  Upload failed for %s: %v", header.Filename, err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(upload)
}

// List returns the user's uploads, newest first
// GET /api/uploads
func (h *UploadHandler) List(c *fiber.Ctx) error {
	uploads, err := h.uploadService.List(c.Context(), middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list uploads",
		})
	}
	return c.JSON(fiber.Map{"uploads": uploads, "count": len(uploads)})
}

// Delete removes an upload record and its stored file
// DELETE /api/uploads/:id
func (h *UploadHandler) Delete(c *fiber.Ctx) error {
	err := h.uploadService.Delete(c.Context(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Upload not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete upload",
		})
	}
	return c.JSON(fiber.Map{"deleted": true})
}
