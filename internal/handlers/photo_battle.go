package handlers

import (
	"errors"

	"focusnotebook/internal/models"
	"focusnotebook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// PhotoBattleHandler handles photo battle voting endpoints
type PhotoBattleHandler struct {
	battleService *services.PhotoBattleService
}

// NewPhotoBattleHandler creates a new photo battle handler
func NewPhotoBattleHandler(battleService *services.PhotoBattleService) *PhotoBattleHandler {
	return &PhotoBattleHandler{battleService: battleService}
}

// AddPhotoRequest is the request body for adding a photo to a library
type AddPhotoRequest struct {
	URL     string `json:"url"`
	Caption string `json:"caption,omitempty"`
}

// Photos returns a library's photos ranked by rating
// GET /api/libraries/:libraryId/photos
func (h *PhotoBattleHandler) Photos(c *fiber.Ctx) error {
	photos, err := h.battleService.Photos(c.Context(), c.Params("libraryId"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list photos",
		})
	}
	return c.JSON(fiber.Map{"photos": photos, "count": len(photos)})
}

// AddPhoto adds a photo at the base rating
// POST /api/libraries/:libraryId/photos
func (h *PhotoBattleHandler) AddPhoto(c *fiber.Ctx) error {
	var req AddPhotoRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "url is required",
		})
	}

	photo, err := h.battleService.AddPhoto(c.Context(), c.Params("libraryId"), req.URL, req.Caption)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add photo",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(photo)
}

// Vote records a pairwise outcome and adjusts both ratings
// POST /api/libraries/:libraryId/vote
func (h *PhotoBattleHandler) Vote(c *fiber.Ctx) error {
	var req models.VoteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.WinnerID == "" || req.LoserID == "" || req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "winner_id, loser_id and session_id are required",
		})
	}

	votedBy := c.Locals("user_id")
	voter := ""
	if s, ok := votedBy.(string); ok {
		voter = s
	}

	result, err := h.battleService.Vote(c.Context(), voter, c.Params("libraryId"), &req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateVote):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Vote already recorded for this session",
			})
		case errors.Is(err, services.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Photo not found in this library",
			})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}
	return c.JSON(result)
}

// History returns recent votes, newest first
// GET /api/libraries/:libraryId/history?limit=50
func (h *PhotoBattleHandler) History(c *fiber.Ctx) error {
	limit := int64(c.QueryInt("limit", 50))

	votes, err := h.battleService.History(c.Context(), c.Params("libraryId"), limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list vote history",
		})
	}
	return c.JSON(fiber.Map{"votes": votes, "count": len(votes)})
}
