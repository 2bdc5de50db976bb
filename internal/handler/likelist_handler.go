package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"movie-recommendation-service/internal/models"
)

// LikeList is the like/dislike list as the HTTP layer sees it.
type LikeList interface {
	List(ctx context.Context, userID int) ([]models.LikeListItem, error)
	Set(ctx context.Context, userID int, req models.AddToLikeListRequest) (*models.LikeListItem, error)
	Remove(ctx context.Context, userID, tmdbID int) error
	Status(ctx context.Context, userID, tmdbID int) (string, error)
}

// LikeListHandler handles the like/dislike endpoints.
type LikeListHandler struct {
	svc LikeList
}

// NewLikeListHandler creates a new LikeListHandler.
func NewLikeListHandler(svc LikeList) *LikeListHandler {
	return &LikeListHandler{svc: svc}
}

// List returns the user's like list.
// @Summary Get like list
// @Tags likes
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.LikeListItem
// @Router /api/v1/users/{id}/likes [get]
func (h *LikeListHandler) List(c fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return badUserID(c)
	}
	items, err := h.svc.List(c.Context(), uid)
	if err != nil {
		return writeError(c, err, "failed to retrieve like list")
	}
	return c.JSON(fiber.Map{"items": items, "count": len(items)})
}

// Set likes or dislikes a movie.
// @Summary Like or dislike a movie
// @Tags likes
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param body body models.AddToLikeListRequest true "TMDB movie id and status (1 liked, 2 disliked)"
// @Success 200 {object} models.LikeListItem
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/users/{id}/likes [post]
func (h *LikeListHandler) Set(c fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return badUserID(c)
	}
	var req models.AddToLikeListRequest
	if err := c.Bind().JSON(&req); err != nil {
		return bindError(c, err)
	}
	item, err := h.svc.Set(c.Context(), uid, req)
	if err != nil {
		return writeError(c, err, "failed to update like list")
	}
	return c.JSON(item)
}

// Remove clears the user's status for a movie.
// @Router /api/v1/users/{id}/likes/{movieId} [delete]
func (h *LikeListHandler) Remove(c fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return badUserID(c)
	}
	movieID := fiber.Params[int](c, "movieId")
	if movieID <= 0 {
		return badMovieID(c)
	}
	if err := h.svc.Remove(c.Context(), uid, movieID); err != nil {
		return writeError(c, err, "failed to update like list")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Status reports whether the user liked, disliked or never rated a movie.
// @Router /api/v1/users/{id}/likes/{movieId}/status [get]
func (h *LikeListHandler) Status(c fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return badUserID(c)
	}
	movieID := fiber.Params[int](c, "movieId")
	if movieID <= 0 {
		return badMovieID(c)
	}
	status, err := h.svc.Status(c.Context(), uid, movieID)
	if err != nil {
		return writeError(c, err, "failed to read like status")
	}
	return c.JSON(fiber.Map{"movie_id": movieID, "status": status})
}
