package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"movie-recommendation-service/internal/models"
)

// Watchlist is the watchlist as the HTTP layer sees it.
type Watchlist interface {
	List(ctx context.Context, userID int) ([]models.WatchlistItem, error)
	Add(ctx context.Context, userID int, req models.AddToWatchlistRequest) (*models.WatchlistItem, error)
	Remove(ctx context.Context, userID, tmdbID int) error
	Contains(ctx context.Context, userID, tmdbID int) (bool, error)
}

type WatchlistHandler struct {
	svc Watchlist
}

func NewWatchlistHandler(svc Watchlist) *WatchlistHandler {
	return &WatchlistHandler{svc: svc}
}

// List godoc
// GET /api/v1/users/:id/watchlist
func (h *WatchlistHandler) List(c fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return badUserID(c)
	}
	items, err := h.svc.List(c.Context(), uid)
	if err != nil {
		return writeError(c, err, "failed to retrieve watchlist")
	}
	return c.JSON(fiber.Map{"items": items, "count": len(items)})
}

// Add godoc
// POST /api/v1/users/:id/watchlist
func (h *WatchlistHandler) Add(c fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return badUserID(c)
	}
	var req models.AddToWatchlistRequest
	if err := c.Bind().JSON(&req); err != nil {
		return bindError(c, err)
	}
	item, err := h.svc.Add(c.Context(), uid, req)
	if err != nil {
		return writeError(c, err, "failed to update watchlist")
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// Remove godoc
// DELETE /api/v1/users/:id/watchlist/:movieId
func (h *WatchlistHandler) Remove(c fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return badUserID(c)
	}
	movieID := fiber.Params[int](c, "movieId")
	if movieID <= 0 {
		return badMovieID(c)
	}
	if err := h.svc.Remove(c.Context(), uid, movieID); err != nil {
		return writeError(c, err, "failed to update watchlist")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Contains godoc
// GET /api/v1/users/:id/watchlist/:movieId
func (h *WatchlistHandler) Contains(c fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return badUserID(c)
	}
	movieID := fiber.Params[int](c, "movieId")
	if movieID <= 0 {
		return badMovieID(c)
	}
	in, err := h.svc.Contains(c.Context(), uid, movieID)
	if err != nil {
		return writeError(c, err, "failed to check watchlist")
	}
	return c.JSON(fiber.Map{"movie_id": movieID, "in_watchlist": in})
}
