package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"movie-recommendation-service/internal/recommend"
)

// Recommender produces personalized recommendations.
type Recommender interface {
	GetPersonalizedRecommendations(ctx context.Context, userID, page int) (*recommend.Result, error)
	AnalyzeUserData(ctx context.Context, userID int) (*recommend.UserData, error)
	Profile(ctx context.Context, userID int) (*recommend.TasteProfile, error)
}

type RecommendationHandler struct {
	engine Recommender
}

func NewRecommendationHandler(engine Recommender) *RecommendationHandler {
	return &RecommendationHandler{engine: engine}
}

// Personalized godoc
// GET /api/v1/users/:id/recommendations
// Users with fewer than two liked movies get strategy "InsufficientData" and no movies.
func (h *RecommendationHandler) Personalized(c fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return badUserID(c)
	}

	result, err := h.engine.GetPersonalizedRecommendations(c.Context(), uid, fiber.Query(c, "page", 1))
	if err != nil {
		return writeError(c, err, "failed to generate recommendations")
	}
	return c.JSON(result)
}

// UserData godoc
// GET /api/v1/users/:id/recommendations/user-data
func (h *RecommendationHandler) UserData(c fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return badUserID(c)
	}

	data, err := h.engine.AnalyzeUserData(c.Context(), uid)
	if err != nil {
		return writeError(c, err, "failed to analyze user data")
	}
	return c.JSON(data)
}

// Profile godoc
// GET /api/v1/users/:id/recommendations/profile
func (h *RecommendationHandler) Profile(c fiber.Ctx) error {
	uid, ok := userID(c)
	if !ok {
		return badUserID(c)
	}

	profile, err := h.engine.Profile(c.Context(), uid)
	if err != nil {
		return writeError(c, err, "failed to build taste profile")
	}
	return c.JSON(profile)
}
