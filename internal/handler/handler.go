package handler

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"movie-recommendation-service/internal/recommend"
	"movie-recommendation-service/internal/service"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Handlers groups every route handler of the service.
type Handlers struct {
	Movies          *MovieHandler
	LikeList        *LikeListHandler
	Watchlist       *WatchlistHandler
	Recommendations *RecommendationHandler
}

// Register mounts the API routes. Static segments are registered before their
// :id siblings so they are not captured as ids.
func (h Handlers) Register(app fiber.Router) {
	app.Get("/health", Health)

	api := app.Group("/api/v1")

	movies := api.Group("/movies")
	movies.Get("/popular", h.Movies.Popular)
	movies.Get("/top-rated", h.Movies.TopRated)
	movies.Get("/now-playing", h.Movies.NowPlaying)
	movies.Get("/trending", h.Movies.Trending)
	movies.Get("/search", h.Movies.Search)
	movies.Get("/discover", h.Movies.Discover)
	movies.Get("/:id", h.Movies.Detail)
	movies.Get("/:id/similar", h.Movies.Similar)
	movies.Get("/:id/recommendations", h.Movies.Recommendations)
	api.Get("/genres", h.Movies.Genres)

	users := api.Group("/users/:id")
	users.Get("/likes", h.LikeList.List)
	users.Post("/likes", h.LikeList.Set)
	users.Delete("/likes/:movieId", h.LikeList.Remove)
	users.Get("/likes/:movieId/status", h.LikeList.Status)

	users.Get("/watchlist", h.Watchlist.List)
	users.Post("/watchlist", h.Watchlist.Add)
	users.Delete("/watchlist/:movieId", h.Watchlist.Remove)
	users.Get("/watchlist/:movieId", h.Watchlist.Contains)

	users.Get("/recommendations", h.Recommendations.Personalized)
	users.Get("/recommendations/user-data", h.Recommendations.UserData)
	users.Get("/recommendations/profile", h.Recommendations.Profile)
}

// Health returns service health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "movie-recommendation-service",
	})
}

// ErrorHandler renders errors that escape a handler, including Fiber's own.
func ErrorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	} else {
		slog.Error("unhandled error", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(ErrorResponse{Error: msg})
}

// StructValidator validates bound request bodies with `validate` tags.
type StructValidator struct {
	validate *validator.Validate
}

// NewStructValidator creates the validator used by Fiber's binder.
func NewStructValidator() *StructValidator {
	return &StructValidator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements fiber.StructValidator.
func (v *StructValidator) Validate(out any) error {
	return v.validate.Struct(out)
}

// writeError maps service errors to a status and message. fallback is used
// for unexpected errors, which are logged.
func writeError(c fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrMovieNotFound), errors.Is(err, service.ErrNotInList):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, recommend.ErrRetrieval):
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: recommend.ErrRetrieval.Error()})
	}
	slog.Error(fallback, "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: fallback})
}

// bindError renders a body binding or validation failure.
func bindError(c fiber.Ctx, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "invalid " + fe.Field() + ": failed " + fe.Tag(),
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
}

// userID reads the :id path parameter.
func userID(c fiber.Ctx) (int, bool) {
	id := fiber.Params[int](c, "id")
	return id, id > 0
}

func badUserID(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid user ID"})
}

func badMovieID(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid movie ID"})
}
