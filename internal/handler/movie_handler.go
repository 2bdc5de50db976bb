package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"movie-recommendation-service/internal/models"
)

// MovieBrowser is the movie catalog as the HTTP layer sees it.
type MovieBrowser interface {
	Popular(ctx context.Context, page int, includeAdult bool) (*models.MoviePage, error)
	TopRated(ctx context.Context, page int) (*models.MoviePage, error)
	NowPlaying(ctx context.Context, page int) (*models.MoviePage, error)
	Trending(ctx context.Context, page int) (*models.MoviePage, error)
	Search(ctx context.Context, query string, page int, includeAdult bool) (*models.MoviePage, error)
	Discover(ctx context.Context, filter models.DiscoverFilter) (*models.MoviePage, error)
	Detail(ctx context.Context, tmdbID int) (*models.Movie, error)
	Similar(ctx context.Context, tmdbID, page int) (*models.MoviePage, error)
	Recommendations(ctx context.Context, tmdbID, page int) (*models.MoviePage, error)
	Genres(ctx context.Context) ([]models.Genre, error)
}

// MovieHandler handles HTTP requests for movies.
type MovieHandler struct {
	svc MovieBrowser
}

// NewMovieHandler creates a new MovieHandler.
func NewMovieHandler(svc MovieBrowser) *MovieHandler {
	return &MovieHandler{svc: svc}
}

// Popular returns popular movies.
// @Summary Popular movies
// @Tags movies
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param include_adult query bool false "Include adult titles" default(false)
// @Success 200 {object} models.MoviePage
// @Failure 500 {object} ErrorResponse
// @Router /api/v1/movies/popular [get]
func (h *MovieHandler) Popular(c fiber.Ctx) error {
	result, err := h.svc.Popular(c.Context(), fiber.Query(c, "page", 1), fiber.Query(c, "include_adult", false))
	if err != nil {
		return writeError(c, err, "failed to retrieve popular movies")
	}
	return c.JSON(result)
}

// TopRated returns the highest rated movies.
// @Router /api/v1/movies/top-rated [get]
func (h *MovieHandler) TopRated(c fiber.Ctx) error {
	result, err := h.svc.TopRated(c.Context(), fiber.Query(c, "page", 1))
	if err != nil {
		return writeError(c, err, "failed to retrieve top rated movies")
	}
	return c.JSON(result)
}

// NowPlaying returns movies in theatres.
// @Router /api/v1/movies/now-playing [get]
func (h *MovieHandler) NowPlaying(c fiber.Ctx) error {
	result, err := h.svc.NowPlaying(c.Context(), fiber.Query(c, "page", 1))
	if err != nil {
		return writeError(c, err, "failed to retrieve now playing movies")
	}
	return c.JSON(result)
}

// Trending returns this week's trending movies.
// @Router /api/v1/movies/trending [get]
func (h *MovieHandler) Trending(c fiber.Ctx) error {
	result, err := h.svc.Trending(c.Context(), fiber.Query(c, "page", 1))
	if err != nil {
		return writeError(c, err, "failed to retrieve trending movies")
	}
	return c.JSON(result)
}

// Search finds movies by title.
// @Summary Search movies
// @Tags movies
// @Produce json
// @Param query query string true "Title search text"
// @Param page query int false "Page number" default(1)
// @Param include_adult query bool false "Include adult titles" default(false)
// @Success 200 {object} models.MoviePage
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/movies/search [get]
func (h *MovieHandler) Search(c fiber.Ctx) error {
	result, err := h.svc.Search(c.Context(), c.Query("query"), fiber.Query(c, "page", 1), fiber.Query(c, "include_adult", false))
	if err != nil {
		return writeError(c, err, "failed to search movies")
	}
	return c.JSON(result)
}

// Discover runs a filtered discover query.
// @Summary Discover movies
// @Tags movies
// @Produce json
// @Param genres query string false "Comma separated TMDB genre ids"
// @Param release_date_from query string false "Earliest release date (YYYY-MM-DD)"
// @Param release_date_to query string false "Latest release date (YYYY-MM-DD)"
// @Param min_rating query number false "Minimum vote average"
// @Param max_rating query number false "Maximum vote average"
// @Param min_vote_count query int false "Minimum vote count"
// @Param language query string false "Original language (ISO 639-1)"
// @Param sort_by query string false "Sort field" default(popularity)
// @Param sort_order query string false "Sort order" Enums(asc,desc) default(desc)
// @Param page query int false "Page number" default(1)
// @Success 200 {object} models.MoviePage
// @Failure 400 {object} ErrorResponse
// @Router /api/v1/movies/discover [get]
func (h *MovieHandler) Discover(c fiber.Ctx) error {
	filter, err := parseDiscoverFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}
	result, err := h.svc.Discover(c.Context(), filter)
	if err != nil {
		return writeError(c, err, "failed to discover movies")
	}
	return c.JSON(result)
}

// Detail returns one movie.
// @Summary Get movie detail
// @Tags movies
// @Produce json
// @Param id path int true "TMDB movie ID"
// @Success 200 {object} models.Movie
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/movies/{id} [get]
func (h *MovieHandler) Detail(c fiber.Ctx) error {
	id := fiber.Params[int](c, "id")
	if id <= 0 {
		return badMovieID(c)
	}
	movie, err := h.svc.Detail(c.Context(), id)
	if err != nil {
		return writeError(c, err, "failed to retrieve movie")
	}
	return c.JSON(movie)
}

// Similar returns movies similar to one movie.
// @Router /api/v1/movies/{id}/similar [get]
func (h *MovieHandler) Similar(c fiber.Ctx) error {
	id := fiber.Params[int](c, "id")
	if id <= 0 {
		return badMovieID(c)
	}
	result, err := h.svc.Similar(c.Context(), id, fiber.Query(c, "page", 1))
	if err != nil {
		return writeError(c, err, "failed to retrieve similar movies")
	}
	return c.JSON(result)
}

// Recommendations returns TMDB's recommendations for one movie.
// @Router /api/v1/movies/{id}/recommendations [get]
func (h *MovieHandler) Recommendations(c fiber.Ctx) error {
	id := fiber.Params[int](c, "id")
	if id <= 0 {
		return badMovieID(c)
	}
	result, err := h.svc.Recommendations(c.Context(), id, fiber.Query(c, "page", 1))
	if err != nil {
		return writeError(c, err, "failed to retrieve movie recommendations")
	}
	return c.JSON(result)
}

// Genres returns the movie genre list.
// @Router /api/v1/genres [get]
func (h *MovieHandler) Genres(c fiber.Ctx) error {
	genres, err := h.svc.Genres(c.Context())
	if err != nil {
		return writeError(c, err, "failed to retrieve genres")
	}
	return c.JSON(fiber.Map{"genres": genres})
}

func parseDiscoverFilter(c fiber.Ctx) (models.DiscoverFilter, error) {
	filter := models.DiscoverFilter{
		ReleaseDateFrom: c.Query("release_date_from"),
		ReleaseDateTo:   c.Query("release_date_to"),
		Language:        c.Query("language"),
		MinVoteCount:    fiber.Query(c, "min_vote_count", 0),
		IncludeAdult:    fiber.Query(c, "include_adult", false),
		SortBy:          c.Query("sort_by", "popularity"),
		SortOrder:       c.Query("sort_order", "desc"),
		Page:            fiber.Query(c, "page", 1),
	}

	if raw := c.Query("genres"); raw != "" {
		for part := range strings.SplitSeq(raw, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || id <= 0 {
				return filter, errInvalidParam("genres")
			}
			filter.Genres = append(filter.Genres, id)
		}
	}

	var err error
	if filter.MinRating, err = optionalFloat(c, "min_rating"); err != nil {
		return filter, err
	}
	if filter.MaxRating, err = optionalFloat(c, "max_rating"); err != nil {
		return filter, err
	}
	return filter, nil
}

func optionalFloat(c fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 || v > 10 {
		return nil, errInvalidParam(key)
	}
	return &v, nil
}

type errInvalidParam string

func (e errInvalidParam) Error() string { return "invalid " + string(e) }
