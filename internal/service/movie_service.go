package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"movie-recommendation-service/internal/metrics"
	"movie-recommendation-service/internal/models"
	"movie-recommendation-service/internal/tmdb"
)

const (
	movieListCacheTTL   = 5 * time.Minute
	movieDetailCacheTTL = 30 * time.Minute
)

// Catalog is the TMDB surface the movie endpoints browse.
type Catalog interface {
	MovieFetcher
	Discover(ctx context.Context, filter models.DiscoverFilter) (*models.MoviePage, error)
	Popular(ctx context.Context, page int) (*models.MoviePage, error)
	TopRated(ctx context.Context, page int) (*models.MoviePage, error)
	NowPlaying(ctx context.Context, page int) (*models.MoviePage, error)
	Trending(ctx context.Context, page int) (*models.MoviePage, error)
	Search(ctx context.Context, query string, page int, includeAdult bool) (*models.MoviePage, error)
	Similar(ctx context.Context, tmdbID, page int) (*models.MoviePage, error)
	Recommendations(ctx context.Context, tmdbID, page int) (*models.MoviePage, error)
	Genres(ctx context.Context) ([]models.Genre, error)
}

// MovieService serves TMDB browsing with a Redis response cache in front.
type MovieService struct {
	catalog Catalog
	redis   *redis.Client
}

// NewMovieService creates a new MovieService. rdb may be nil, which disables caching.
func NewMovieService(catalog Catalog, rdb *redis.Client) *MovieService {
	return &MovieService{
		catalog: catalog,
		redis:   rdb,
	}
}

// Popular returns popular movies. Adult titles are only included on request,
// which goes through discover since movie/popular has no adult switch.
func (s *MovieService) Popular(ctx context.Context, page int, includeAdult bool) (*models.MoviePage, error) {
	key := fmt.Sprintf("movies:popular:%d:%t", page, includeAdult)
	return cached(ctx, s, key, movieListCacheTTL, func() (*models.MoviePage, error) {
		if includeAdult {
			return s.catalog.Discover(ctx, models.DiscoverFilter{
				IncludeAdult: true,
				SortBy:       "popularity",
				SortOrder:    "desc",
				Page:         page,
			})
		}
		return s.catalog.Popular(ctx, page)
	})
}

// TopRated returns the highest rated movies.
func (s *MovieService) TopRated(ctx context.Context, page int) (*models.MoviePage, error) {
	key := fmt.Sprintf("movies:top_rated:%d", page)
	return cached(ctx, s, key, movieListCacheTTL, func() (*models.MoviePage, error) {
		return s.catalog.TopRated(ctx, page)
	})
}

// NowPlaying returns movies currently in theatres.
func (s *MovieService) NowPlaying(ctx context.Context, page int) (*models.MoviePage, error) {
	key := fmt.Sprintf("movies:now_playing:%d", page)
	return cached(ctx, s, key, movieListCacheTTL, func() (*models.MoviePage, error) {
		return s.catalog.NowPlaying(ctx, page)
	})
}

// Trending returns this week's trending movies.
func (s *MovieService) Trending(ctx context.Context, page int) (*models.MoviePage, error) {
	key := fmt.Sprintf("movies:trending:%d", page)
	return cached(ctx, s, key, movieListCacheTTL, func() (*models.MoviePage, error) {
		return s.catalog.Trending(ctx, page)
	})
}

// Search finds movies by title.
func (s *MovieService) Search(ctx context.Context, query string, page int, includeAdult bool) (*models.MoviePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", ErrInvalidInput)
	}
	key := fmt.Sprintf("movies:search:%s:%d:%t", strings.ToLower(query), page, includeAdult)
	return cached(ctx, s, key, movieListCacheTTL, func() (*models.MoviePage, error) {
		return s.catalog.Search(ctx, query, page, includeAdult)
	})
}

// Discover runs a filtered discover query.
func (s *MovieService) Discover(ctx context.Context, filter models.DiscoverFilter) (*models.MoviePage, error) {
	filter.Validate()
	if filter.MinRating != nil && filter.MaxRating != nil && *filter.MinRating > *filter.MaxRating {
		return nil, fmt.Errorf("%w: min_rating is greater than max_rating", ErrInvalidInput)
	}
	key := "movies:discover:" + discoverKey(filter)
	return cached(ctx, s, key, movieListCacheTTL, func() (*models.MoviePage, error) {
		return s.catalog.Discover(ctx, filter)
	})
}

// Detail returns one movie, or ErrMovieNotFound.
func (s *MovieService) Detail(ctx context.Context, tmdbID int) (*models.Movie, error) {
	key := fmt.Sprintf("movie:detail:%d", tmdbID)
	m, err := cached(ctx, s, key, movieDetailCacheTTL, func() (*models.Movie, error) {
		return s.catalog.Movie(ctx, tmdbID)
	})
	if errors.Is(err, tmdb.ErrNotFound) {
		return nil, ErrMovieNotFound
	}
	return m, err
}

// Similar returns movies similar to tmdbID.
func (s *MovieService) Similar(ctx context.Context, tmdbID, page int) (*models.MoviePage, error) {
	key := fmt.Sprintf("movie:similar:%d:%d", tmdbID, page)
	res, err := cached(ctx, s, key, movieListCacheTTL, func() (*models.MoviePage, error) {
		return s.catalog.Similar(ctx, tmdbID, page)
	})
	if errors.Is(err, tmdb.ErrNotFound) {
		return nil, ErrMovieNotFound
	}
	return res, err
}

// Recommendations returns TMDB's recommendations for tmdbID.
func (s *MovieService) Recommendations(ctx context.Context, tmdbID, page int) (*models.MoviePage, error) {
	key := fmt.Sprintf("movie:recommendations:%d:%d", tmdbID, page)
	res, err := cached(ctx, s, key, movieListCacheTTL, func() (*models.MoviePage, error) {
		return s.catalog.Recommendations(ctx, tmdbID, page)
	})
	if errors.Is(err, tmdb.ErrNotFound) {
		return nil, ErrMovieNotFound
	}
	return res, err
}

// Genres returns the genre list. The TMDB client keeps it in memory already.
func (s *MovieService) Genres(ctx context.Context) ([]models.Genre, error) {
	return s.catalog.Genres(ctx)
}

// cached serves key from Redis when present and otherwise stores fetch's result.
// Cache failures never fail the request.
func cached[T any](ctx context.Context, s *MovieService, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	if raw, err := s.getFromCache(ctx, key); err == nil {
		var result T
		if json.Unmarshal([]byte(raw), &result) == nil {
			slog.Debug("cache hit", "key", key)
			metrics.CacheHit("tmdb_response")
			return result, nil
		}
	}
	metrics.CacheMiss("tmdb_response")

	result, err := fetch()
	if err != nil {
		var zero T
		return zero, err
	}
	if data, err := json.Marshal(result); err == nil {
		s.setCache(ctx, key, string(data), ttl)
	}
	return result, nil
}

func discoverKey(f models.DiscoverFilter) string {
	genres := make([]string, 0, len(f.Genres))
	for _, g := range f.Genres {
		genres = append(genres, fmt.Sprint(g))
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s:%s:%d:%t:%s:%s:%d",
		strings.Join(genres, ","), f.ReleaseDateFrom, f.ReleaseDateTo, f.Language,
		floatKey(f.MinRating), floatKey(f.MaxRating), f.MinVoteCount, f.IncludeAdult,
		f.SortBy, f.SortOrder, f.Page)
}

func floatKey(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(*v)
}

// ---- Redis Helpers ----

func (s *MovieService) getFromCache(ctx context.Context, key string) (string, error) {
	if s.redis == nil {
		return "", fmt.Errorf("redis not available")
	}
	return s.redis.Get(ctx, key).Result()
}

func (s *MovieService) setCache(ctx context.Context, key, value string, ttl time.Duration) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Error("failed to set cache", "key", key, "error", err)
	}
}
