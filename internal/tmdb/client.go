package tmdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"movie-recommendation-service/internal/config"
	"movie-recommendation-service/internal/metrics"
	"movie-recommendation-service/internal/models"
)

// ErrNotFound is returned when TMDB answers 404.
var ErrNotFound = errors.New("tmdb: resource not found")

// errHTMLBody marks a 2xx response whose body is an HTML page instead of JSON,
// which TMDB's edge occasionally serves under load.
var errHTMLBody = errors.New("tmdb: unexpected HTML response")

const (
	maxAttempts  = 2
	maxBodyBytes = 4 << 20
)

// Client is the TMDB API client. Every request waits on a shared rate limiter,
// runs through a circuit breaker, and is retried once on a bad response.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	genres  *GenreCache
}

// NewClient creates a new TMDB API client.
func NewClient(cfg config.TMDBConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := max(cfg.Burst, 1)

	c := &Client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		breaker: newBreaker(),
	}
	c.genres = NewGenreCache(cfg.GenreCacheTTL, c.fetchGenres)
	return c
}

// Discover queries discover/movie with the given filter. Invalid sort and page
// values are normalised first.
func (c *Client) Discover(ctx context.Context, filter models.DiscoverFilter) (*models.MoviePage, error) {
	filter.Validate()

	q := url.Values{}
	q.Set("page", strconv.Itoa(filter.Page))
	q.Set("sort_by", filter.SortBy+"."+filter.SortOrder)
	q.Set("include_adult", strconv.FormatBool(filter.IncludeAdult))
	if len(filter.Genres) > 0 {
		ids := make([]string, 0, len(filter.Genres))
		for _, g := range filter.Genres {
			ids = append(ids, strconv.Itoa(g))
		}
		q.Set("with_genres", strings.Join(ids, ","))
	}
	if filter.ReleaseDateFrom != "" {
		q.Set("primary_release_date.gte", filter.ReleaseDateFrom)
	}
	if filter.ReleaseDateTo != "" {
		q.Set("primary_release_date.lte", filter.ReleaseDateTo)
	}
	if filter.MinRating != nil {
		q.Set("vote_average.gte", strconv.FormatFloat(*filter.MinRating, 'f', -1, 64))
	}
	if filter.MaxRating != nil {
		q.Set("vote_average.lte", strconv.FormatFloat(*filter.MaxRating, 'f', -1, 64))
	}
	if filter.MinVoteCount > 0 {
		q.Set("vote_count.gte", strconv.Itoa(filter.MinVoteCount))
	}
	if filter.Language != "" {
		q.Set("with_original_language", filter.Language)
	}

	return c.moviePage(ctx, "discover", "/discover/movie", q)
}

// Popular fetches movie/popular.
func (c *Client) Popular(ctx context.Context, page int) (*models.MoviePage, error) {
	return c.moviePage(ctx, "popular", "/movie/popular", pageQuery(page))
}

// TopRated fetches movie/top_rated.
func (c *Client) TopRated(ctx context.Context, page int) (*models.MoviePage, error) {
	return c.moviePage(ctx, "top_rated", "/movie/top_rated", pageQuery(page))
}

// Trending fetches the weekly trending/movie list.
func (c *Client) Trending(ctx context.Context, page int) (*models.MoviePage, error) {
	return c.moviePage(ctx, "trending", "/trending/movie/week", pageQuery(page))
}

// NowPlaying fetches movie/now_playing.
func (c *Client) NowPlaying(ctx context.Context, page int) (*models.MoviePage, error) {
	return c.moviePage(ctx, "now_playing", "/movie/now_playing", pageQuery(page))
}

// Search runs a title search.
func (c *Client) Search(ctx context.Context, query string, page int, includeAdult bool) (*models.MoviePage, error) {
	q := pageQuery(page)
	q.Set("query", query)
	q.Set("include_adult", strconv.FormatBool(includeAdult))
	return c.moviePage(ctx, "search", "/search/movie", q)
}

// Similar fetches movies TMDB considers similar to tmdbID.
func (c *Client) Similar(ctx context.Context, tmdbID, page int) (*models.MoviePage, error) {
	return c.moviePage(ctx, "similar", fmt.Sprintf("/movie/%d/similar", tmdbID), pageQuery(page))
}

// Recommendations fetches TMDB's own recommendations for tmdbID.
func (c *Client) Recommendations(ctx context.Context, tmdbID, page int) (*models.MoviePage, error) {
	return c.moviePage(ctx, "recommendations", fmt.Sprintf("/movie/%d/recommendations", tmdbID), pageQuery(page))
}

// Movie fetches the details of one movie. It returns ErrNotFound for unknown ids.
func (c *Client) Movie(ctx context.Context, tmdbID int) (*models.Movie, error) {
	slog.Debug("fetching TMDB movie detail", "tmdb_id", tmdbID)

	var detail TMDBMovieDetail
	if err := c.get(ctx, "movie", fmt.Sprintf("/movie/%d", tmdbID), url.Values{}, &detail); err != nil {
		return nil, err
	}
	m := detail.toModel()
	return &m, nil
}

// Genres returns the movie genre list from the client's genre cache.
func (c *Client) Genres(ctx context.Context) ([]models.Genre, error) {
	return c.genres.All(ctx)
}

func (c *Client) fetchGenres(ctx context.Context) ([]models.Genre, error) {
	slog.Debug("fetching TMDB genres")

	var result GenreListResponse
	if err := c.get(ctx, "genres", "/genre/movie/list", url.Values{}, &result); err != nil {
		return nil, err
	}
	genres := make([]models.Genre, 0, len(result.Genres))
	for _, g := range result.Genres {
		genres = append(genres, models.Genre{TMDBID: g.ID, Name: g.Name})
	}
	return genres, nil
}

func (c *Client) moviePage(ctx context.Context, endpoint, path string, q url.Values) (*models.MoviePage, error) {
	slog.Debug("fetching TMDB movie list", "endpoint", endpoint, "page", q.Get("page"))

	var result PageResponse
	if err := c.get(ctx, endpoint, path, q, &result); err != nil {
		return nil, err
	}
	page := result.toModel()
	c.fillGenreNames(ctx, page.Movies)
	return page, nil
}

// fillGenreNames resolves genre names for list results, which only carry ids.
// Names are cosmetic, so a failed genre lookup is logged and skipped.
func (c *Client) fillGenreNames(ctx context.Context, movies []models.Movie) {
	if len(movies) == 0 {
		return
	}
	for i := range movies {
		names, err := c.genres.Names(ctx, movies[i].GenreIDs)
		if err != nil {
			slog.Warn("could not resolve genre names", "error", err)
			return
		}
		movies[i].Genres = names
	}
}

// get performs a GET against path and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, endpoint, path string, q url.Values, out any) error {
	start := time.Now()
	defer func() {
		metrics.TMDBRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	q.Set("api_key", c.apiKey)
	rawURL := c.baseURL + path + "?" + q.Encode()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, endpoint, rawURL)
	})
	if err != nil {
		result := "failure"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			result = "rejected"
		case errors.Is(err, ErrNotFound):
			result = "not_found"
		}
		metrics.TMDBRequests.WithLabelValues(endpoint, result).Inc()
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return fmt.Errorf("tmdb %s: %w", endpoint, err)
	}
	metrics.TMDBRequests.WithLabelValues(endpoint, "success").Inc()

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// fetch sends the request, retrying once if the first answer is unusable.
func (c *Client) fetch(ctx context.Context, endpoint, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			metrics.TMDBRequests.WithLabelValues(endpoint, "retry").Inc()
			slog.Warn("retrying TMDB request", "endpoint", endpoint, "error", lastErr)
		}
		body, err := c.doGet(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if errors.Is(err, ErrNotFound) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *Client) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", redactKey(err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", redactKey(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("TMDB API returned status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	if trimmed := bytes.TrimLeft(body, " \t\r\n"); len(trimmed) > 0 && trimmed[0] == '<' {
		return nil, errHTMLBody
	}
	return body, nil
}

// redactKey blanks the api_key query parameter in a *url.Error, whose message
// otherwise carries the full request URL into logs.
func redactKey(err error) error {
	var uerr *url.Error
	if !errors.As(err, &uerr) {
		return err
	}
	if u, perr := url.Parse(uerr.URL); perr == nil {
		q := u.Query()
		if q.Has("api_key") {
			q.Set("api_key", "REDACTED")
			u.RawQuery = q.Encode()
		}
		uerr.URL = u.String()
	} else {
		uerr.URL = "<unparseable url>"
	}
	return err
}

func pageQuery(page int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(min(max(page, 1), 500)))
	return q
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
