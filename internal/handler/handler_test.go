package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"

	"movie-recommendation-service/internal/models"
	"movie-recommendation-service/internal/recommend"
	"movie-recommendation-service/internal/service"
)

type fakeMovies struct {
	lastFilter models.DiscoverFilter
	detailErr  error
	discErr    error
}

func (f *fakeMovies) page(ids ...int) *models.MoviePage {
	p := &models.MoviePage{Page: 1, TotalPages: 1, TotalResults: len(ids)}
	for _, id := range ids {
		p.Movies = append(p.Movies, models.Movie{TMDBID: id, Title: fmt.Sprintf("movie %d", id)})
	}
	return p
}

func (f *fakeMovies) Popular(_ context.Context, _ int, _ bool) (*models.MoviePage, error) {
	return f.page(1, 2), nil
}
func (f *fakeMovies) TopRated(context.Context, int) (*models.MoviePage, error)   { return f.page(3), nil }
func (f *fakeMovies) NowPlaying(context.Context, int) (*models.MoviePage, error) { return f.page(4), nil }
func (f *fakeMovies) Trending(context.Context, int) (*models.MoviePage, error)   { return f.page(9), nil }
func (f *fakeMovies) Search(_ context.Context, query string, _ int, _ bool) (*models.MoviePage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is required", service.ErrInvalidInput)
	}
	return f.page(5), nil
}
func (f *fakeMovies) Discover(_ context.Context, filter models.DiscoverFilter) (*models.MoviePage, error) {
	f.lastFilter = filter
	if f.discErr != nil {
		return nil, f.discErr
	}
	return f.page(6), nil
}
func (f *fakeMovies) Detail(_ context.Context, id int) (*models.Movie, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return &models.Movie{TMDBID: id, Title: "detail"}, nil
}
func (f *fakeMovies) Similar(context.Context, int, int) (*models.MoviePage, error) {
	return f.page(7), nil
}
func (f *fakeMovies) Recommendations(context.Context, int, int) (*models.MoviePage, error) {
	return f.page(8), nil
}
func (f *fakeMovies) Genres(context.Context) ([]models.Genre, error) {
	return []models.Genre{{TMDBID: 28, Name: "Action"}}, nil
}

type fakeLikes struct {
	setCalls int
	lastReq  models.AddToLikeListRequest
	err      error
}

func (f *fakeLikes) List(context.Context, int) ([]models.LikeListItem, error) {
	return []models.LikeListItem{{MovieID: 155, Status: models.StatusLiked}}, nil
}
func (f *fakeLikes) Set(_ context.Context, userID int, req models.AddToLikeListRequest) (*models.LikeListItem, error) {
	f.setCalls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.LikeListItem{UserID: userID, MovieID: req.MovieID, Status: req.Status}, nil
}
func (f *fakeLikes) Remove(context.Context, int, int) error { return f.err }
func (f *fakeLikes) Status(context.Context, int, int) (string, error) {
	return models.StatusDisliked.String(), f.err
}

type fakeWatchlist struct{ err error }

func (f *fakeWatchlist) List(context.Context, int) ([]models.WatchlistItem, error) { return nil, f.err }
func (f *fakeWatchlist) Add(_ context.Context, userID int, req models.AddToWatchlistRequest) (*models.WatchlistItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.WatchlistItem{UserID: userID, MovieID: req.MovieID}, nil
}
func (f *fakeWatchlist) Remove(context.Context, int, int) error           { return f.err }
func (f *fakeWatchlist) Contains(context.Context, int, int) (bool, error) { return true, f.err }

type fakeRecommender struct {
	result *recommend.Result
	err    error
	page   int
}

func (f *fakeRecommender) GetPersonalizedRecommendations(_ context.Context, _ int, page int) (*recommend.Result, error) {
	f.page = page
	return f.result, f.err
}
func (f *fakeRecommender) AnalyzeUserData(context.Context, int) (*recommend.UserData, error) {
	return &recommend.UserData{LikedCount: 1, Strategy: recommend.StrategyInsufficientData}, f.err
}
func (f *fakeRecommender) Profile(context.Context, int) (*recommend.TasteProfile, error) {
	return &recommend.TasteProfile{}, f.err
}

type testDeps struct {
	movies    *fakeMovies
	likes     *fakeLikes
	watchlist *fakeWatchlist
	rec       *fakeRecommender
}

func newTestApp() (*fiber.App, *testDeps) {
	deps := &testDeps{
		movies:    &fakeMovies{},
		likes:     &fakeLikes{},
		watchlist: &fakeWatchlist{},
		rec:       &fakeRecommender{result: &recommend.Result{Strategy: recommend.StrategyAdvanced, Page: 1}},
	}
	app := fiber.New(fiber.Config{
		StructValidator: NewStructValidator(),
		ErrorHandler:    ErrorHandler,
	})
	Handlers{
		Movies:          NewMovieHandler(deps.movies),
		LikeList:        NewLikeListHandler(deps.likes),
		Watchlist:       NewWatchlistHandler(deps.watchlist),
		Recommendations: NewRecommendationHandler(deps.rec),
	}.Register(app)
	return app, deps
}

func do(t *testing.T, app *fiber.App, method, path, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test(%s %s) error = %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp()
	code, body := do(t, app, http.MethodGet, "/health", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if !strings.Contains(string(body), `"status":"ok"`) {
		t.Errorf("body = %s", body)
	}
}

func TestMovieRoutes(t *testing.T) {
	app, _ := newTestApp()

	tests := []struct {
		name string
		path string
		want int
	}{
		{"popular", "/api/v1/movies/popular", http.StatusOK},
		{"top rated", "/api/v1/movies/top-rated?page=2", http.StatusOK},
		{"now playing", "/api/v1/movies/now-playing", http.StatusOK},
		{"trending", "/api/v1/movies/trending?page=1", http.StatusOK},
		{"search", "/api/v1/movies/search?query=matrix", http.StatusOK},
		{"search without query", "/api/v1/movies/search", http.StatusBadRequest},
		{"detail", "/api/v1/movies/603", http.StatusOK},
		{"detail bad id", "/api/v1/movies/abc", http.StatusBadRequest},
		{"similar", "/api/v1/movies/603/similar", http.StatusOK},
		{"recommendations", "/api/v1/movies/603/recommendations", http.StatusOK},
		{"genres", "/api/v1/genres", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, app, http.MethodGet, tt.path, "")
			if code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", code, tt.want, body)
			}
		})
	}
}

func TestMovieDetail_NotFound(t *testing.T) {
	app, deps := newTestApp()
	deps.movies.detailErr = fmt.Errorf("resolve: %w", service.ErrMovieNotFound)

	code, _ := do(t, app, http.MethodGet, "/api/v1/movies/999999", "")
	if code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
}

func TestDiscover_ParsesFilter(t *testing.T) {
	app, deps := newTestApp()

	code, body := do(t, app, http.MethodGet,
		"/api/v1/movies/discover?genres=28,%2012&release_date_from=2010-01-01&min_rating=7.5&language=en&sort_by=vote_average&sort_order=asc&page=3", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", code, body)
	}

	f := deps.movies.lastFilter
	if len(f.Genres) != 2 || f.Genres[0] != 28 || f.Genres[1] != 12 {
		t.Errorf("Genres = %v, want [28 12]", f.Genres)
	}
	if f.MinRating == nil || *f.MinRating != 7.5 {
		t.Errorf("MinRating = %v, want 7.5", f.MinRating)
	}
	if f.MaxRating != nil {
		t.Errorf("MaxRating = %v, want nil", *f.MaxRating)
	}
	if f.ReleaseDateFrom != "2010-01-01" || f.Language != "en" {
		t.Errorf("filter = %+v", f)
	}
	if f.SortBy != "vote_average" || f.SortOrder != "asc" || f.Page != 3 {
		t.Errorf("sort/page = %s %s %d", f.SortBy, f.SortOrder, f.Page)
	}
}

func TestDiscover_BadParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"non numeric genre", "genres=action"},
		{"zero genre", "genres=0"},
		{"bad min rating", "min_rating=high"},
		{"rating out of range", "max_rating=11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, deps := newTestApp()
			code, _ := do(t, app, http.MethodGet, "/api/v1/movies/discover?"+tt.query, "")
			if code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", code)
			}
			if deps.movies.lastFilter.Page != 0 {
				t.Error("service called for an invalid request")
			}
		})
	}
}

func TestDiscover_ServiceValidation(t *testing.T) {
	app, deps := newTestApp()
	deps.movies.discErr = fmt.Errorf("%w: min_rating exceeds max_rating", service.ErrInvalidInput)

	code, body := do(t, app, http.MethodGet, "/api/v1/movies/discover?min_rating=8&max_rating=5", "")
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if !strings.Contains(string(body), "min_rating exceeds max_rating") {
		t.Errorf("body = %s", body)
	}
}

func TestLikeListSet(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      string
		want      int
		wantCalls int
	}{
		{"liked", "/api/v1/users/1/likes", `{"movie_id":155,"status":1}`, http.StatusOK, 1},
		{"disliked by name", "/api/v1/users/1/likes", `{"movie_id":155,"status":"disliked"}`, http.StatusOK, 1},
		{"unknown status", "/api/v1/users/1/likes", `{"movie_id":155,"status":3}`, http.StatusBadRequest, 0},
		{"missing movie", "/api/v1/users/1/likes", `{"status":1}`, http.StatusBadRequest, 0},
		{"missing status", "/api/v1/users/1/likes", `{"movie_id":155}`, http.StatusBadRequest, 0},
		{"malformed body", "/api/v1/users/1/likes", `{"movie_id":`, http.StatusBadRequest, 0},
		{"bad user", "/api/v1/users/x/likes", `{"movie_id":155,"status":1}`, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, deps := newTestApp()
			code, body := do(t, app, http.MethodPost, tt.path, tt.body)
			if code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", code, tt.want, body)
			}
			if deps.likes.setCalls != tt.wantCalls {
				t.Errorf("Set calls = %d, want %d", deps.likes.setCalls, tt.wantCalls)
			}
		})
	}
}

func TestLikeListErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		err    error
		want   int
	}{
		{"remove ok", http.MethodDelete, "/api/v1/users/1/likes/155", nil, http.StatusNoContent},
		{"remove missing", http.MethodDelete, "/api/v1/users/1/likes/155", service.ErrNotInList, http.StatusNotFound},
		{"remove bad movie", http.MethodDelete, "/api/v1/users/1/likes/0", nil, http.StatusBadRequest},
		{"status", http.MethodGet, "/api/v1/users/1/likes/155/status", nil, http.StatusOK},
		{"status db failure", http.MethodGet, "/api/v1/users/1/likes/155/status", errors.New("connection refused"), http.StatusInternalServerError},
		{"list", http.MethodGet, "/api/v1/users/1/likes", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, deps := newTestApp()
			deps.likes.err = tt.err
			code, body := do(t, app, tt.method, tt.path, "")
			if code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", code, tt.want, body)
			}
		})
	}
}

func TestWatchlist(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		err    error
		want   int
	}{
		{"add", http.MethodPost, "/api/v1/users/1/watchlist", `{"movie_id":603}`, nil, http.StatusCreated},
		{"add invalid", http.MethodPost, "/api/v1/users/1/watchlist", `{"movie_id":-1}`, nil, http.StatusBadRequest},
		{"add unknown movie", http.MethodPost, "/api/v1/users/1/watchlist", `{"movie_id":603}`, service.ErrMovieNotFound, http.StatusNotFound},
		{"list", http.MethodGet, "/api/v1/users/1/watchlist", "", nil, http.StatusOK},
		{"contains", http.MethodGet, "/api/v1/users/1/watchlist/603", "", nil, http.StatusOK},
		{"remove", http.MethodDelete, "/api/v1/users/1/watchlist/603", "", nil, http.StatusNoContent},
		{"remove missing", http.MethodDelete, "/api/v1/users/1/watchlist/603", "", service.ErrNotInList, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, deps := newTestApp()
			deps.watchlist.err = tt.err
			code, body := do(t, app, tt.method, tt.path, tt.body)
			if code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", code, tt.want, body)
			}
		})
	}
}

func TestPersonalizedRecommendations(t *testing.T) {
	app, deps := newTestApp()
	deps.rec.result = &recommend.Result{
		Strategy: recommend.StrategyInsufficientData,
		Message:  "Like at least 2 movies to get personalized recommendations.",
		Movies:   []recommend.ScoredMovie{},
		Page:     1,
	}

	code, body := do(t, app, http.MethodGet, "/api/v1/users/7/recommendations?page=2", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if deps.rec.page != 2 {
		t.Errorf("page = %d, want 2", deps.rec.page)
	}

	var got recommend.Result
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Strategy != recommend.StrategyInsufficientData {
		t.Errorf("strategy = %q", got.Strategy)
	}
	if got.Movies == nil || len(got.Movies) != 0 {
		t.Errorf("movies = %v, want empty list", got.Movies)
	}
}

func TestPersonalizedRecommendations_RetrievalError(t *testing.T) {
	app, deps := newTestApp()
	deps.rec.err = &recommend.RetrievalError{Op: "load liked movies", UserID: 7, Err: errors.New("db down")}

	code, body := do(t, app, http.MethodGet, "/api/v1/users/7/recommendations", "")
	if code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", code)
	}
	var got ErrorResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Error != "could not compute recommendations" {
		t.Errorf("error = %q", got.Error)
	}
	if strings.Contains(string(body), "db down") {
		t.Error("internal cause leaked into the response")
	}
}

func TestRecommendationSubroutes(t *testing.T) {
	app, _ := newTestApp()
	for _, path := range []string{
		"/api/v1/users/7/recommendations/user-data",
		"/api/v1/users/7/recommendations/profile",
	} {
		code, body := do(t, app, http.MethodGet, path, "")
		if code != http.StatusOK {
			t.Errorf("GET %s status = %d (body %s)", path, code, body)
		}
	}

	code, _ := do(t, app, http.MethodGet, "/api/v1/users/0/recommendations", "")
	if code != http.StatusBadRequest {
		t.Errorf("user 0 status = %d, want 400", code)
	}
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	app, _ := newTestApp()
	code, body := do(t, app, http.MethodGet, "/api/v1/nope", "")
	if code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", code)
	}
	if !strings.Contains(string(body), `"error"`) {
		t.Errorf("body = %s", body)
	}
}

func TestRegisterSwagger(t *testing.T) {
	app := fiber.New()
	RegisterSwagger(app, []byte("openapi: 3.0.3\n"))

	code, body := do(t, app, http.MethodGet, "/swagger/doc.yaml", "")
	if code != http.StatusOK || !strings.HasPrefix(string(body), "openapi:") {
		t.Errorf("doc: status = %d body = %q", code, body)
	}

	code, body = do(t, app, http.MethodGet, "/swagger/index.html", "")
	if code != http.StatusOK || !strings.Contains(string(body), `url: "/swagger/doc.yaml"`) {
		t.Errorf("ui: status = %d", code)
	}
}
