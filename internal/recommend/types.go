package recommend

import (
	"context"
	"errors"
	"fmt"

	"movie-recommendation-service/internal/models"
)

// HistoryStore reads a user's like/dislike history. Returned movies carry their
// genre ids and vote average.
type HistoryStore interface {
	Liked(ctx context.Context, userID int) ([]models.Movie, error)
	Disliked(ctx context.Context, userID int) ([]models.Movie, error)
	CountLiked(ctx context.Context, userID int) (int, error)
}

// CatalogGateway is the external movie catalog the candidates come from.
type CatalogGateway interface {
	Discover(ctx context.Context, filter models.DiscoverFilter) (*models.MoviePage, error)
	Popular(ctx context.Context, page int) (*models.MoviePage, error)
}

// Strategy names how a recommendation result was produced.
type Strategy string

const (
	StrategyInsufficientData Strategy = "InsufficientData"
	StrategyAdvanced         Strategy = "Advanced"
)

// TasteProfile is a user's preference profile derived from their liked and
// disliked movies. It is rebuilt on every request.
type TasteProfile struct {
	// GenreWeights maps catalog genre id to a weight in [0,1]; the strongest genre is 1.
	GenreWeights map[int]float64 `json:"genre_weights"`

	// AvoidedGenres maps genre id to the share of disliked movies carrying it.
	AvoidedGenres map[int]float64 `json:"avoided_genres"`

	YearPreference   YearPreference   `json:"year_preference"`
	RatingPreference RatingPreference `json:"rating_preference"`

	// AvoidedMovieIDs are the catalog ids the user disliked, ascending.
	AvoidedMovieIDs []int `json:"avoided_movie_ids"`
}

// YearPreference is the release-year window the user tends to like.
type YearPreference struct {
	PreferredStartYear int     `json:"preferred_start_year"`
	PreferredEndYear   int     `json:"preferred_end_year"`
	Weight             float64 `json:"weight"`
}

// RatingPreference holds the rating floor and target for candidates.
type RatingPreference struct {
	MinRating       float64 `json:"min_rating"`
	PreferredRating float64 `json:"preferred_rating"`
	Weight          float64 `json:"weight"`
}

// ScoredMovie is a candidate with its composite score and the components it was
// built from.
type ScoredMovie struct {
	Movie           models.Movie `json:"movie"`
	Score           float64      `json:"score"`
	GenreScore      float64      `json:"genre_score"`
	YearScore       float64      `json:"year_score"`
	RatingScore     float64      `json:"rating_score"`
	PopularityScore float64      `json:"popularity_score"`
}

// Result is the response of GetPersonalizedRecommendations.
type Result struct {
	Strategy     Strategy      `json:"strategy"`
	Message      string        `json:"message"`
	Movies       []ScoredMovie `json:"movies"`
	Page         int           `json:"page"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// UserData summarises the history a user's recommendations are built from.
type UserData struct {
	LikedCount     int            `json:"liked_count"`
	DislikedCount  int            `json:"disliked_count"`
	Strategy       Strategy       `json:"strategy"`
	LikedMovies    []models.Movie `json:"liked_movies"`
	DislikedMovies []models.Movie `json:"disliked_movies"`
}

// ErrRetrieval matches every RetrievalError via errors.Is.
var ErrRetrieval = errors.New("could not compute recommendations")

// RetrievalError reports a failed or timed-out history or catalog read.
type RetrievalError struct {
	Op     string
	UserID int
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("recommend: %s for user %d: %v", e.Op, e.UserID, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Is reports ErrRetrieval as a match so callers need not know the concrete type.
func (e *RetrievalError) Is(target error) bool { return target == ErrRetrieval }
