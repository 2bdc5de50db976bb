package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"movie-recommendation-service/internal/metrics"
	"movie-recommendation-service/internal/models"
)

const advancedMessage = "Recommendations based on the movies you liked and disliked."

// Config tunes the Engine.
type Config struct {
	// Timeout bounds one recommendation request, including every catalog call.
	Timeout time.Duration
	// MinLikes is the number of liked movies needed for personalized results.
	MinLikes int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:  30 * time.Second,
		MinLikes: 2,
	}
}

// Engine produces personalized recommendations from a user's like history and
// the external catalog. It holds no per-user state and is safe for concurrent use.
type Engine struct {
	history HistoryStore
	catalog CatalogGateway
	cfg     Config
	now     func() time.Time
}

// NewEngine creates an Engine. A zero Timeout, or a MinLikes below the default
// of 2, falls back to DefaultConfig.
func NewEngine(history HistoryStore, catalog CatalogGateway, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MinLikes < def.MinLikes {
		cfg.MinLikes = def.MinLikes
	}
	return &Engine{
		history: history,
		catalog: catalog,
		cfg:     cfg,
		now:     time.Now,
	}
}

// GetPersonalizedRecommendations returns one page of ranked recommendations.
// Users with fewer than MinLikes liked movies get an InsufficientData result with
// no movies and the requested page echoed back; that is not an error. Pages
// below 1 are read as page 1 for catalog queries. Failed reads are returned as
// *RetrievalError.
func (e *Engine) GetPersonalizedRecommendations(ctx context.Context, userID, page int) (*Result, error) {
	start := time.Now()
	requested := page
	page = max(page, 1)

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	likedCount, err := e.history.CountLiked(ctx, userID)
	if err != nil {
		return nil, e.fail(userID, "count liked movies", err)
	}

	if likedCount < e.cfg.MinLikes {
		slog.Debug("not enough likes for recommendations", "user_id", userID, "liked", likedCount)
		metrics.ObserveRecommendation("insufficient_data", start, 0)
		return &Result{
			Strategy:     StrategyInsufficientData,
			Message:      e.insufficientDataMessage(likedCount),
			Movies:       []ScoredMovie{},
			Page:         requested,
			TotalPages:   1,
			TotalResults: 0,
		}, nil
	}

	liked, disliked, err := e.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := BuildProfile(liked, disliked, e.now())

	candidates, err := GenerateCandidates(ctx, e.catalog, profile, page)
	if err != nil {
		return nil, e.fail(userID, "generate candidates", err)
	}

	ranked := ScoreAndRank(candidates.Movies, profile)
	slog.Debug("recommendations ranked",
		"user_id", userID,
		"page", page,
		"candidates", len(candidates.Movies),
		"returned", len(ranked),
	)
	metrics.ObserveRecommendation("advanced", start, len(ranked))

	return &Result{
		Strategy:     StrategyAdvanced,
		Message:      advancedMessage,
		Movies:       ranked,
		Page:         candidates.Page,
		TotalPages:   candidates.TotalPages,
		TotalResults: candidates.TotalResults,
	}, nil
}

// AnalyzeUserData returns the user's liked and disliked movies with their counts
// and the strategy GetPersonalizedRecommendations would use.
func (e *Engine) AnalyzeUserData(ctx context.Context, userID int) (*UserData, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	liked, disliked, err := e.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}

	strategy := StrategyAdvanced
	if len(liked) < e.cfg.MinLikes {
		strategy = StrategyInsufficientData
	}
	return &UserData{
		LikedCount:     len(liked),
		DislikedCount:  len(disliked),
		Strategy:       strategy,
		LikedMovies:    liked,
		DislikedMovies: disliked,
	}, nil
}

// Profile builds the taste profile for a user without generating candidates.
func (e *Engine) Profile(ctx context.Context, userID int) (*TasteProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	liked, disliked, err := e.loadHistory(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := BuildProfile(liked, disliked, e.now())
	return &profile, nil
}

// loadHistory reads the liked and disliked sets concurrently.
func (e *Engine) loadHistory(ctx context.Context, userID int) (liked, disliked []models.Movie, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if liked, err = e.history.Liked(gctx, userID); err != nil {
			return fmt.Errorf("liked movies: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if disliked, err = e.history.Disliked(gctx, userID); err != nil {
			return fmt.Errorf("disliked movies: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, e.fail(userID, "load history", err)
	}
	if liked == nil {
		liked = []models.Movie{}
	}
	if disliked == nil {
		disliked = []models.Movie{}
	}
	return liked, disliked, nil
}

func (e *Engine) fail(userID int, op string, err error) error {
	slog.Error("recommendation retrieval failed", "user_id", userID, "op", op, "error", err)
	metrics.RecommendationRequests.WithLabelValues("error").Inc()
	return &RetrievalError{Op: op, UserID: userID, Err: err}
}

func (e *Engine) insufficientDataMessage(liked int) string {
	return fmt.Sprintf(
		"Like at least %d movies to get personalized recommendations. You have liked %d so far.",
		e.cfg.MinLikes, liked,
	)
}
