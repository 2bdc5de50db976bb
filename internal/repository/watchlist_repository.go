package repository

import (
	"context"
	"database/sql"
	"fmt"

	"movie-recommendation-service/internal/models"
)

// WatchlistRepository stores the movies users saved for later.
type WatchlistRepository struct {
	db *sql.DB
}

// NewWatchlistRepository creates a new WatchlistRepository.
func NewWatchlistRepository(db *sql.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// Add saves a stored movie to the user's watchlist. Adding it twice is a no-op
// that returns the existing entry. movieID is the internal movie id.
func (r *WatchlistRepository) Add(ctx context.Context, userID, movieID int) (*models.WatchlistItem, error) {
	item := models.WatchlistItem{UserID: userID}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO watchlists (user_id, movie_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, movie_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, added_at
	`, userID, movieID).Scan(&item.ID, &item.AddedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to add to watchlist: %w", err)
	}
	return &item, nil
}

// List returns the user's watchlist, most recently added first.
func (r *WatchlistRepository) List(ctx context.Context, userID int) ([]models.WatchlistItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT w.id, w.user_id, w.added_at, `+movieColumns+`
		FROM watchlists w
		JOIN movies m ON m.id = w.movie_id`+movieGenreJoin+`
		WHERE w.user_id = $1
		GROUP BY m.id, w.id
		ORDER BY w.added_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watchlist: %w", err)
	}
	defer rows.Close()

	items := make([]models.WatchlistItem, 0)
	for rows.Next() {
		var item models.WatchlistItem
		if err := scanMovie(rows, &item.Movie, &item.ID, &item.UserID, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watchlist item: %w", err)
		}
		item.MovieID = item.Movie.TMDBID
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read watchlist: %w", err)
	}
	return items, nil
}

// Remove deletes a TMDB movie from the user's watchlist.
func (r *WatchlistRepository) Remove(ctx context.Context, userID, tmdbID int) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM watchlists w
		USING movies m
		WHERE w.movie_id = m.id AND w.user_id = $1 AND m.tmdb_id = $2
	`, userID, tmdbID)
	if err != nil {
		return fmt.Errorf("failed to remove from watchlist: %w", err)
	}
	return requireAffected(res)
}

// Contains reports whether a TMDB movie is on the user's watchlist.
func (r *WatchlistRepository) Contains(ctx context.Context, userID, tmdbID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM watchlists w
			JOIN movies m ON m.id = w.movie_id
			WHERE w.user_id = $1 AND m.tmdb_id = $2
		)
	`, userID, tmdbID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check watchlist: %w", err)
	}
	return exists, nil
}
