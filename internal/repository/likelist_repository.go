package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"movie-recommendation-service/internal/models"
)

// LikeListRepository stores like/dislike interactions. It is the recommendation
// engine's history store.
type LikeListRepository struct {
	db *sql.DB
}

// NewLikeListRepository creates a new LikeListRepository.
func NewLikeListRepository(db *sql.DB) *LikeListRepository {
	return &LikeListRepository{db: db}
}

// Liked returns the movies the user liked, most recent first.
func (r *LikeListRepository) Liked(ctx context.Context, userID int) ([]models.Movie, error) {
	return r.moviesWithStatus(ctx, userID, models.StatusLiked)
}

// Disliked returns the movies the user disliked, most recent first.
func (r *LikeListRepository) Disliked(ctx context.Context, userID int) ([]models.Movie, error) {
	return r.moviesWithStatus(ctx, userID, models.StatusDisliked)
}

// CountLiked returns how many movies the user liked.
func (r *LikeListRepository) CountLiked(ctx context.Context, userID int) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM like_lists WHERE user_id = $1 AND status = $2
	`, userID, models.StatusLiked).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count liked movies: %w", err)
	}
	return n, nil
}

func (r *LikeListRepository) moviesWithStatus(ctx context.Context, userID int, status models.LikeStatus) ([]models.Movie, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+movieColumns+`
		FROM like_lists l
		JOIN movies m ON m.id = l.movie_id`+movieGenreJoin+`
		WHERE l.user_id = $1 AND l.status = $2
		GROUP BY m.id, l.id
		ORDER BY l.updated_at DESC
	`, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s movies: %w", status, err)
	}
	defer rows.Close()

	movies := make([]models.Movie, 0)
	for rows.Next() {
		var m models.Movie
		if err := scanMovie(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan %s movie: %w", status, err)
		}
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s movies: %w", status, err)
	}
	return movies, nil
}

// List returns every like/dislike of the user, most recent first.
func (r *LikeListRepository) List(ctx context.Context, userID int) ([]models.LikeListItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.user_id, l.status, l.created_at, l.updated_at, `+movieColumns+`
		FROM like_lists l
		JOIN movies m ON m.id = l.movie_id`+movieGenreJoin+`
		WHERE l.user_id = $1
		GROUP BY m.id, l.id
		ORDER BY l.updated_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query like list: %w", err)
	}
	defer rows.Close()

	items := make([]models.LikeListItem, 0)
	for rows.Next() {
		var item models.LikeListItem
		if err := scanMovie(rows, &item.Movie,
			&item.ID, &item.UserID, &item.Status, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan like list item: %w", err)
		}
		item.MovieID = item.Movie.TMDBID
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read like list: %w", err)
	}
	return items, nil
}

// Upsert records the user's status for a stored movie, replacing any earlier
// status. movieID is the internal movie id.
func (r *LikeListRepository) Upsert(ctx context.Context, userID, movieID int, status models.LikeStatus) (*models.LikeListItem, error) {
	item := models.LikeListItem{UserID: userID, Status: status}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO like_lists (user_id, movie_id, status)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, movie_id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, userID, movieID, status).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert like list item: %w", err)
	}
	return &item, nil
}

// Remove deletes the user's status for a TMDB movie.
func (r *LikeListRepository) Remove(ctx context.Context, userID, tmdbID int) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM like_lists l
		USING movies m
		WHERE l.movie_id = m.id AND l.user_id = $1 AND m.tmdb_id = $2
	`, userID, tmdbID)
	if err != nil {
		return fmt.Errorf("failed to remove like list item: %w", err)
	}
	return requireAffected(res)
}

// Status returns the user's status for a TMDB movie, or ErrNotFound.
func (r *LikeListRepository) Status(ctx context.Context, userID, tmdbID int) (models.LikeStatus, error) {
	var status models.LikeStatus
	err := r.db.QueryRowContext(ctx, `
		SELECT l.status
		FROM like_lists l
		JOIN movies m ON m.id = l.movie_id
		WHERE l.user_id = $1 AND m.tmdb_id = $2
	`, userID, tmdbID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query like status: %w", err)
	}
	return status, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
