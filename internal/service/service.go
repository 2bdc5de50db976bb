package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"movie-recommendation-service/internal/models"
	"movie-recommendation-service/internal/repository"
	"movie-recommendation-service/internal/tmdb"
)

var (
	// ErrMovieNotFound is returned when TMDB does not know a movie id.
	ErrMovieNotFound = errors.New("movie not found")
	// ErrNotInList is returned when removing or reading an entry the user does not have.
	ErrNotInList = errors.New("movie is not in the list")
	// ErrInvalidInput wraps request validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// MovieFetcher loads one movie from the catalog.
type MovieFetcher interface {
	Movie(ctx context.Context, tmdbID int) (*models.Movie, error)
}

// MovieStore persists local movie snapshots.
type MovieStore interface {
	FindByTMDBID(ctx context.Context, tmdbID int) (*models.Movie, error)
	Upsert(ctx context.Context, m *models.Movie) (int, error)
}

// snapshotResolver makes sure a TMDB movie has a local row, fetching it from the
// catalog the first time it is referenced.
type snapshotResolver struct {
	movies  MovieStore
	fetcher MovieFetcher
}

func (r snapshotResolver) resolve(ctx context.Context, tmdbID int) (*models.Movie, error) {
	m, err := r.movies.FindByTMDBID(ctx, tmdbID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	m, err = r.fetcher.Movie(ctx, tmdbID)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			return nil, ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to fetch movie %d: %w", tmdbID, err)
	}
	id, err := r.movies.Upsert(ctx, m)
	if err != nil {
		return nil, err
	}
	m.ID = id
	slog.Debug("stored movie snapshot", "tmdb_id", tmdbID, "id", m.ID)
	return m, nil
}
