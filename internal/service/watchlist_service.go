package service

import (
	"context"
	"errors"
	"fmt"

	"movie-recommendation-service/internal/models"
	"movie-recommendation-service/internal/repository"
)

// WatchlistStore persists watchlist entries.
type WatchlistStore interface {
	Add(ctx context.Context, userID, movieID int) (*models.WatchlistItem, error)
	List(ctx context.Context, userID int) ([]models.WatchlistItem, error)
	Remove(ctx context.Context, userID, tmdbID int) error
	Contains(ctx context.Context, userID, tmdbID int) (bool, error)
}

// WatchlistService manages the movies a user saved for later.
type WatchlistService struct {
	watchlist WatchlistStore
	resolver  snapshotResolver
}

// NewWatchlistService creates a new WatchlistService.
func NewWatchlistService(watchlist WatchlistStore, movies MovieStore, fetcher MovieFetcher) *WatchlistService {
	return &WatchlistService{
		watchlist: watchlist,
		resolver:  snapshotResolver{movies: movies, fetcher: fetcher},
	}
}

func (s *WatchlistService) List(ctx context.Context, userID int) ([]models.WatchlistItem, error) {
	return s.watchlist.List(ctx, userID)
}

func (s *WatchlistService) Add(ctx context.Context, userID int, req models.AddToWatchlistRequest) (*models.WatchlistItem, error) {
	if req.MovieID <= 0 {
		return nil, fmt.Errorf("%w: movie_id must be positive", ErrInvalidInput)
	}
	movie, err := s.resolver.resolve(ctx, req.MovieID)
	if err != nil {
		return nil, err
	}
	item, err := s.watchlist.Add(ctx, userID, movie.ID)
	if err != nil {
		return nil, err
	}
	item.MovieID = movie.TMDBID
	item.Movie = *movie
	return item, nil
}

func (s *WatchlistService) Remove(ctx context.Context, userID, tmdbID int) error {
	err := s.watchlist.Remove(ctx, userID, tmdbID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotInList
	}
	return err
}

func (s *WatchlistService) Contains(ctx context.Context, userID, tmdbID int) (bool, error) {
	return s.watchlist.Contains(ctx, userID, tmdbID)
}
