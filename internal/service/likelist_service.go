package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"movie-recommendation-service/internal/models"
	"movie-recommendation-service/internal/repository"
)

// LikeStore persists like/dislike interactions.
type LikeStore interface {
	List(ctx context.Context, userID int) ([]models.LikeListItem, error)
	Upsert(ctx context.Context, userID, movieID int, status models.LikeStatus) (*models.LikeListItem, error)
	Remove(ctx context.Context, userID, tmdbID int) error
	Status(ctx context.Context, userID, tmdbID int) (models.LikeStatus, error)
}

// StatusNone is reported for movies the user has neither liked nor disliked.
const StatusNone = "none"

// LikeListService manages the movies a user liked or disliked.
type LikeListService struct {
	likes    LikeStore
	resolver snapshotResolver
}

// NewLikeListService creates a new LikeListService.
func NewLikeListService(likes LikeStore, movies MovieStore, fetcher MovieFetcher) *LikeListService {
	return &LikeListService{
		likes:    likes,
		resolver: snapshotResolver{movies: movies, fetcher: fetcher},
	}
}

// List returns the user's like list, most recent first.
func (s *LikeListService) List(ctx context.Context, userID int) ([]models.LikeListItem, error) {
	return s.likes.List(ctx, userID)
}

// Set likes or dislikes a TMDB movie for the user, replacing any earlier status.
func (s *LikeListService) Set(ctx context.Context, userID int, req models.AddToLikeListRequest) (*models.LikeListItem, error) {
	if req.MovieID <= 0 {
		return nil, fmt.Errorf("%w: movie_id must be positive", ErrInvalidInput)
	}
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: status must be liked or disliked", ErrInvalidInput)
	}

	movie, err := s.resolver.resolve(ctx, req.MovieID)
	if err != nil {
		return nil, err
	}
	item, err := s.likes.Upsert(ctx, userID, movie.ID, req.Status)
	if err != nil {
		return nil, err
	}
	item.MovieID = movie.TMDBID
	item.Movie = *movie

	slog.Info("like list updated", "user_id", userID, "tmdb_id", req.MovieID, "status", req.Status.String())
	return item, nil
}

// Remove clears the user's status for a TMDB movie.
func (s *LikeListService) Remove(ctx context.Context, userID, tmdbID int) error {
	err := s.likes.Remove(ctx, userID, tmdbID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotInList
	}
	return err
}

// Status returns "liked", "disliked" or StatusNone.
func (s *LikeListService) Status(ctx context.Context, userID, tmdbID int) (string, error) {
	status, err := s.likes.Status(ctx, userID, tmdbID)
	if errors.Is(err, repository.ErrNotFound) {
		return StatusNone, nil
	}
	if err != nil {
		return "", err
	}
	return status.String(), nil
}
