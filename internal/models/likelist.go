package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// LikeStatus records whether a user liked or disliked a movie. The numeric values
// match the ones the web client sends.
type LikeStatus int

const (
	StatusLiked    LikeStatus = 1
	StatusDisliked LikeStatus = 2
)

// String returns the lowercase status name.
func (s LikeStatus) String() string {
	switch s {
	case StatusLiked:
		return "liked"
	case StatusDisliked:
		return "disliked"
	default:
		return "unknown"
	}
}

// Valid reports whether s is one of the two known statuses.
func (s LikeStatus) Valid() bool {
	return s == StatusLiked || s == StatusDisliked
}

// ParseLikeStatus accepts "liked"/"disliked" (any case) or the numeric form.
func ParseLikeStatus(s string) (LikeStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "liked", "like", "1":
		return StatusLiked, nil
	case "disliked", "dislike", "2":
		return StatusDisliked, nil
	}
	return 0, fmt.Errorf("invalid like status: %q", s)
}

// UnmarshalJSON accepts either the numeric or the string form.
func (s *LikeStatus) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		st := LikeStatus(n)
		if !st.Valid() {
			return fmt.Errorf("invalid like status: %d", n)
		}
		*s = st
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("like status must be a number or string: %w", err)
	}
	st, err := ParseLikeStatus(str)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// LikeListItem is one like/dislike interaction. There is at most one per
// (user, movie); a later status replaces the earlier one. MovieID is the TMDB id.
type LikeListItem struct {
	ID        int        `json:"id"`
	UserID    int        `json:"user_id"`
	MovieID   int        `json:"movie_id"`
	Movie     Movie      `json:"movie"`
	Status    LikeStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// AddToLikeListRequest is the request body for liking or disliking a movie.
// MovieID is the TMDB id.
type AddToLikeListRequest struct {
	MovieID int        `json:"movie_id" validate:"required,gt=0"`
	Status  LikeStatus `json:"status" validate:"required,oneof=1 2"`
}

// WatchlistItem is a movie a user saved for later. MovieID is the TMDB id.
type WatchlistItem struct {
	ID      int       `json:"id"`
	UserID  int       `json:"user_id"`
	MovieID int       `json:"movie_id"`
	Movie   Movie     `json:"movie"`
	AddedAt time.Time `json:"added_at"`
}

// AddToWatchlistRequest is the request body for adding to the watchlist.
type AddToWatchlistRequest struct {
	MovieID int `json:"movie_id" validate:"required,gt=0"`
}
