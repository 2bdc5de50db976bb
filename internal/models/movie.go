package models

import (
	"strconv"
	"time"
)

// Movie is a catalog movie snapshot, either fetched from TMDB or read from the
// local store. TMDBID is the catalog identifier used everywhere outside the database.
type Movie struct {
	ID               int       `json:"id,omitempty"`
	TMDBID           int       `json:"tmdb_id"`
	Title            string    `json:"title"`
	OriginalTitle    string    `json:"original_title,omitempty"`
	Overview         string    `json:"overview"`
	ReleaseDate      string    `json:"release_date"`
	VoteAverage      *float64  `json:"vote_average"`
	VoteCount        int       `json:"vote_count"`
	Popularity       float64   `json:"popularity"`
	GenreIDs         []int     `json:"genre_ids"`
	Genres           []string  `json:"genres"`
	PosterPath       string    `json:"poster_path,omitempty"`
	BackdropPath     string    `json:"backdrop_path,omitempty"`
	IsAdult          bool      `json:"is_adult"`
	OriginalLanguage string    `json:"original_language,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Rating returns the vote average, treating a missing value as 0.
func (m Movie) Rating() float64 {
	if m.VoteAverage == nil {
		return 0
	}
	return *m.VoteAverage
}

// ReleaseYear extracts the year from a YYYY-MM-DD release date. ok is false when
// the date is empty or unparseable.
func (m Movie) ReleaseYear() (year int, ok bool) {
	if len(m.ReleaseDate) < 4 {
		return 0, false
	}
	if t, err := time.Parse("2006-01-02", m.ReleaseDate); err == nil {
		return t.Year(), true
	}
	// A bare year is still usable.
	if len(m.ReleaseDate) == 4 {
		if y, err := strconv.Atoi(m.ReleaseDate); err == nil && y > 0 {
			return y, true
		}
	}
	return 0, false
}

// Genre is a catalog genre.
type Genre struct {
	ID     int    `json:"id,omitempty"`
	TMDBID int    `json:"tmdb_id"`
	Name   string `json:"name"`
}

// MoviePage is one page of catalog results with the catalog's pagination metadata.
type MoviePage struct {
	Movies       []Movie `json:"movies"`
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// DiscoverFilter holds the catalog discover query parameters. Zero values are
// left out of the upstream request.
type DiscoverFilter struct {
	Genres          []int
	ReleaseDateFrom string
	ReleaseDateTo   string
	Language        string
	MinRating       *float64
	MaxRating       *float64
	MinVoteCount    int
	IncludeAdult    bool
	SortBy          string
	SortOrder       string
	Page            int
}

// Validate sets defaults and validates parameters.
func (f *DiscoverFilter) Validate() {
	if f.Page < 1 {
		f.Page = 1
	}
	// TMDB rejects pages above 500.
	if f.Page > 500 {
		f.Page = 500
	}
	validSorts := map[string]bool{
		"popularity": true, "vote_average": true, "vote_count": true,
		"release_date": true, "primary_release_date": true, "title": true, "revenue": true,
	}
	if !validSorts[f.SortBy] {
		f.SortBy = "popularity"
	}
	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		f.SortOrder = "desc"
	}
}

const (
	TMDBImageBaseW500 = "https://image.tmdb.org/t/p/w500"
	TMDBImageBaseW780 = "https://image.tmdb.org/t/p/w780"
)
