package tmdb

import "movie-recommendation-service/internal/models"

// ---- TMDB Response Types (internal, not exposed to consumers) ----

// PageResponse is the paged result shape shared by discover, search and the
// movie list endpoints.
type PageResponse struct {
	Page         int         `json:"page"`
	Results      []TMDBMovie `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

// TMDBMovie is a movie from TMDB list results.
type TMDBMovie struct {
	ID               int      `json:"id"`
	Title            string   `json:"title"`
	OriginalTitle    string   `json:"original_title"`
	Overview         string   `json:"overview"`
	ReleaseDate      string   `json:"release_date"`
	VoteAverage      *float64 `json:"vote_average"`
	VoteCount        int      `json:"vote_count"`
	Popularity       float64  `json:"popularity"`
	PosterPath       string   `json:"poster_path"`
	BackdropPath     string   `json:"backdrop_path"`
	GenreIDs         []int    `json:"genre_ids"`
	OriginalLanguage string   `json:"original_language"`
	Adult            bool     `json:"adult"`
}

// TMDBMovieDetail is the detailed movie info from TMDB.
type TMDBMovieDetail struct {
	ID               int         `json:"id"`
	Title            string      `json:"title"`
	OriginalTitle    string      `json:"original_title"`
	Overview         string      `json:"overview"`
	ReleaseDate      string      `json:"release_date"`
	VoteAverage      *float64    `json:"vote_average"`
	VoteCount        int         `json:"vote_count"`
	Popularity       float64     `json:"popularity"`
	PosterPath       string      `json:"poster_path"`
	BackdropPath     string      `json:"backdrop_path"`
	Genres           []TMDBGenre `json:"genres"`
	OriginalLanguage string      `json:"original_language"`
	Adult            bool        `json:"adult"`
	Runtime          int         `json:"runtime"`
}

// TMDBGenre is a genre from TMDB.
type TMDBGenre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// GenreListResponse is the TMDB genre/movie/list response.
type GenreListResponse struct {
	Genres []TMDBGenre `json:"genres"`
}

func (m TMDBMovie) toModel() models.Movie {
	genreIDs := m.GenreIDs
	if genreIDs == nil {
		genreIDs = []int{}
	}
	return models.Movie{
		TMDBID:           m.ID,
		Title:            m.Title,
		OriginalTitle:    m.OriginalTitle,
		Overview:         m.Overview,
		ReleaseDate:      m.ReleaseDate,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		Popularity:       m.Popularity,
		GenreIDs:         genreIDs,
		Genres:           []string{},
		PosterPath:       m.PosterPath,
		BackdropPath:     m.BackdropPath,
		IsAdult:          m.Adult,
		OriginalLanguage: m.OriginalLanguage,
	}
}

func (d TMDBMovieDetail) toModel() models.Movie {
	ids := make([]int, 0, len(d.Genres))
	names := make([]string, 0, len(d.Genres))
	for _, g := range d.Genres {
		ids = append(ids, g.ID)
		names = append(names, g.Name)
	}
	return models.Movie{
		TMDBID:           d.ID,
		Title:            d.Title,
		OriginalTitle:    d.OriginalTitle,
		Overview:         d.Overview,
		ReleaseDate:      d.ReleaseDate,
		VoteAverage:      d.VoteAverage,
		VoteCount:        d.VoteCount,
		Popularity:       d.Popularity,
		GenreIDs:         ids,
		Genres:           names,
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		IsAdult:          d.Adult,
		OriginalLanguage: d.OriginalLanguage,
	}
}

func (p PageResponse) toModel() *models.MoviePage {
	movies := make([]models.Movie, 0, len(p.Results))
	for _, m := range p.Results {
		movies = append(movies, m.toModel())
	}
	return &models.MoviePage{
		Movies:       movies,
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
	}
}
