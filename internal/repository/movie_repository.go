package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"movie-recommendation-service/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// movieColumns selects a movie with its genre ids and names aggregated. Queries
// using it must join movieGenreJoin and group by m.id.
const movieColumns = `
	m.id, m.tmdb_id, m.title, COALESCE(m.original_title, ''), COALESCE(m.overview, ''),
	COALESCE(m.release_date, ''), m.vote_average, COALESCE(m.vote_count, 0),
	COALESCE(m.popularity, 0), COALESCE(m.poster_path, ''), COALESCE(m.backdrop_path, ''),
	COALESCE(m.original_language, ''), COALESCE(m.is_adult, FALSE), m.created_at, m.updated_at,
	COALESCE(ARRAY_AGG(g.tmdb_id ORDER BY g.tmdb_id) FILTER (WHERE g.id IS NOT NULL), '{}'),
	COALESCE(ARRAY_AGG(g.name ORDER BY g.tmdb_id) FILTER (WHERE g.id IS NOT NULL), '{}')`

const movieGenreJoin = `
	LEFT JOIN movie_genres mg ON mg.movie_id = m.id
	LEFT JOIN genres g ON g.id = mg.genre_id`

type rowScanner interface {
	Scan(dest ...any) error
}

// scanMovie reads movieColumns into m. lead holds destinations for columns
// selected before movieColumns.
func scanMovie(row rowScanner, m *models.Movie, lead ...any) error {
	var (
		vote     sql.NullFloat64
		genreIDs []int64
		names    []string
	)
	dest := append(lead,
		&m.ID, &m.TMDBID, &m.Title, &m.OriginalTitle, &m.Overview,
		&m.ReleaseDate, &vote, &m.VoteCount,
		&m.Popularity, &m.PosterPath, &m.BackdropPath,
		&m.OriginalLanguage, &m.IsAdult, &m.CreatedAt, &m.UpdatedAt,
		pq.Array(&genreIDs), pq.Array(&names),
	)
	if err := row.Scan(dest...); err != nil {
		return err
	}
	if vote.Valid {
		v := vote.Float64
		m.VoteAverage = &v
	}
	m.GenreIDs = make([]int, len(genreIDs))
	for i, id := range genreIDs {
		m.GenreIDs[i] = int(id)
	}
	m.Genres = names
	if m.Genres == nil {
		m.Genres = []string{}
	}
	return nil
}

// MovieRepository stores local snapshots of TMDB movies and their genres.
type MovieRepository struct {
	db *sql.DB
}

// NewMovieRepository creates a new MovieRepository.
func NewMovieRepository(db *sql.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

// FindByTMDBID returns the stored snapshot of a TMDB movie.
func (r *MovieRepository) FindByTMDBID(ctx context.Context, tmdbID int) (*models.Movie, error) {
	var m models.Movie
	err := scanMovie(r.db.QueryRowContext(ctx, `
		SELECT `+movieColumns+`
		FROM movies m`+movieGenreJoin+`
		WHERE m.tmdb_id = $1
		GROUP BY m.id
	`, tmdbID), &m)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find movie %d: %w", tmdbID, err)
	}
	return &m, nil
}

// Upsert inserts or refreshes a movie snapshot and replaces its genre links.
// It returns the internal movie id.
func (r *MovieRepository) Upsert(ctx context.Context, m *models.Movie) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var vote sql.NullFloat64
	if m.VoteAverage != nil {
		vote = sql.NullFloat64{Float64: *m.VoteAverage, Valid: true}
	}

	var id int
	err = tx.QueryRowContext(ctx, `
		INSERT INTO movies (tmdb_id, title, original_title, overview, release_date,
			vote_average, vote_count, popularity, poster_path, backdrop_path,
			original_language, is_adult, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (tmdb_id) DO UPDATE SET
			title = EXCLUDED.title,
			original_title = EXCLUDED.original_title,
			overview = EXCLUDED.overview,
			release_date = EXCLUDED.release_date,
			vote_average = EXCLUDED.vote_average,
			vote_count = EXCLUDED.vote_count,
			popularity = EXCLUDED.popularity,
			poster_path = EXCLUDED.poster_path,
			backdrop_path = EXCLUDED.backdrop_path,
			original_language = EXCLUDED.original_language,
			is_adult = EXCLUDED.is_adult,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`, m.TMDBID, m.Title, m.OriginalTitle, m.Overview, m.ReleaseDate,
		vote, m.VoteCount, m.Popularity, m.PosterPath, m.BackdropPath,
		m.OriginalLanguage, m.IsAdult, time.Now()).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert movie %d: %w", m.TMDBID, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM movie_genres WHERE movie_id = $1`, id); err != nil {
		return 0, fmt.Errorf("failed to clear genres of movie %d: %w", m.TMDBID, err)
	}
	for _, g := range movieGenres(m) {
		var genreID int
		err := tx.QueryRowContext(ctx, `
			INSERT INTO genres (tmdb_id, name)
			VALUES ($1, $2)
			ON CONFLICT (tmdb_id) DO UPDATE SET
				name = CASE WHEN EXCLUDED.name <> '' THEN EXCLUDED.name ELSE genres.name END
			RETURNING id
		`, g.TMDBID, g.Name).Scan(&genreID)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert genre %d: %w", g.TMDBID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO movie_genres (movie_id, genre_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, id, genreID); err != nil {
			return 0, fmt.Errorf("failed to link genre %d: %w", g.TMDBID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit movie %d: %w", m.TMDBID, err)
	}
	m.ID = id
	return id, nil
}

// movieGenres pairs genre ids with names. Names are only trusted when the
// movie carries one per id, as TMDB detail responses do.
func movieGenres(m *models.Movie) []models.Genre {
	genres := make([]models.Genre, 0, len(m.GenreIDs))
	named := len(m.Genres) == len(m.GenreIDs)
	seen := make(map[int]bool, len(m.GenreIDs))
	for i, id := range m.GenreIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		g := models.Genre{TMDBID: id}
		if named {
			g.Name = m.Genres[i]
		}
		genres = append(genres, g)
	}
	return genres
}
