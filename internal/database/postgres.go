package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"movie-recommendation-service/internal/config"
)

// NewPostgres creates a new PostgreSQL connection and runs migrations.
func NewPostgres(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("connected to PostgreSQL", "db", cfg.DBName)

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// migrations are applied in order on every start; each statement is idempotent.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS genres (
		id SERIAL PRIMARY KEY,
		tmdb_id INTEGER UNIQUE NOT NULL,
		name VARCHAR(100) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS movies (
		id SERIAL PRIMARY KEY,
		tmdb_id INTEGER UNIQUE NOT NULL,
		title VARCHAR(500) NOT NULL,
		original_title VARCHAR(500) DEFAULT '',
		overview TEXT DEFAULT '',
		release_date VARCHAR(20) DEFAULT '',
		vote_average DOUBLE PRECISION,
		vote_count INTEGER DEFAULT 0,
		popularity DOUBLE PRECISION DEFAULT 0,
		poster_path VARCHAR(500) DEFAULT '',
		backdrop_path VARCHAR(500) DEFAULT '',
		original_language VARCHAR(10) DEFAULT '',
		is_adult BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT NOW(),
		updated_at TIMESTAMP DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS movie_genres (
		movie_id INTEGER REFERENCES movies(id) ON DELETE CASCADE,
		genre_id INTEGER REFERENCES genres(id) ON DELETE CASCADE,
		PRIMARY KEY (movie_id, genre_id)
	)`,
	`CREATE TABLE IF NOT EXISTS like_lists (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL,
		movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
		status SMALLINT NOT NULL CHECK (status IN (1, 2)),
		created_at TIMESTAMP DEFAULT NOW(),
		updated_at TIMESTAMP DEFAULT NOW(),
		UNIQUE(user_id, movie_id)
	)`,
	`CREATE TABLE IF NOT EXISTS watchlists (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL,
		movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
		added_at TIMESTAMP DEFAULT NOW(),
		UNIQUE(user_id, movie_id)
	)`,
	// Indexes for common query patterns
	`CREATE INDEX IF NOT EXISTS idx_like_lists_user_status ON like_lists(user_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_watchlists_user_id ON watchlists(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_movie_genres_genre_id ON movie_genres(genre_id)`,
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Info("database migrations completed", "statements", len(migrations))
	return nil
}
