package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the recommendation service.
type Config struct {
	DB             DBConfig
	Redis          RedisConfig
	TMDB           TMDBConfig
	RateLimit      RateLimitConfig
	Recommendation RecommendationConfig
	Port           string
	LogLevel       slog.Level
}

// DBConfig holds PostgreSQL configuration.
type DBConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	SSLRootCert string
}

// DSN returns the PostgreSQL connection string.
func (d DBConfig) DSN() string {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
	if d.SSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", d.SSLRootCert)
	}
	return dsn
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// TMDBConfig holds TMDB API configuration.
type TMDBConfig struct {
	APIKey            string
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	GenreCacheTTL     time.Duration
}

// RateLimitConfig controls the inbound per-IP limiter.
type RateLimitConfig struct {
	Max    int
	Window time.Duration
}

// RecommendationConfig tunes the personalized recommendation pipeline.
type RecommendationConfig struct {
	Timeout  time.Duration
	MinLikes int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DB: DBConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnvInt("DB_PORT", 5432),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "movie_recommendation"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			SSLRootCert: getEnv("DB_SSLROOTCERT", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		TMDB: TMDBConfig{
			APIKey:            getEnv("TMDB_API_KEY", ""),
			BaseURL:           strings.TrimRight(getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"), "/"),
			Timeout:           getEnvDuration("TMDB_TIMEOUT", 15*time.Second),
			RequestsPerSecond: getEnvFloat("TMDB_REQUESTS_PER_SECOND", 20),
			Burst:             getEnvInt("TMDB_BURST", 10),
			GenreCacheTTL:     getEnvDuration("TMDB_GENRE_CACHE_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			Max:    getEnvInt("RATE_LIMIT_MAX", 100),
			Window: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		Recommendation: RecommendationConfig{
			Timeout:  getEnvDuration("RECOMMENDATION_TIMEOUT", 30*time.Second),
			MinLikes: getEnvInt("RECOMMENDATION_MIN_LIKES", 2),
		},
		Port: getEnv("SERVER_PORT", "8080"),
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	if cfg.TMDB.APIKey == "" {
		return nil, fmt.Errorf("TMDB_API_KEY is required")
	}
	// A profile needs at least two liked movies; the threshold can only be raised.
	if cfg.Recommendation.MinLikes < 2 {
		return nil, fmt.Errorf("RECOMMENDATION_MIN_LIKES must be at least 2, got %d", cfg.Recommendation.MinLikes)
	}

	return cfg, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}
