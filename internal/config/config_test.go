package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
		verify  func(t *testing.T, cfg *Config)
	}{
		{
			name: "applies defaults",
			env:  map[string]string{"TMDB_API_KEY": "key"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Port != "8080" {
					t.Errorf("Port = %q, want 8080", cfg.Port)
				}
				if cfg.Recommendation.Timeout != 30*time.Second {
					t.Errorf("Recommendation.Timeout = %v, want 30s", cfg.Recommendation.Timeout)
				}
				if cfg.Recommendation.MinLikes != 2 {
					t.Errorf("Recommendation.MinLikes = %d, want 2", cfg.Recommendation.MinLikes)
				}
				if cfg.LogLevel != slog.LevelInfo {
					t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
				}
			},
		},
		{
			name: "reads overrides",
			env: map[string]string{
				"TMDB_API_KEY":           "key",
				"TMDB_BASE_URL":          "http://tmdb.local/3/",
				"RECOMMENDATION_TIMEOUT": "5s",
				"DB_PORT":                "6543",
				"LOG_LEVEL":              "debug",
			},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.TMDB.BaseURL != "http://tmdb.local/3" {
					t.Errorf("TMDB.BaseURL = %q, want trailing slash trimmed", cfg.TMDB.BaseURL)
				}
				if cfg.Recommendation.Timeout != 5*time.Second {
					t.Errorf("Recommendation.Timeout = %v, want 5s", cfg.Recommendation.Timeout)
				}
				if cfg.DB.Port != 6543 {
					t.Errorf("DB.Port = %d, want 6543", cfg.DB.Port)
				}
				if cfg.LogLevel != slog.LevelDebug {
					t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
				}
			},
		},
		{
			name:    "requires api key",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:    "rejects min likes below two",
			env:     map[string]string{"TMDB_API_KEY": "key", "RECOMMENDATION_MIN_LIKES": "1"},
			wantErr: true,
		},
		{
			name: "allows a higher min likes",
			env:  map[string]string{"TMDB_API_KEY": "key", "RECOMMENDATION_MIN_LIKES": "3"},
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Recommendation.MinLikes != 3 {
					t.Errorf("Recommendation.MinLikes = %d, want 3", cfg.Recommendation.MinLikes)
				}
			},
		},
		{
			name:    "rejects unknown log level",
			env:     map[string]string{"TMDB_API_KEY": "key", "LOG_LEVEL": "loud"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"TMDB_API_KEY", "TMDB_BASE_URL", "RECOMMENDATION_TIMEOUT", "DB_PORT", "LOG_LEVEL", "RECOMMENDATION_MIN_LIKES"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Load() error = nil, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.verify(t, cfg)
		})
	}
}

func TestDBConfigDSN(t *testing.T) {
	d := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "movies", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=movies sslmode=disable"
	if got := d.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}

	d.SSLRootCert = "/certs/ca.pem"
	if got := d.DSN(); got != want+" sslrootcert=/certs/ca.pem" {
		t.Errorf("DSN() with root cert = %q", got)
	}
}
