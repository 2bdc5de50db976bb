package tmdb

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"movie-recommendation-service/internal/metrics"
	"movie-recommendation-service/internal/models"
)

const genreRefreshTimeout = 30 * time.Second

// GenreCache holds the TMDB genre list in memory and refreshes it once the TTL
// has passed. Only the first load blocks callers; after that an expired list
// keeps being served while one background refresh runs. It is safe for
// concurrent use.
type GenreCache struct {
	ttl  time.Duration
	load func(ctx context.Context) ([]models.Genre, error)
	now  func() time.Time

	group singleflight.Group

	mu        sync.RWMutex
	genres    []models.Genre
	names     map[int]string
	fetchedAt time.Time
}

// NewGenreCache creates a cache that fills itself with load. A ttl of zero or
// less keeps the first successful load forever.
func NewGenreCache(ttl time.Duration, load func(ctx context.Context) ([]models.Genre, error)) *GenreCache {
	return &GenreCache{
		ttl:  ttl,
		load: load,
		now:  time.Now,
	}
}

// All returns every known genre. The first call loads the list; later calls
// never wait on the network.
func (g *GenreCache) All(ctx context.Context) ([]models.Genre, error) {
	g.mu.RLock()
	genres, fresh := g.genres, g.fresh()
	g.mu.RUnlock()

	switch {
	case fresh:
		metrics.CacheHit("genres")
		return genres, nil
	case genres != nil:
		metrics.CacheStale("genres")
		g.refreshInBackground(ctx)
		return genres, nil
	}

	metrics.CacheMiss("genres")
	v, err, _ := g.group.Do("genres", func() (any, error) {
		return g.reload(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Genre), nil
}

// Names maps genre ids to their names, skipping ids it does not know.
func (g *GenreCache) Names(ctx context.Context, ids []int) ([]string, error) {
	if _, err := g.All(ctx); err != nil {
		return nil, err
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := g.names[id]; ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Invalidate drops the cached list so the next call reloads it.
func (g *GenreCache) Invalidate() {
	g.mu.Lock()
	g.genres = nil
	g.names = nil
	g.fetchedAt = time.Time{}
	g.mu.Unlock()
}

// refreshInBackground starts at most one refresh; callers sharing the key
// join the one already running. The refresh outlives the request that
// triggered it.
func (g *GenreCache) refreshInBackground(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	g.group.DoChan("genres", func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, genreRefreshTimeout)
		defer cancel()
		genres, err := g.reload(ctx)
		if err != nil {
			slog.Warn("genre refresh failed, serving stale list", "error", err)
		}
		return genres, err
	})
}

func (g *GenreCache) reload(ctx context.Context) ([]models.Genre, error) {
	genres, err := g.load(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[int]string, len(genres))
	for _, genre := range genres {
		names[genre.TMDBID] = genre.Name
	}
	g.mu.Lock()
	g.genres = genres
	g.names = names
	g.fetchedAt = g.now()
	g.mu.Unlock()
	return genres, nil
}

// fresh must be called with mu held.
func (g *GenreCache) fresh() bool {
	if g.genres == nil {
		return false
	}
	return g.ttl <= 0 || g.now().Sub(g.fetchedAt) < g.ttl
}
