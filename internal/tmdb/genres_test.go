package tmdb

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"movie-recommendation-service/internal/models"
)

type genreLoader struct {
	mu     sync.Mutex
	calls  int
	err    error
	genres []models.Genre
	// block, when set, holds every load until it is closed.
	block chan struct{}
}

func (l *genreLoader) load(context.Context) ([]models.Genre, error) {
	l.mu.Lock()
	l.calls++
	block, err, genres := l.block, l.err, l.genres
	l.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return genres, nil
}

func (l *genreLoader) set(genres []models.Genre, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.genres, l.err = genres, err
}

func (l *genreLoader) setBlock(ch chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.block = ch
}

func (l *genreLoader) loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClockedCache(ttl time.Duration, loader *genreLoader) (*GenreCache, *testClock) {
	clock := &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	cache := NewGenreCache(ttl, loader.load)
	cache.now = clock.Now
	return cache, clock
}

// eventually polls cond until it holds or a second has passed.
func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestGenreCache_TTL(t *testing.T) {
	loader := &genreLoader{genres: []models.Genre{{TMDBID: 28, Name: "Action"}, {TMDBID: 35, Name: "Comedy"}}}
	cache, clock := newClockedCache(time.Hour, loader)

	ctx := context.Background()
	for range 3 {
		if _, err := cache.All(ctx); err != nil {
			t.Fatalf("All() error = %v", err)
		}
	}
	if got := loader.loads(); got != 1 {
		t.Errorf("loads = %d, want 1", got)
	}

	clock.Advance(2 * time.Hour)
	loader.set([]models.Genre{{TMDBID: 18, Name: "Drama"}}, nil)
	genres, err := cache.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(genres) != 2 {
		t.Errorf("All() after expiry = %v, want the stale list", genres)
	}
	eventually(t, "background refresh", func() bool {
		genres, _ := cache.All(ctx)
		return len(genres) == 1 && genres[0].Name == "Drama"
	})
	if got := loader.loads(); got != 2 {
		t.Errorf("loads after expiry = %d, want 2", got)
	}

	cache.Invalidate()
	if _, err := cache.All(ctx); err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if got := loader.loads(); got != 3 {
		t.Errorf("loads after Invalidate = %d, want 3", got)
	}
}

func TestGenreCache_Names(t *testing.T) {
	loader := &genreLoader{genres: []models.Genre{{TMDBID: 28, Name: "Action"}, {TMDBID: 35, Name: "Comedy"}}}
	cache := NewGenreCache(0, loader.load)

	names, err := cache.Names(context.Background(), []int{35, 999, 28})
	if err != nil {
		t.Fatalf("Names() error = %v", err)
	}
	if !slices.Equal(names, []string{"Comedy", "Action"}) {
		t.Errorf("Names() = %v, want [Comedy Action]", names)
	}
}

func TestGenreCache_LoadFailure(t *testing.T) {
	boom := errors.New("tmdb down")
	loader := &genreLoader{err: boom}
	cache, clock := newClockedCache(time.Minute, loader)
	ctx := context.Background()

	if _, err := cache.All(ctx); !errors.Is(err, boom) {
		t.Fatalf("All() error = %v, want %v", err, boom)
	}

	loader.set([]models.Genre{{TMDBID: 18, Name: "Drama"}}, nil)
	if _, err := cache.All(ctx); err != nil {
		t.Fatalf("All() error = %v", err)
	}

	// Expired and failing: the stale list is still served.
	loader.set(nil, boom)
	clock.Advance(time.Hour)
	genres, err := cache.All(ctx)
	if err != nil {
		t.Fatalf("All() with stale list error = %v", err)
	}
	if len(genres) != 1 || genres[0].Name != "Drama" {
		t.Errorf("All() = %v, want stale [Drama]", genres)
	}
	eventually(t, "failed refresh", func() bool { return loader.loads() == 3 })

	genres, err = cache.All(ctx)
	if err != nil || len(genres) != 1 {
		t.Errorf("All() after failed refresh = %v, %v; want stale [Drama]", genres, err)
	}
}

func TestGenreCache_NamesDoNotWaitForRefresh(t *testing.T) {
	loader := &genreLoader{genres: []models.Genre{{TMDBID: 28, Name: "Action"}}}
	cache, clock := newClockedCache(time.Hour, loader)
	ctx := context.Background()

	if _, err := cache.All(ctx); err != nil {
		t.Fatalf("All() error = %v", err)
	}

	release := make(chan struct{})
	defer close(release)
	loader.setBlock(release)
	clock.Advance(2 * time.Hour)

	for range 5 {
		done := make(chan struct{})
		var names []string
		var err error
		go func() {
			names, err = cache.Names(ctx, []int{28})
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			t.Fatal("Names() blocked on a genre refresh while a stale list was cached")
		}
		if err != nil || !slices.Equal(names, []string{"Action"}) {
			t.Fatalf("Names() = %v, %v; want [Action]", names, err)
		}
	}

	// Every stale read joins the single refresh in flight.
	eventually(t, "one background refresh", func() bool { return loader.loads() == 2 })
	time.Sleep(20 * time.Millisecond)
	if got := loader.loads(); got != 2 {
		t.Errorf("loads = %d, want 2", got)
	}
}

func TestGenreCache_Concurrent(t *testing.T) {
	loader := &genreLoader{genres: []models.Genre{{TMDBID: 28, Name: "Action"}}}
	cache := NewGenreCache(time.Hour, loader.load)

	var wg sync.WaitGroup
	for range 20 {
		wg.Go(func() {
			if _, err := cache.Names(context.Background(), []int{28}); err != nil {
				t.Errorf("Names() error = %v", err)
			}
		})
	}
	wg.Wait()
	if got := loader.loads(); got < 1 {
		t.Errorf("loads = %d, want at least 1", got)
	}
	names, _ := cache.Names(context.Background(), []int{28})
	if !slices.Equal(names, []string{"Action"}) {
		t.Errorf("Names() = %v, want [Action]", names)
	}
}
