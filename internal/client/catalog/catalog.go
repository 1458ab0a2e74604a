// Package catalog holds the last-fetched movie list and answers favorite
// membership queries against a User. It never mutates a Movie.
package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
	"github.com/dmitrijs2005/flixkeeper/internal/logging"
	"golang.org/x/sync/singleflight"
)

// Source fetches the full movie list from the remote service.
type Source interface {
	ListMovies(ctx context.Context) ([]models.Movie, error)
}

// Cache is safe for concurrent use. Concurrent Refresh calls share a single
// remote fetch.
type Cache struct {
	source Source
	log    logging.Logger
	group  singleflight.Group

	mu          sync.RWMutex
	movies      []models.Movie
	index       map[string]int
	refreshedAt time.Time
}

func New(source Source, log logging.Logger) *Cache {
	if log == nil {
		log = logging.Nop()
	}
	return &Cache{
		source: source,
		log:    log.With("component", "catalog"),
		index:  map[string]int{},
	}
}

// Refresh replaces the cache wholesale with the remote list. On failure the
// previous contents are kept and the error is returned.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err, shared := c.group.Do("movies", func() (any, error) {
		movies, err := c.source.ListMovies(ctx)
		if err != nil {
			return nil, err
		}
		c.replace(movies)
		return nil, nil
	})
	if err != nil {
		c.log.Warn(ctx, "catalog refresh failed, keeping previous list", "error", err)
		return fmt.Errorf("refresh catalog: %w", err)
	}
	c.log.Debug(ctx, "catalog refreshed", "movies", c.Len(), "shared", shared)
	return nil
}

func (c *Cache) replace(movies []models.Movie) {
	index := make(map[string]int, len(movies))
	kept := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if _, dup := index[m.ID]; dup || m.ID == "" {
			continue
		}
		index[m.ID] = len(kept)
		kept = append(kept, m)
	}

	c.mu.Lock()
	c.movies = kept
	c.index = index
	c.refreshedAt = time.Now()
	c.mu.Unlock()
}

// Movies returns the cached list in catalog order.
func (c *Cache) Movies() []models.Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Movie, len(c.movies))
	copy(out, c.movies)
	return out
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.movies)
}

// RefreshedAt is the time of the last successful refresh, zero if none.
func (c *Cache) RefreshedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refreshedAt
}

// Lookup finds a cached movie by id.
func (c *Cache) Lookup(movieID string) (models.Movie, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[movieID]
	if !ok {
		return models.Movie{}, false
	}
	return c.movies[i], true
}

// IsFavorite reports whether movieID is in the user's favorite set. A nil
// user (no session) has no favorites.
func IsFavorite(user *models.User, movieID string) bool {
	if user == nil {
		return false
	}
	return user.HasFavorite(movieID)
}

// FavoritesOf returns the cached movies the user has marked, in catalog
// order.
func (c *Cache) FavoritesOf(user models.User) []models.Movie {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := []models.Movie{}
	for _, m := range c.movies {
		if user.HasFavorite(m.ID) {
			out = append(out, m)
		}
	}
	return out
}

// StaleFavorites returns favorite ids the cached catalog does not know. They
// are expected to disappear after the next refresh or server-side cleanup.
func (c *Cache) StaleFavorites(user models.User) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var stale []string
	for _, id := range user.FavoriteMovies {
		if _, ok := c.index[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale
}
