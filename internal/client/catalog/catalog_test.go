package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu     sync.Mutex
	movies []models.Movie
	err    error
	calls  atomic.Int32
	gate   chan struct{}
}

func (f *fakeSource) ListMovies(ctx context.Context) ([]models.Movie, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]models.Movie(nil), f.movies...), nil
}

func (f *fakeSource) set(movies []models.Movie, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movies, f.err = movies, err
}

func movies(ids ...string) []models.Movie {
	out := make([]models.Movie, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Movie{ID: id, Title: "title " + id})
	}
	return out
}

func ids(ms []models.Movie) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.ID)
	}
	return out
}

func TestRefresh_ReplacesWholesale(t *testing.T) {
	src := &fakeSource{movies: movies("m1", "m2", "m3")}
	c := New(src, nil)
	ctx := context.Background()

	require.True(t, c.RefreshedAt().IsZero())
	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(c.Movies()))
	assert.False(t, c.RefreshedAt().IsZero())

	src.set(movies("m4"), nil)
	require.NoError(t, c.Refresh(ctx))
	assert.Equal(t, []string{"m4"}, ids(c.Movies()))
	_, ok := c.Lookup("m1")
	assert.False(t, ok)
}

func TestRefresh_FailureKeepsPreviousCache(t *testing.T) {
	src := &fakeSource{movies: movies("m1", "m2")}
	c := New(src, nil)
	ctx := context.Background()
	require.NoError(t, c.Refresh(ctx))
	before := c.RefreshedAt()

	boom := errors.New("network down")
	src.set(nil, boom)
	err := c.Refresh(ctx)
	require.ErrorIs(t, err, boom)

	assert.Equal(t, []string{"m1", "m2"}, ids(c.Movies()))
	assert.Equal(t, before, c.RefreshedAt())
}

func TestRefresh_DropsDuplicateAndEmptyIDs(t *testing.T) {
	src := &fakeSource{movies: append(movies("m1", "m2", "m1"), models.Movie{Title: "no id"})}
	c := New(src, nil)
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, []string{"m1", "m2"}, ids(c.Movies()))
	assert.Equal(t, 2, c.Len())
}

func TestRefresh_ConcurrentCallsShareOneFetch(t *testing.T) {
	src := &fakeSource{movies: movies("m1"), gate: make(chan struct{})}
	c := New(src, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Refresh(context.Background()))
		}()
	}

	require.Eventually(t, func() bool { return src.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, []string{"m1"}, ids(c.Movies()))
}

func TestMovies_ReturnsCopy(t *testing.T) {
	c := New(&fakeSource{movies: movies("m1")}, nil)
	require.NoError(t, c.Refresh(context.Background()))

	got := c.Movies()
	got[0].Title = "changed"

	m, ok := c.Lookup("m1")
	require.True(t, ok)
	assert.Equal(t, "title m1", m.Title)
}

func TestIsFavorite(t *testing.T) {
	u := &models.User{Username: "al", FavoriteMovies: []string{"m1", "m2"}}

	assert.True(t, IsFavorite(u, "m1"))
	assert.False(t, IsFavorite(u, "m3"))
	assert.False(t, IsFavorite(nil, "m1"))
}

func TestFavoritesOf_CatalogOrder(t *testing.T) {
	c := New(&fakeSource{movies: movies("m1", "m2", "m3", "m4")}, nil)
	require.NoError(t, c.Refresh(context.Background()))

	u := models.User{Username: "al", FavoriteMovies: []string{"m4", "gone", "m2"}}
	assert.Equal(t, []string{"m2", "m4"}, ids(c.FavoritesOf(u)))
	assert.Equal(t, []string{"gone"}, c.StaleFavorites(u))

	assert.Empty(t, c.FavoritesOf(models.User{Username: "bob"}))
	assert.Empty(t, c.StaleFavorites(models.User{Username: "bob"}))
}
