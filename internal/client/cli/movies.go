package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/flixkeeper/internal/client/catalog"
	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
	"github.com/dmitrijs2005/flixkeeper/internal/common"
)

// loadCatalog refreshes the movie list, reporting but tolerating failure.
func (a *App) loadCatalog(ctx context.Context) {
	if err := a.catalog.Refresh(ctx); err != nil {
		a.printf("Could not load movies: %s\n", common.Message(err))
	}
}

func (a *App) Refresh(ctx context.Context) error {
	if err := a.catalog.Refresh(ctx); err != nil {
		a.reportError(err)
		return err
	}
	if _, err := a.auth.RefreshUser(ctx); err != nil {
		a.reportError(err)
		return err
	}
	a.printf("Loaded %d movies.\n", a.catalog.Len())
	return nil
}

// Movies lists the catalog, marking favorites with an asterisk.
func (a *App) Movies(ctx context.Context) error {
	if a.catalog.RefreshedAt().IsZero() {
		if err := a.catalog.Refresh(ctx); err != nil {
			a.reportError(err)
			return err
		}
	}

	var user *models.User
	if u, ok := a.auth.CurrentUser(ctx); ok {
		user = &u
	}

	movies := a.catalog.Movies()
	if len(movies) == 0 {
		a.printf("No movies.\n")
		return nil
	}
	for _, m := range movies {
		a.printMovieLine(m, catalog.IsFavorite(user, m.ID))
	}
	return nil
}

func (a *App) Favorites(ctx context.Context) error {
	u, ok := a.auth.CurrentUser(ctx)
	if !ok {
		return common.ErrNoSession
	}

	favs := a.catalog.FavoritesOf(u)
	if len(favs) == 0 {
		a.printf("No favorites yet.\n")
	}
	for _, m := range favs {
		a.printMovieLine(m, true)
	}
	if stale := a.catalog.StaleFavorites(u); len(stale) > 0 {
		a.printf("Not in the current catalog: %s\n", strings.Join(stale, ", "))
	}
	return nil
}

// ToggleFavorite flips the favorite flag of the movie named by ref, which is
// an id or a title from the catalog, and waits for the outcome.
func (a *App) ToggleFavorite(ctx context.Context, ref string) error {
	id, label := a.resolveMovie(ref)

	o, err := a.favorites.Toggle(ctx, id).Wait(ctx)
	if err != nil {
		return err
	}
	if !o.OK() {
		a.reportError(o.Err)
		return o.Err
	}
	a.printf("%s: %s\n", label, o.Message)
	return nil
}

func (a *App) resolveMovie(ref string) (id, label string) {
	if m, ok := a.catalog.Lookup(ref); ok {
		return m.ID, m.Title
	}
	for _, m := range a.catalog.Movies() {
		if strings.EqualFold(m.Title, ref) {
			return m.ID, m.Title
		}
	}
	return ref, ref
}

func (a *App) Movie(ctx context.Context, title string) error {
	m, err := a.lookup.GetMovie(ctx, title)
	if err != nil {
		a.lookupFailed(title, err)
		return err
	}

	var user *models.User
	if u, ok := a.auth.CurrentUser(ctx); ok {
		user = &u
	}
	a.printMovieLine(*m, catalog.IsFavorite(user, m.ID))
	if m.Description != "" {
		a.printf("  %s\n", m.Description)
	}
	a.printf("  Director: %s\n  Genre: %s\n", m.Director.Name, m.Genre.Name)
	return nil
}

func (a *App) Director(ctx context.Context, name string) error {
	d, err := a.lookup.GetDirector(ctx, name)
	if err != nil {
		a.lookupFailed(name, err)
		return err
	}
	a.printf("%s\n", d.Name)
	if d.Birth != "" {
		life := d.Birth
		if d.Death != "" {
			life += " - " + d.Death
		}
		a.printf("  %s\n", life)
	}
	if d.Bio != "" {
		a.printf("  %s\n", d.Bio)
	}
	return nil
}

func (a *App) Genre(ctx context.Context, name string) error {
	g, err := a.lookup.GetGenre(ctx, name)
	if err != nil {
		a.lookupFailed(name, err)
		return err
	}
	a.printf("%s\n", g.Name)
	if g.Description != "" {
		a.printf("  %s\n", g.Description)
	}
	return nil
}

func (a *App) lookupFailed(what string, err error) {
	if errors.Is(err, common.ErrNotFound) {
		a.printf("%s: not found\n", what)
		return
	}
	a.reportError(err)
}

func (a *App) printMovieLine(m models.Movie, favorite bool) {
	mark := " "
	if favorite {
		mark = "*"
	}
	a.printf("%s %-6s %s (%s, %s)\n", mark, m.ID, m.Title, m.Director.Name, m.Genre.Name)
}
