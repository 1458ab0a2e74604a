package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	u, ok := a.auth.CurrentUser(context.Background())
	if !ok {
		return ""
	}
	return fmt.Sprintf("(%s)", u.Username)
}

// Root resumes the saved session if there is one, otherwise asks for
// credentials, then serves commands until exit.
func (a *App) Root(ctx context.Context) {
	a.printf("Welcome to flixkeeper (type 'help' for commands)\n")

	if u, ok := a.auth.CurrentUser(ctx); ok {
		a.printf("Resuming session for %s\n", u.Username)
		a.loadCatalog(ctx)
	} else {
		_ = a.Login(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartCatalogRefresher(ctx, a.config.CatalogRefreshInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}
