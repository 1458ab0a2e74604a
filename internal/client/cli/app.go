package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/flixkeeper/internal/client/catalog"
	"github.com/dmitrijs2005/flixkeeper/internal/client/client"
	"github.com/dmitrijs2005/flixkeeper/internal/client/config"
	"github.com/dmitrijs2005/flixkeeper/internal/client/favorites"
	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
	"github.com/dmitrijs2005/flixkeeper/internal/client/profile"
	"github.com/dmitrijs2005/flixkeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/flixkeeper/internal/client/result"
	"github.com/dmitrijs2005/flixkeeper/internal/client/services"
	"github.com/dmitrijs2005/flixkeeper/internal/client/session"
	"github.com/dmitrijs2005/flixkeeper/internal/filex"
	"github.com/dmitrijs2005/flixkeeper/internal/logging"
)

// Lookup is the part of the service client used for detail views.
type Lookup interface {
	GetMovie(ctx context.Context, title string) (*models.Movie, error)
	GetDirector(ctx context.Context, name string) (*models.Director, error)
	GetGenre(ctx context.Context, name string) (*models.Genre, error)
}

type App struct {
	config    *config.Config
	auth      services.AuthService
	lookup    Lookup
	catalog   *catalog.Cache
	favorites *favorites.Reconciler
	editor    *profile.Editor
	log       logging.Logger
	reader    *bufio.Reader
	out       io.Writer
	db        *sql.DB
}

// NewApp opens the session database and builds every component on top of
// it. Close releases the database.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if err := filex.EnsureParentDir(c.DatabasePath); err != nil {
		return nil, err
	}
	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	sessions := session.NewStore(kv.NewStore(db), log)

	api, err := client.NewHTTPClient(c.APIBaseURL, c.RequestTimeout, sessions.Credential, log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := newApp(c, api, sessions, log, bufio.NewReader(os.Stdin), os.Stdout)
	a.db = db
	return a, nil
}

// newApp assembles an App from an already built client and session store.
func newApp(c *config.Config, api client.Client, sessions *session.Store, log logging.Logger, reader *bufio.Reader, out io.Writer) *App {
	if log == nil {
		log = logging.Nop()
	}
	sink := outcomeLogger(log)
	return &App{
		config:    c,
		auth:      services.NewAuthService(api, sessions, log),
		lookup:    api,
		catalog:   catalog.New(api, log),
		favorites: favorites.New(api, sessions, sink, log),
		editor:    profile.NewEditor(api, sessions, sink, log),
		log:       log,
		reader:    reader,
		out:       out,
	}
}

// outcomeLogger records every terminal outcome; the REPL prints them itself.
func outcomeLogger(log logging.Logger) result.Sink {
	return result.SinkFunc(func(ctx context.Context, op string, o result.Outcome) {
		if o.OK() {
			log.Info(ctx, "operation succeeded", "op", op, "message", o.Message)
			return
		}
		log.Info(ctx, "operation failed", "op", op, "message", o.Message, "error", o.Err)
	})
}

// Run starts the REPL and blocks until the user exits, then waits for
// in-flight reconciliations so their results are persisted.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

func (a *App) Close() {
	a.favorites.Wait()
	a.editor.Wait()
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(context.Background(), "closing database", "error", err)
		}
	}
}

func (a *App) isLoggedIn() bool {
	_, ok := a.auth.CurrentUser(context.Background())
	return ok
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

// StartCatalogRefresher refetches the movie list every interval while a
// session exists. A zero interval disables it. It returns when ctx ends.
func (a *App) StartCatalogRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if !a.isLoggedIn() {
				continue
			}
			if err := a.catalog.Refresh(ctx); err != nil {
				a.log.Warn(ctx, "background catalog refresh failed", "error", err)
			}

		case <-ctx.Done():
			return
		}
	}
}
