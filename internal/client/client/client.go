package client

import (
	"context"

	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
)

// Client is the contract of the remote movie-catalog service. Every method
// returns payloads already normalised into the models package; callers never
// see wire shapes.
type Client interface {
	Login(ctx context.Context, username, password string) (*models.User, models.Credential, error)
	Register(ctx context.Context, reg models.Registration) (*models.User, error)

	ListMovies(ctx context.Context) ([]models.Movie, error)
	GetMovie(ctx context.Context, title string) (*models.Movie, error)
	GetDirector(ctx context.Context, name string) (*models.Director, error)
	GetGenre(ctx context.Context, name string) (*models.Genre, error)

	GetUser(ctx context.Context, username string) (*models.User, error)
	AddFavorite(ctx context.Context, username, movieID string) (*models.User, error)
	RemoveFavorite(ctx context.Context, username, movieID string) (*models.User, error)
	UpdateUser(ctx context.Context, username string, upd models.UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, username string) (string, error)
}

// TokenSource yields the bearer credential for authenticated calls.
type TokenSource func(ctx context.Context) models.Credential
