package models

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dmitrijs2005/flixkeeper/internal/common"
)

// User is the identity record held in the session. FavoriteMovies has set
// semantics: no duplicates, order carries no meaning.
type User struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Birthday       string   `json:"birthday,omitempty"`
	FavoriteMovies []string `json:"favorite_movies"`

	// Password is write-only. It is never persisted and is cleared after a
	// successful write.
	Password string `json:"-"`
}

// Clone returns a deep copy so callers can edit without aliasing the
// favorite slice of a snapshot.
func (u User) Clone() User {
	c := u
	c.FavoriteMovies = slices.Clone(u.FavoriteMovies)
	if c.FavoriteMovies == nil {
		c.FavoriteMovies = []string{}
	}
	return c
}

// HasFavorite reports whether movieID is in the favorite set.
func (u User) HasFavorite(movieID string) bool {
	return slices.Contains(u.FavoriteMovies, movieID)
}

// WithFavorite returns a copy with movieID added to the favorite set.
func (u User) WithFavorite(movieID string) User {
	c := u.Clone()
	if !c.HasFavorite(movieID) {
		c.FavoriteMovies = append(c.FavoriteMovies, movieID)
	}
	return c
}

// WithoutFavorite returns a copy with movieID removed from the favorite set.
func (u User) WithoutFavorite(movieID string) User {
	c := u.Clone()
	c.FavoriteMovies = slices.DeleteFunc(c.FavoriteMovies, func(id string) bool { return id == movieID })
	return c
}

// NormalizeFavorites drops duplicate and empty ids keeping first occurrence.
func (u User) NormalizeFavorites() User {
	c := u.Clone()
	seen := make(map[string]struct{}, len(c.FavoriteMovies))
	out := c.FavoriteMovies[:0]
	for _, id := range c.FavoriteMovies {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	c.FavoriteMovies = out
	return c
}

// UserUpdate is the partial-update payload sent to the remote service.
// A nil Password means the key is omitted from the request.
type UserUpdate struct {
	Username       string
	Email          string
	Birthday       string
	FavoriteMovies []string
	Password       *string
}

// Registration holds the fields required to create an account.
type Registration struct {
	Username string
	Password string
	Email    string
	Birthday string
}

// Validate checks the required registration fields.
func (r Registration) Validate() error {
	switch {
	case strings.TrimSpace(r.Username) == "":
		return fmt.Errorf("%w: username is required", common.ErrValidation)
	case r.Password == "":
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	case strings.TrimSpace(r.Email) == "":
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	case !strings.Contains(r.Email, "@"):
		return fmt.Errorf("%w: email is malformed", common.ErrValidation)
	}
	return nil
}
