package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
)

// wireUser is the user document as the service sends it.
type wireUser struct {
	ID             string   `json:"_id"`
	Username       string   `json:"Username"`
	Email          string   `json:"Email"`
	Birthday       string   `json:"Birthday,omitempty"`
	FavoriteMovies []string `json:"FavoriteMovies"`
}

func (w wireUser) toModel() models.User {
	u := models.User{
		ID:             w.ID,
		Username:       w.Username,
		Email:          w.Email,
		Birthday:       normalizeDate(w.Birthday),
		FavoriteMovies: w.FavoriteMovies,
	}
	return u.NormalizeFavorites()
}

type wireDirector struct {
	Name  string `json:"Name"`
	Bio   string `json:"Bio,omitempty"`
	Birth string `json:"Birth,omitempty"`
	Death string `json:"Death,omitempty"`
}

func (w wireDirector) toModel() models.Director {
	return models.Director{Name: w.Name, Bio: w.Bio, Birth: normalizeDate(w.Birth), Death: normalizeDate(w.Death)}
}

type wireGenre struct {
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
}

func (w wireGenre) toModel() models.Genre {
	return models.Genre{Name: w.Name, Description: w.Description}
}

type wireMovie struct {
	ID          string       `json:"_id"`
	Title       string       `json:"Title"`
	Description string       `json:"Description"`
	Director    wireDirector `json:"Director"`
	Genre       wireGenre    `json:"Genre"`
	ImagePath   string       `json:"ImagePath"`
	ImageURL    string       `json:"ImageURL,omitempty"`
	Featured    bool         `json:"Featured,omitempty"`
}

func (w wireMovie) toModel() models.Movie {
	img := w.ImagePath
	if img == "" {
		img = w.ImageURL
	}
	return models.Movie{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Director:    w.Director.toModel(),
		Genre:       w.Genre.toModel(),
		ImagePath:   img,
		Featured:    w.Featured,
	}
}

type wireCredentials struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
}

type wireRegistration struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
	Email    string `json:"Email"`
	Birthday string `json:"Birthday,omitempty"`
}

// wireUserUpdate omits Password entirely when it is nil so a blank value can
// never overwrite the stored one. Birthday is always sent: "" clears it.
type wireUserUpdate struct {
	Username       string   `json:"Username"`
	Email          string   `json:"Email"`
	Birthday       string   `json:"Birthday"`
	FavoriteMovies []string `json:"FavoriteMovies"`
	Password       *string  `json:"Password,omitempty"`
}

func newWireUserUpdate(upd models.UserUpdate) wireUserUpdate {
	favs := upd.FavoriteMovies
	if favs == nil {
		favs = []string{}
	}
	return wireUserUpdate{
		Username:       upd.Username,
		Email:          upd.Email,
		Birthday:       upd.Birthday,
		FavoriteMovies: favs,
		Password:       upd.Password,
	}
}

// decodeLogin accepts both casings the service has used for the login
// response ("user"/"User", "token"/"Token") and returns one canonical shape.
func decodeLogin(body []byte) (models.User, models.Credential, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return models.User{}, "", fmt.Errorf("%w: login: %v", ErrMalformedResponse, err)
	}

	userRaw := firstKey(raw, "user", "User")
	tokenRaw := firstKey(raw, "token", "Token")
	if userRaw == nil || tokenRaw == nil {
		return models.User{}, "", fmt.Errorf("%w: login: user or token missing", ErrMalformedResponse)
	}

	var wu wireUser
	if err := json.Unmarshal(userRaw, &wu); err != nil {
		return models.User{}, "", fmt.Errorf("%w: login user: %v", ErrMalformedResponse, err)
	}
	var token string
	if err := json.Unmarshal(tokenRaw, &token); err != nil || token == "" {
		return models.User{}, "", fmt.Errorf("%w: login token", ErrMalformedResponse)
	}
	if wu.Username == "" {
		return models.User{}, "", fmt.Errorf("%w: login user has no username", ErrMalformedResponse)
	}

	return wu.toModel(), models.Credential(token), nil
}

func firstKey(raw map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		if v, ok := raw[k]; ok && len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return nil
}

// errorMessage extracts a human-readable message from an error body. The
// service answers with {"message": ...}, {"error": ...}, a validator list
// {"errors": [{"msg": ...}]} or plain text.
func errorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Errors  []struct {
			Msg string `json:"msg"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &obj); err == nil {
		switch {
		case obj.Message != "":
			return obj.Message
		case obj.Error != "":
			return obj.Error
		case len(obj.Errors) > 0:
			msgs := make([]string, 0, len(obj.Errors))
			for _, e := range obj.Errors {
				if e.Msg != "" {
					msgs = append(msgs, e.Msg)
				}
			}
			return strings.Join(msgs, "; ")
		}
		return ""
	}

	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return s
	}
	return string(body)
}

// normalizeDate reduces RFC 3339 timestamps to a calendar date. Anything
// else is passed through unchanged.
func normalizeDate(s string) string {
	if s == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.DateOnly)
		}
	}
	return s
}
