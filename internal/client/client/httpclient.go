package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
	"github.com/dmitrijs2005/flixkeeper/internal/common"
	"github.com/dmitrijs2005/flixkeeper/internal/logging"
	"github.com/google/uuid"
)

// maxBodySize caps how much of a response is read.
const maxBodySize = 8 << 20

// callKind selects how non-2xx statuses are classified.
type callKind int

const (
	callAuthenticated callKind = iota
	callLogin
	callRegister
)

// HTTPClient implements Client over the service's JSON/HTTP API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	log        logging.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client for the service rooted at baseURL. Timeouts
// are the transport's concern: a zero timeout means none. tokens may be nil
// until a session exists.
func NewHTTPClient(baseURL string, timeout time.Duration, tokens TokenSource, log logging.Logger) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	if log == nil {
		log = logging.Nop()
	}
	return &HTTPClient{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
		log:        log.With("component", "client"),
	}, nil
}

// SetTokenSource replaces the credential provider used by authenticated calls.
func (c *HTTPClient) SetTokenSource(tokens TokenSource) {
	c.tokens = tokens
}

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*models.User, models.Credential, error) {
	body, err := c.do(ctx, http.MethodPost, "login", callLogin, wireCredentials{Username: username, Password: password})
	if err != nil {
		return nil, "", err
	}
	user, token, err := decodeLogin(body)
	if err != nil {
		return nil, "", &common.TransportError{Message: "unexpected login response", Err: err}
	}
	return &user, token, nil
}

func (c *HTTPClient) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	in := wireRegistration{Username: reg.Username, Password: reg.Password, Email: reg.Email, Birthday: reg.Birthday}
	return c.userCall(ctx, http.MethodPost, "users", callRegister, in)
}

func (c *HTTPClient) ListMovies(ctx context.Context) ([]models.Movie, error) {
	var out []wireMovie
	if err := c.doJSON(ctx, http.MethodGet, "movies", callAuthenticated, nil, &out); err != nil {
		return nil, err
	}
	movies := make([]models.Movie, 0, len(out))
	for _, m := range out {
		movies = append(movies, m.toModel())
	}
	return movies, nil
}

func (c *HTTPClient) GetMovie(ctx context.Context, title string) (*models.Movie, error) {
	var out wireMovie
	if err := c.doJSON(ctx, http.MethodGet, "movies/"+url.PathEscape(title), callAuthenticated, nil, &out); err != nil {
		return nil, err
	}
	m := out.toModel()
	return &m, nil
}

func (c *HTTPClient) GetDirector(ctx context.Context, name string) (*models.Director, error) {
	var out wireDirector
	if err := c.doJSON(ctx, http.MethodGet, "movies/directors/"+url.PathEscape(name), callAuthenticated, nil, &out); err != nil {
		return nil, err
	}
	d := out.toModel()
	return &d, nil
}

func (c *HTTPClient) GetGenre(ctx context.Context, name string) (*models.Genre, error) {
	var out wireGenre
	if err := c.doJSON(ctx, http.MethodGet, "movies/genre/"+url.PathEscape(name), callAuthenticated, nil, &out); err != nil {
		return nil, err
	}
	g := out.toModel()
	return &g, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, username string) (*models.User, error) {
	return c.userCall(ctx, http.MethodGet, userPath(username), callAuthenticated, nil)
}

func (c *HTTPClient) AddFavorite(ctx context.Context, username, movieID string) (*models.User, error) {
	return c.userCall(ctx, http.MethodPost, favoritePath(username, movieID), callAuthenticated, nil)
}

func (c *HTTPClient) RemoveFavorite(ctx context.Context, username, movieID string) (*models.User, error) {
	return c.userCall(ctx, http.MethodDelete, favoritePath(username, movieID), callAuthenticated, nil)
}

func (c *HTTPClient) UpdateUser(ctx context.Context, username string, upd models.UserUpdate) (*models.User, error) {
	return c.userCall(ctx, http.MethodPut, userPath(username), callAuthenticated, newWireUserUpdate(upd))
}

// DeleteUser returns the confirmation text sent by the service.
func (c *HTTPClient) DeleteUser(ctx context.Context, username string) (string, error) {
	body, err := c.do(ctx, http.MethodDelete, userPath(username), callAuthenticated, nil)
	if err != nil {
		return "", err
	}
	return errorMessage(body), nil
}

func userPath(username string) string {
	return "users/" + url.PathEscape(username)
}

func favoritePath(username, movieID string) string {
	return userPath(username) + "/movies/" + url.PathEscape(movieID)
}

func (c *HTTPClient) userCall(ctx context.Context, method, path string, kind callKind, in any) (*models.User, error) {
	var out wireUser
	if err := c.doJSON(ctx, method, path, kind, in, &out); err != nil {
		return nil, err
	}
	if out.Username == "" {
		return nil, &common.TransportError{
			Message: "unexpected user response",
			Err:     fmt.Errorf("%w: user has no username", ErrMalformedResponse),
		}
	}
	u := out.toModel()
	return &u, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, kind callKind, in, out any) error {
	body, err := c.do(ctx, method, path, kind, in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &common.TransportError{
			Message: "unexpected response from server",
			Err:     fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err),
		}
	}
	return nil
}

// do is the single request/response primitive: it sends in as JSON, attaches
// the bearer token for authenticated calls and returns the raw 2xx body or a
// classified error.
func (c *HTTPClient) do(ctx context.Context, method, path string, kind callKind, in any) ([]byte, error) {
	var reqBody io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set(common.RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if kind == callAuthenticated && c.tokens != nil {
		if token := c.tokens(ctx); token != "" {
			req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+string(token))
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn(ctx, "request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, &common.TransportError{
			Message: "server unavailable, please try again later",
			Err:     fmt.Errorf("%w: %v", ErrUnavailable, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &common.TransportError{
			StatusCode: resp.StatusCode,
			Message:    "could not read server response",
			Err:        fmt.Errorf("%w: %v", ErrUnavailable, err),
		}
	}

	c.log.Debug(ctx, "request done",
		"method", method, "path", path, "status", resp.StatusCode,
		"request_id", requestID, "elapsed", time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}
	return nil, c.mapError(resp.StatusCode, kind, body)
}

// mapError converts a non-2xx response into the error taxonomy. The returned
// value is always a *common.TransportError so the server message survives.
func (c *HTTPClient) mapError(status int, kind callKind, body []byte) error {
	msg := errorMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = "something bad happened, please try again later"
	}

	var cause error
	switch {
	case kind == callLogin && status >= 400 && status < 500:
		cause = common.ErrAuth
	case kind == callRegister && (status == http.StatusBadRequest || status == http.StatusConflict || status == http.StatusUnprocessableEntity):
		cause = common.ErrValidation
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		cause = common.ErrAuthorization
	case status == http.StatusNotFound:
		cause = common.ErrNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		cause = common.ErrValidation
	case status >= 500:
		cause = ErrUnavailable
	default:
		cause = errors.New(strings.ToLower(http.StatusText(status)))
	}

	return &common.TransportError{StatusCode: status, Message: msg, Err: cause}
}
