// Package apitest runs an in-memory stand-in for the remote movie-catalog
// service on an httptest server. It speaks the same JSON shapes and routes
// as the real service, issues HS256 bearer tokens on login and lets tests
// inject failures and inspect the requests it received.
package apitest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Director, Genre and Movie use the service's wire keys.
type Director struct {
	Name  string `json:"Name"`
	Bio   string `json:"Bio,omitempty"`
	Birth string `json:"Birth,omitempty"`
	Death string `json:"Death,omitempty"`
}

type Genre struct {
	Name        string `json:"Name"`
	Description string `json:"Description,omitempty"`
}

type Movie struct {
	ID          string   `json:"_id"`
	Title       string   `json:"Title"`
	Description string   `json:"Description"`
	Director    Director `json:"Director"`
	Genre       Genre    `json:"Genre"`
	ImagePath   string   `json:"ImagePath"`
	Featured    bool     `json:"Featured,omitempty"`
}

// User is the stored account. The hash never leaves the server.
type User struct {
	ID             string   `json:"_id"`
	Username       string   `json:"Username"`
	Email          string   `json:"Email"`
	Birthday       string   `json:"Birthday,omitempty"`
	FavoriteMovies []string `json:"FavoriteMovies"`
	passwordHash   []byte
}

// Request is a recorded inbound call.
type Request struct {
	Method string
	Path   string
	Body   map[string]any
	Auth   string
}

type failure struct {
	status int
	body   string
}

// Server is the fake service. The zero value is not usable; call New.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	users       map[string]*User
	movies      []Movie
	secret      []byte
	upperLogin  bool
	failures    map[string][]failure
	requests    []Request
	tokenExpiry time.Duration
}

// Option tweaks the fake at construction.
type Option func(*Server)

// WithUpperCaseLogin answers /login with {"User":...,"Token":...}.
func WithUpperCaseLogin() Option {
	return func(s *Server) { s.upperLogin = true }
}

// WithTokenExpiry sets the lifetime of issued tokens.
func WithTokenExpiry(d time.Duration) Option {
	return func(s *Server) { s.tokenExpiry = d }
}

// New starts the fake with the given catalog. The caller must Close it.
func New(movies []Movie, opts ...Option) *Server {
	s := &Server{
		users:       make(map[string]*User),
		movies:      movies,
		secret:      []byte(uuid.NewString()),
		failures:    make(map[string][]failure),
		tokenExpiry: time.Hour,
	}
	for _, o := range opts {
		o(s)
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// DefaultMovies is a small catalog used across tests.
func DefaultMovies() []Movie {
	return []Movie{
		{ID: "m1", Title: "Alien", Description: "In space no one can hear you scream.",
			Director: Director{Name: "Ridley Scott", Birth: "1937-11-30"}, Genre: Genre{Name: "Horror"}, ImagePath: "alien.png"},
		{ID: "m2", Title: "Heat", Description: "A group of professional bank robbers.",
			Director: Director{Name: "Michael Mann"}, Genre: Genre{Name: "Crime", Description: "Crime films"}, ImagePath: "heat.png", Featured: true},
		{ID: "m3", Title: "Arrival", Description: "A linguist works with the military.",
			Director: Director{Name: "Denis Villeneuve"}, Genre: Genre{Name: "Sci-Fi"}, ImagePath: "arrival.png"},
		{ID: "m4", Title: "Jaws", Description: "A giant shark.",
			Director: Director{Name: "Steven Spielberg"}, Genre: Genre{Name: "Thriller"}, ImagePath: "jaws.png"},
	}
}

// AddUser seeds an account directly.
func (s *Server) AddUser(username, password, email string, favorites ...string) *User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	if favorites == nil {
		favorites = []string{}
	}
	u := &User{ID: uuid.NewString(), Username: username, Email: email, FavoriteMovies: favorites, passwordHash: hash}
	s.mu.Lock()
	s.users[username] = u
	s.mu.Unlock()
	return u
}

// User returns a copy of the stored account.
func (s *Server) User(username string) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return User{}, false
	}
	c := *u
	c.FavoriteMovies = append([]string{}, u.FavoriteMovies...)
	return c, true
}

// PasswordMatches reports whether password is the stored one for username.
func (s *Server) PasswordMatches(username, password string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	return ok && bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)) == nil
}

// Fail queues a canned error for the next request matching method and the
// exact request path, e.g. Fail("POST", "/users/al/movies/m3", 500, `{"message":"boom"}`).
func (s *Server) Fail(method, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := method + " " + path
	s.failures[k] = append(s.failures[k], failure{status: status, body: body})
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// CountRequests counts received requests with the given method whose path
// starts with prefix.
func (s *Server) CountRequests(method, prefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && strings.HasPrefix(r.Path, prefix) {
			n++
		}
	}
	return n
}

// IssueToken mints a bearer token for username.
func (s *Server) IssueToken(username string) string {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   username,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenExpiry)),
	})
	signed, err := t.SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Post("/login", s.login)
	r.Post("/users", s.register)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Get("/movies", s.listMovies)
		r.Get("/movies/directors/{name}", s.getDirector)
		r.Get("/movies/genre/{name}", s.getGenre)
		r.Get("/movies/{title}", s.getMovie)

		r.Route("/users/{username}", func(r chi.Router) {
			r.Use(s.requireOwner)
			r.Get("/", s.getUser)
			r.Put("/", s.updateUser)
			r.Delete("/", s.deleteUser)
			r.Post("/movies/{movieID}", s.addFavorite)
			r.Delete("/movies/{movieID}", s.removeFavorite)
		})
	})

	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if r.Body != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = r.Body.Close()
			if len(raw) > 0 {
				_ = json.Unmarshal(raw, &body)
			}
			r.Body = io.NopCloser(strings.NewReader(string(raw)))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Body:   body,
			Auth:   r.Header.Get("Authorization"),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		k := r.Method + " " + r.URL.EscapedPath()
		s.mu.Lock()
		queue := s.failures[k]
		var f *failure
		if len(queue) > 0 {
			f = &queue[0]
			s.failures[k] = queue[1:]
		}
		s.mu.Unlock()

		if f != nil {
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxKey string

const subjectKey ctxKey = "subject"

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		claims := &jwt.RegisteredClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		s.mu.Lock()
		_, exists := s.users[claims.Subject]
		s.mu.Unlock()
		if !exists {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithSubject(r, claims.Subject)))
	})
}

func contextWithSubject(r *http.Request, subject string) context.Context {
	return context.WithValue(r.Context(), subjectKey, subject)
}

func subjectFrom(r *http.Request) string {
	sub, _ := r.Context().Value(subjectKey).(string)
	return sub
}

func (s *Server) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if subjectFrom(r) != chi.URLParam(r, "username") {
			writeMessage(w, http.StatusForbidden, "Permission denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"Username"`
		Password string `json:"Password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Something is not right")
		return
	}
	if !s.PasswordMatches(in.Username, in.Password) {
		writeMessage(w, http.StatusBadRequest, "Incorrect username or password.")
		return
	}
	u, _ := s.User(in.Username)
	token := s.IssueToken(in.Username)
	if s.upperLogin {
		writeJSON(w, http.StatusOK, map[string]any{"User": u, "Token": token})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u, "token": token})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"Username"`
		Password string `json:"Password"`
		Email    string `json:"Email"`
		Birthday string `json:"Birthday"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	var problems []map[string]string
	if len(in.Username) < 2 {
		problems = append(problems, map[string]string{"msg": "Username is required"})
	}
	if in.Password == "" {
		problems = append(problems, map[string]string{"msg": "Password is required"})
	}
	if !strings.Contains(in.Email, "@") {
		problems = append(problems, map[string]string{"msg": "Email does not appear to be valid"})
	}
	if len(problems) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": problems})
		return
	}
	if _, exists := s.User(in.Username); exists {
		writeMessage(w, http.StatusBadRequest, in.Username+" already exists")
		return
	}
	u := s.AddUser(in.Username, in.Password, in.Email)
	s.mu.Lock()
	u.Birthday = in.Birthday
	s.mu.Unlock()
	created, _ := s.User(in.Username)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) listMovies(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := append([]Movie{}, s.movies...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) findMovie(match func(Movie) bool) (Movie, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.movies {
		if match(m) {
			return m, true
		}
	}
	return Movie{}, false
}

func (s *Server) getMovie(w http.ResponseWriter, r *http.Request) {
	title := chi.URLParam(r, "title")
	m, ok := s.findMovie(func(m Movie) bool { return m.Title == title })
	if !ok {
		writeMessage(w, http.StatusNotFound, "Movie not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) getDirector(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	m, ok := s.findMovie(func(m Movie) bool { return m.Director.Name == name })
	if !ok {
		writeMessage(w, http.StatusNotFound, "Director not found")
		return
	}
	writeJSON(w, http.StatusOK, m.Director)
}

func (s *Server) getGenre(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	m, ok := s.findMovie(func(m Movie) bool { return m.Genre.Name == name })
	if !ok {
		writeMessage(w, http.StatusNotFound, "Genre not found")
		return
	}
	writeJSON(w, http.StatusOK, m.Genre)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	u, ok := s.User(chi.URLParam(r, "username"))
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username       *string   `json:"Username"`
		Email          *string   `json:"Email"`
		Birthday       *string   `json:"Birthday"`
		FavoriteMovies *[]string `json:"FavoriteMovies"`
		Password       *string   `json:"Password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if in.Username != nil && len(*in.Username) < 2 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": []map[string]string{{"msg": "Username is required"}}})
		return
	}
	if in.Password != nil && *in.Password == "" {
		writeMessage(w, http.StatusUnprocessableEntity, "Password cannot be empty")
		return
	}

	var hash []byte
	if in.Password != nil {
		h, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.MinCost)
		if err != nil {
			writeMessage(w, http.StatusInternalServerError, err.Error())
			return
		}
		hash = h
	}

	name := chi.URLParam(r, "username")
	s.mu.Lock()
	u, ok := s.users[name]
	if !ok {
		s.mu.Unlock()
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	if in.Username != nil && *in.Username != name {
		if _, taken := s.users[*in.Username]; taken {
			s.mu.Unlock()
			writeMessage(w, http.StatusBadRequest, *in.Username+" already exists")
			return
		}
		delete(s.users, name)
		u.Username = *in.Username
		s.users[u.Username] = u
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Birthday != nil {
		u.Birthday = *in.Birthday
	}
	if in.FavoriteMovies != nil {
		u.FavoriteMovies = append([]string{}, (*in.FavoriteMovies)...)
	}
	if hash != nil {
		u.passwordHash = hash
	}
	username := u.Username
	s.mu.Unlock()

	updated, _ := s.User(username)
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "username")
	s.mu.Lock()
	_, ok := s.users[name]
	delete(s.users, name)
	s.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, name+" was not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "%s was deleted.", name)
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	s.mutateFavorites(w, r, func(favs []string, id string) []string {
		for _, f := range favs {
			if f == id {
				return favs
			}
		}
		return append(favs, id)
	})
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	s.mutateFavorites(w, r, func(favs []string, id string) []string {
		out := favs[:0]
		for _, f := range favs {
			if f != id {
				out = append(out, f)
			}
		}
		return out
	})
}

func (s *Server) mutateFavorites(w http.ResponseWriter, r *http.Request, fn func([]string, string) []string) {
	name := chi.URLParam(r, "username")
	movieID := chi.URLParam(r, "movieID")
	if _, ok := s.findMovie(func(m Movie) bool { return m.ID == movieID }); !ok {
		writeMessage(w, http.StatusNotFound, "Movie not found")
		return
	}

	s.mu.Lock()
	u, ok := s.users[name]
	if ok {
		u.FavoriteMovies = fn(u.FavoriteMovies, movieID)
	}
	s.mu.Unlock()
	if !ok {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}

	updated, _ := s.User(name)
	writeJSON(w, http.StatusOK, updated)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
