// Package session owns the client-held Session: the current User and their
// bearer Credential. It is the only component that touches durable storage;
// everything else borrows snapshots through Load/User and writes back whole
// replacement Users through Save/ReplaceUser.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
	"github.com/dmitrijs2005/flixkeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/flixkeeper/internal/common"
	"github.com/dmitrijs2005/flixkeeper/internal/logging"
)

const (
	keyUser  = "user"
	keyToken = "token"
)

// Storage is the durable key-value store behind the session. Atomic must
// commit every write made through r or none of them.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Atomic(ctx context.Context, fn func(ctx context.Context, r kv.Repository) error) error
}

// Store is safe for concurrent use. Every write is a full replacement of
// the persisted value.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	log     logging.Logger

	loaded  bool
	current *models.Session
}

func NewStore(storage Storage, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{storage: storage, log: log.With("component", "session")}
}

// Load returns the persisted Session. It never fails: unreadable or corrupt
// state is reported as absent.
func (s *Store) Load(ctx context.Context) (models.Session, bool) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.snapshot()
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		s.current = s.read(ctx)
		s.loaded = true
	}
	return s.snapshot()
}

// snapshot must be called with s.mu held.
func (s *Store) snapshot() (models.Session, bool) {
	if s.current == nil {
		return models.Session{}, false
	}
	return models.Session{User: s.current.User.Clone(), Credential: s.current.Credential}, true
}

func (s *Store) read(ctx context.Context) *models.Session {
	rawUser, err := s.storage.Get(ctx, keyUser)
	if err != nil {
		s.log.Warn(ctx, "session unreadable, treating as absent", "error", err)
		return nil
	}
	rawToken, err := s.storage.Get(ctx, keyToken)
	if err != nil {
		s.log.Warn(ctx, "session unreadable, treating as absent", "error", err)
		return nil
	}
	if rawUser == nil {
		return nil
	}

	var user models.User
	if err := json.Unmarshal(rawUser, &user); err != nil || strings.TrimSpace(user.Username) == "" {
		s.log.Warn(ctx, "persisted session is corrupt, treating as absent")
		return nil
	}
	user = user.NormalizeFavorites()

	return &models.Session{User: user, Credential: models.Credential(rawToken)}
}

// Save persists user and credential together, replacing any prior Session.
// The password is never written.
func (s *Store) Save(ctx context.Context, user models.User, credential models.Credential) error {
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("%w: session user has no username", common.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, user, credential)
}

// ReplaceUser swaps the Session User wholesale and keeps the credential.
// owner is the username the caller's snapshot was taken from; the write is
// refused with common.ErrStaleSession when the Session now belongs to someone
// else. It fails with common.ErrNoSession when logged out.
func (s *Store) ReplaceUser(ctx context.Context, owner string, user models.User) error {
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("%w: session user has no username", common.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOwner(ctx, owner); err != nil {
		return err
	}
	return s.write(ctx, user, s.current.Credential)
}

// checkOwner must be called with s.mu held.
func (s *Store) checkOwner(ctx context.Context, owner string) error {
	if !s.loaded {
		s.current = s.read(ctx)
		s.loaded = true
	}
	if s.current == nil {
		return common.ErrNoSession
	}
	if s.current.User.Username != owner {
		s.log.Info(ctx, "stale session write refused", "owner", owner, "username", s.current.User.Username)
		return common.ErrStaleSession
	}
	return nil
}

// write must be called with s.mu held.
func (s *Store) write(ctx context.Context, user models.User, credential models.Credential) error {
	user = user.NormalizeFavorites()
	user.Password = ""

	rawUser, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	err = s.storage.Atomic(ctx, func(ctx context.Context, r kv.Repository) error {
		if err := r.Set(ctx, keyUser, rawUser); err != nil {
			return err
		}
		return r.Set(ctx, keyToken, []byte(credential))
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.current = &models.Session{User: user, Credential: credential}
	s.loaded = true
	s.log.Debug(ctx, "session saved", "username", user.Username, "favorites", len(user.FavoriteMovies))
	return nil
}

// Clear removes the Session. It is idempotent.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clear(ctx)
}

// ClearOwned removes the Session only while it belongs to owner. A Session
// held by another user is left alone and common.ErrStaleSession returned.
func (s *Store) ClearOwned(ctx context.Context, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOwner(ctx, owner); err != nil {
		return err
	}
	return s.clear(ctx)
}

// clear must be called with s.mu held.
func (s *Store) clear(ctx context.Context) error {
	err := s.storage.Atomic(ctx, func(ctx context.Context, r kv.Repository) error {
		if err := r.Delete(ctx, keyUser); err != nil {
			return err
		}
		return r.Delete(ctx, keyToken)
	})
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.current = nil
	s.loaded = true
	s.log.Debug(ctx, "session cleared")
	return nil
}

// User returns a snapshot of the Session User.
func (s *Store) User(ctx context.Context) (models.User, bool) {
	sess, ok := s.Load(ctx)
	return sess.User, ok
}

// CurrentUsername returns the username of the Session User, if any.
func (s *Store) CurrentUsername(ctx context.Context) (string, bool) {
	sess, ok := s.Load(ctx)
	if !ok {
		return "", false
	}
	return sess.User.Username, true
}

// Credential returns the bearer token or "" when logged out. Its signature
// matches client.TokenSource.
func (s *Store) Credential(ctx context.Context) models.Credential {
	sess, ok := s.Load(ctx)
	if !ok {
		return ""
	}
	return sess.Credential
}
