// Package services contains application services for the flixkeeper client.
// This file defines the account service: login, registration, logout,
// profile refresh and account deletion, each reconciled with the Session.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/flixkeeper/internal/client/client"
	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
	"github.com/dmitrijs2005/flixkeeper/internal/common"
	"github.com/dmitrijs2005/flixkeeper/internal/logging"
)

// Sessions is the subset of the session store used by AuthService.
type Sessions interface {
	Load(ctx context.Context) (models.Session, bool)
	Save(ctx context.Context, user models.User, credential models.Credential) error
	ReplaceUser(ctx context.Context, owner string, user models.User) error
	Clear(ctx context.Context) error
	ClearOwned(ctx context.Context, owner string) error
}

// AuthService defines account operations for the CLI.
//
// Contract:
//   - Login: authenticate against the service and establish the Session.
//   - Register: create an account, then log in with the same credentials.
//   - Logout: destroy the Session; idempotent.
//   - RefreshUser: replace the Session User with the service's copy.
//   - DeleteAccount: delete the account remotely, then destroy the Session.
//   - CurrentUser: the Session User, if any.
//
// A credential rejected by the service destroys the Session.
type AuthService interface {
	Login(ctx context.Context, username, password string) (models.User, error)
	Register(ctx context.Context, reg models.Registration) (models.User, error)
	Logout(ctx context.Context) error
	RefreshUser(ctx context.Context) (models.User, error)
	DeleteAccount(ctx context.Context) (string, error)
	CurrentUser(ctx context.Context) (models.User, bool)
}

type authService struct {
	client   client.Client
	sessions Sessions
	log      logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client and
// session store.
func NewAuthService(client client.Client, sessions Sessions, log logging.Logger) AuthService {
	if log == nil {
		log = logging.Nop()
	}
	return &authService{client: client, sessions: sessions, log: log.With("component", "auth")}
}

// Login authenticates and saves the Session. The previous Session, if any,
// is kept when authentication fails.
func (a *authService) Login(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: username and password are required", common.ErrValidation)
	}

	user, token, err := a.client.Login(ctx, username, password)
	if err != nil {
		return models.User{}, fmt.Errorf("login error: %w", err)
	}
	if token == "" {
		return models.User{}, fmt.Errorf("login error: %w: empty token", client.ErrMalformedResponse)
	}

	if err := a.sessions.Save(ctx, *user, token); err != nil {
		return models.User{}, fmt.Errorf("session saving error: %w", err)
	}
	a.log.Info(ctx, "logged in", "username", user.Username)
	return user.Clone(), nil
}

// Register validates reg, creates the account and logs in with it.
func (a *authService) Register(ctx context.Context, reg models.Registration) (models.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := reg.Validate(); err != nil {
		return models.User{}, err
	}

	if _, err := a.client.Register(ctx, reg); err != nil {
		return models.User{}, fmt.Errorf("register error: %w", err)
	}
	a.log.Info(ctx, "registered", "username", reg.Username)

	return a.Login(ctx, reg.Username, reg.Password)
}

func (a *authService) Logout(ctx context.Context) error {
	if err := a.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("logout error: %w", err)
	}
	return nil
}

// RefreshUser fetches the Session User from the service and stores it
// wholesale.
func (a *authService) RefreshUser(ctx context.Context) (models.User, error) {
	sess, ok := a.sessions.Load(ctx)
	if !ok {
		return models.User{}, common.ErrNoSession
	}

	user, err := a.client.GetUser(ctx, sess.User.Username)
	if err != nil {
		a.dropOnAuthorization(ctx, sess.User.Username, err)
		return models.User{}, fmt.Errorf("refresh user error: %w", err)
	}
	if err := a.sessions.ReplaceUser(ctx, sess.User.Username, *user); err != nil {
		return models.User{}, fmt.Errorf("session saving error: %w", err)
	}
	return user.Clone(), nil
}

// DeleteAccount removes the Session User's account and returns the
// service's confirmation text.
func (a *authService) DeleteAccount(ctx context.Context) (string, error) {
	sess, ok := a.sessions.Load(ctx)
	if !ok {
		return "", common.ErrNoSession
	}

	msg, err := a.client.DeleteUser(ctx, sess.User.Username)
	if err != nil {
		a.dropOnAuthorization(ctx, sess.User.Username, err)
		return "", fmt.Errorf("delete account error: %w", err)
	}
	if err := a.sessions.Clear(ctx); err != nil {
		return "", fmt.Errorf("session clearing error: %w", err)
	}
	a.log.Info(ctx, "account deleted", "username", sess.User.Username)
	if msg == "" {
		msg = sess.User.Username + " was deleted."
	}
	return msg, nil
}

func (a *authService) CurrentUser(ctx context.Context) (models.User, bool) {
	sess, ok := a.sessions.Load(ctx)
	return sess.User, ok
}

func (a *authService) dropOnAuthorization(ctx context.Context, owner string, err error) {
	if !errors.Is(err, common.ErrAuthorization) {
		return
	}
	if cerr := a.sessions.ClearOwned(ctx, owner); cerr != nil {
		a.log.Error(ctx, "failed to clear rejected session", "error", cerr)
		return
	}
	a.log.Info(ctx, "credential rejected, session cleared")
}
