// Package profile edits the Session User's profile and reconciles the
// server's answer back into the Session.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
	"github.com/dmitrijs2005/flixkeeper/internal/client/result"
	"github.com/dmitrijs2005/flixkeeper/internal/common"
	"github.com/dmitrijs2005/flixkeeper/internal/logging"
)

const opSave = "save profile"

// Client is the subset of the remote service used by the editor.
type Client interface {
	UpdateUser(ctx context.Context, username string, upd models.UserUpdate) (*models.User, error)
}

// Sessions is the subset of the session store used by the editor.
type Sessions interface {
	ReplaceUser(ctx context.Context, owner string, user models.User) error
	ClearOwned(ctx context.Context, owner string) error
}

// Draft pairs an immutable original snapshot with a live editable copy.
// It is safe for concurrent use.
type Draft struct {
	mu       sync.Mutex
	original models.User
	live     models.User
}

// Original returns the snapshot the edit started from.
func (d *Draft) Original() models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.original.Clone()
}

// Live returns the current edited copy.
func (d *Draft) Live() models.User {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live.Clone()
}

// Edit applies fn to the live copy.
func (d *Draft) Edit(fn func(u *models.User)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(&d.live)
}

func (d *Draft) SetUsername(v string) { d.Edit(func(u *models.User) { u.Username = v }) }
func (d *Draft) SetEmail(v string)    { d.Edit(func(u *models.User) { u.Email = v }) }
func (d *Draft) SetBirthday(v string) { d.Edit(func(u *models.User) { u.Birthday = v }) }
func (d *Draft) SetPassword(v string) { d.Edit(func(u *models.User) { u.Password = v }) }

// HasChanges reports whether the live copy differs from the original.
func (d *Draft) HasChanges() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return HasChanges(d.live, d.original)
}

func (d *Draft) commit(u models.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.original = u.Clone()
	d.live = u.Clone()
}

// HasChanges is true iff username, email or birthday differ, or a
// non-blank password was entered.
func HasChanges(edited, original models.User) bool {
	return edited.Username != original.Username ||
		edited.Email != original.Email ||
		edited.Birthday != original.Birthday ||
		strings.TrimSpace(edited.Password) != ""
}

// BuildUpdate composes the payload for edited. Favorites are always sent;
// the password only when non-blank.
func BuildUpdate(edited models.User) models.UserUpdate {
	upd := models.UserUpdate{
		Username:       edited.Username,
		Email:          edited.Email,
		Birthday:       edited.Birthday,
		FavoriteMovies: edited.Clone().FavoriteMovies,
	}
	if strings.TrimSpace(edited.Password) != "" {
		pw := edited.Password
		upd.Password = &pw
	}
	return upd
}

// Merge lays the server's user over the local edited copy. Non-empty server
// fields win and the password is always cleared.
func Merge(local, server models.User) models.User {
	m := local.Clone()
	if server.ID != "" {
		m.ID = server.ID
	}
	if server.Username != "" {
		m.Username = server.Username
	}
	if server.Email != "" {
		m.Email = server.Email
	}
	if server.Birthday != "" {
		m.Birthday = server.Birthday
	}
	if server.FavoriteMovies != nil {
		m.FavoriteMovies = append([]string{}, server.FavoriteMovies...)
	}
	m.Password = ""
	return m
}

type Editor struct {
	client   Client
	sessions Sessions
	sink     result.Sink
	log      logging.Logger
	wg       sync.WaitGroup
}

func NewEditor(client Client, sessions Sessions, sink result.Sink, log logging.Logger) *Editor {
	if sink == nil {
		sink = result.Discard
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Editor{client: client, sessions: sessions, sink: sink, log: log.With("component", "profile")}
}

// BeginEdit starts an edit of user.
func (e *Editor) BeginEdit(user models.User) *Draft {
	u := user.Clone()
	u.Password = ""
	return &Draft{original: u, live: u.Clone()}
}

// Save sends the draft's changes addressed to the original username. With
// nothing to change it reports common.ErrNoChanges without a remote call.
// On failure the live edits are kept so the user can retry.
func (e *Editor) Save(ctx context.Context, d *Draft) *result.Pending {
	d.mu.Lock()
	original, live := d.original.Clone(), d.live.Clone()
	d.mu.Unlock()

	if !HasChanges(live, original) {
		return e.finish(ctx, result.Failed(common.ErrNoChanges))
	}
	if strings.TrimSpace(live.Username) == "" {
		return e.finish(ctx, result.Failed(fmt.Errorf("%w: username is required", common.ErrValidation)))
	}
	if strings.TrimSpace(live.Email) == "" {
		return e.finish(ctx, result.Failed(fmt.Errorf("%w: email is required", common.ErrValidation)))
	}

	p := result.NewPending()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		o := e.save(context.WithoutCancel(ctx), d, original, live)
		e.sink.Notify(ctx, opSave, o)
		p.Resolve(o)
	}()
	return p
}

func (e *Editor) save(ctx context.Context, d *Draft, original, live models.User) result.Outcome {
	log := e.log.With("username", original.Username)
	if live.Username != original.Username {
		log = log.With("new_username", live.Username)
	}

	server, err := e.client.UpdateUser(ctx, original.Username, BuildUpdate(live))
	if err != nil {
		log.Warn(ctx, "profile update failed", "error", err)
		if errors.Is(err, common.ErrAuthorization) {
			if cerr := e.sessions.ClearOwned(ctx, original.Username); cerr != nil {
				log.Error(ctx, "failed to clear rejected session", "error", cerr)
			}
		}
		return result.Failed(err)
	}

	merged := Merge(live, *server)
	if err := e.sessions.ReplaceUser(ctx, original.Username, merged); err != nil {
		log.Error(ctx, "profile updated but session not saved", "error", err)
		return result.Failed(fmt.Errorf("update session: %w", err))
	}
	d.commit(merged)

	log.Debug(ctx, "profile saved")
	return result.Succeeded("profile updated")
}

func (e *Editor) finish(ctx context.Context, o result.Outcome) *result.Pending {
	e.sink.Notify(ctx, opSave, o)
	return result.Resolved(o)
}

// Wait blocks until every save started so far has completed.
func (e *Editor) Wait() {
	e.wg.Wait()
}
