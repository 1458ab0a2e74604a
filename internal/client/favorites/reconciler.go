// Package favorites reconciles favorite-movie toggles between the Session
// and the remote service. Updates are confirmed, not optimistic: the Session
// changes only after the remote call succeeds.
package favorites

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
	"github.com/dmitrijs2005/flixkeeper/internal/client/result"
	"github.com/dmitrijs2005/flixkeeper/internal/common"
	"github.com/dmitrijs2005/flixkeeper/internal/logging"
)

const opToggle = "toggle favorite"

// defaultMaxSettled bounds how many committed or rolled back toggles are
// remembered for State. Older ones read as Idle.
const defaultMaxSettled = 256

// Client is the subset of the remote service used for favorites.
type Client interface {
	AddFavorite(ctx context.Context, username, movieID string) (*models.User, error)
	RemoveFavorite(ctx context.Context, username, movieID string) (*models.User, error)
}

// Sessions is the subset of the session store used for favorites.
type Sessions interface {
	Load(ctx context.Context) (models.Session, bool)
	ReplaceUser(ctx context.Context, owner string, user models.User) error
	ClearOwned(ctx context.Context, owner string) error
}

type State int

const (
	Idle State = iota
	Pending
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled back"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Action int

const (
	Add Action = iota + 1
	Remove
)

func (a Action) String() string {
	if a == Add {
		return "add"
	}
	return "remove"
}

type key struct {
	username string
	movieID  string
}

// Reconciler is safe for concurrent use. At most one toggle per
// (user, movie) pair is in flight at a time.
type Reconciler struct {
	client   Client
	sessions Sessions
	sink     result.Sink
	log      logging.Logger

	mu         sync.Mutex
	states     map[key]State
	settled    []key
	maxSettled int
	wg         sync.WaitGroup
}

func New(client Client, sessions Sessions, sink result.Sink, log logging.Logger) *Reconciler {
	if sink == nil {
		sink = result.Discard
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Reconciler{
		client:   client,
		sessions: sessions,
		sink:     sink,
		log:      log.With("component", "favorites"),
		states:   map[key]State{},

		maxSettled: defaultMaxSettled,
	}
}

// Toggle adds movieID to the Session User's favorites if absent and removes
// it if present. The decision is taken from the Session snapshot at call
// time. The returned Pending resolves once the remote call completes; the
// exchange is not aborted when ctx is cancelled.
func (r *Reconciler) Toggle(ctx context.Context, movieID string) *result.Pending {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return r.finish(ctx, result.Failed(fmt.Errorf("%w: movie id is required", common.ErrValidation)))
	}

	sess, ok := r.sessions.Load(ctx)
	if !ok {
		return r.finish(ctx, result.Failed(common.ErrNoSession))
	}
	snapshot := sess.User
	k := key{username: snapshot.Username, movieID: movieID}

	r.mu.Lock()
	if r.states[k] == Pending {
		r.mu.Unlock()
		r.log.Info(ctx, "toggle rejected, already in flight", "movie_id", movieID)
		return r.finish(ctx, result.Failed(common.ErrConcurrentOperation))
	}
	r.states[k] = Pending
	r.mu.Unlock()

	action := Add
	if snapshot.HasFavorite(movieID) {
		action = Remove
	}

	p := result.NewPending()
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		o := r.reconcile(context.WithoutCancel(ctx), snapshot, movieID, action)
		r.setState(k, o)
		r.sink.Notify(ctx, opToggle, o)
		p.Resolve(o)
	}()
	return p
}

func (r *Reconciler) reconcile(ctx context.Context, snapshot models.User, movieID string, action Action) result.Outcome {
	log := r.log.With("username", snapshot.Username, "movie_id", movieID, "action", action.String())

	var err error
	switch action {
	case Add:
		_, err = r.client.AddFavorite(ctx, snapshot.Username, movieID)
	case Remove:
		_, err = r.client.RemoveFavorite(ctx, snapshot.Username, movieID)
	}
	if err != nil {
		log.Warn(ctx, "remote toggle failed", "error", err)
		if errors.Is(err, common.ErrAuthorization) {
			r.dropSession(ctx, snapshot.Username)
		}
		return result.Failed(err)
	}

	updated := snapshot.WithFavorite(movieID)
	msg := "added"
	if action == Remove {
		updated = snapshot.WithoutFavorite(movieID)
		msg = "removed"
	}

	if err := r.sessions.ReplaceUser(ctx, snapshot.Username, updated); err != nil {
		log.Error(ctx, "remote toggle applied but session not updated", "error", err)
		return result.Failed(fmt.Errorf("update session: %w", err))
	}

	log.Debug(ctx, "toggle committed")
	return result.Succeeded(msg)
}

// dropSession clears the Session only while it still belongs to owner.
func (r *Reconciler) dropSession(ctx context.Context, owner string) {
	if err := r.sessions.ClearOwned(ctx, owner); err != nil {
		r.log.Error(ctx, "failed to clear rejected session", "error", err)
		return
	}
	r.log.Info(ctx, "credential rejected, session cleared")
}

func (r *Reconciler) setState(k key, o result.Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.OK() {
		r.states[k] = Committed
	} else {
		r.states[k] = RolledBack
	}

	r.settled = append(r.settled, k)
	for len(r.settled) > r.maxSettled {
		old := r.settled[0]
		r.settled = r.settled[1:]
		if r.states[old] != Pending && !slices.Contains(r.settled, old) {
			delete(r.states, old)
		}
	}
}

// finish reports an outcome decided without a remote call.
func (r *Reconciler) finish(ctx context.Context, o result.Outcome) *result.Pending {
	r.sink.Notify(ctx, opToggle, o)
	return result.Resolved(o)
}

// State reports the last known state of the toggle for username and movieID.
// Only the most recent settled toggles are remembered.
func (r *Reconciler) State(username, movieID string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.states[key{username: username, movieID: movieID}]
}

// Wait blocks until every toggle started so far has been reconciled.
func (r *Reconciler) Wait() {
	r.wg.Wait()
}
