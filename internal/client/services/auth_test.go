package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/flixkeeper/internal/client/client"
	"github.com/dmitrijs2005/flixkeeper/internal/client/client/apitest"
	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
	"github.com/dmitrijs2005/flixkeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/flixkeeper/internal/client/session"
	"github.com/dmitrijs2005/flixkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

type fixture struct {
	srv      *apitest.Server
	sessions *session.Store
	svc      AuthService
}

func setup(t *testing.T, opts ...apitest.Option) fixture {
	t.Helper()
	srv := apitest.New(apitest.DefaultMovies(), opts...)
	t.Cleanup(srv.Close)

	db, err := client.InitDatabase(context.Background(), ":memory:")
	require.NoError(t, err)
	store := kv.NewStore(db)
	t.Cleanup(func() { _ = store.Close() })
	sessions := session.NewStore(store, nil)

	api, err := client.NewHTTPClient(srv.URL, 5*time.Second, sessions.Credential, nil)
	require.NoError(t, err)

	return fixture{srv: srv, sessions: sessions, svc: NewAuthService(api, sessions, nil)}
}

// ---- tests ----

func TestLogin_EstablishesSession(t *testing.T) {
	for _, opts := range [][]apitest.Option{nil, {apitest.WithUpperCaseLogin()}} {
		f := setup(t, opts...)
		f.srv.AddUser("al", "secret", "a@x.com", "m1")
		ctx := context.Background()

		u, err := f.svc.Login(ctx, " al ", "secret")
		require.NoError(t, err)
		assert.Equal(t, "al", u.Username)

		sess, ok := f.sessions.Load(ctx)
		require.True(t, ok)
		assert.Equal(t, []string{"m1"}, sess.User.FavoriteMovies)
		assert.NotEmpty(t, sess.Credential)
	}
}

func TestLogin_BadCredentialsKeepsNoSession(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("al", "secret", "a@x.com")
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "al", "wrong")
	require.ErrorIs(t, err, common.ErrAuth)
	_, ok := f.svc.CurrentUser(ctx)
	assert.False(t, ok)
}

func TestLogin_RequiresFields(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Login(context.Background(), "", "pw")
	require.ErrorIs(t, err, common.ErrValidation)
	_, err = f.svc.Login(context.Background(), "al", "")
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Zero(t, f.srv.CountRequests(http.MethodPost, "/login"))
}

func TestRegister_CreatesAccountAndLogsIn(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, models.Registration{Username: "bob", Password: "pw", Email: "b@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)

	name, ok := f.sessions.CurrentUsername(ctx)
	require.True(t, ok)
	assert.Equal(t, "bob", name)
	assert.True(t, f.srv.PasswordMatches("bob", "pw"))
}

func TestRegister_ValidatesLocally(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Register(context.Background(), models.Registration{Username: "bob", Password: "pw"})
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Zero(t, f.srv.CountRequests(http.MethodPost, "/users"))
}

func TestRegister_RemoteValidationError(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("bob", "pw", "b@x.com")

	f.srv.Fail(http.MethodPost, "/users", http.StatusConflict, "bob already exists")
	_, err := f.svc.Register(context.Background(), models.Registration{Username: "bob", Password: "pw", Email: "b@x.com"})
	require.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, "bob already exists", common.Message(err))
}

func TestLogout_Idempotent(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("al", "secret", "a@x.com")
	ctx := context.Background()

	_, err := f.svc.Login(ctx, "al", "secret")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx))
	require.NoError(t, f.svc.Logout(ctx))
	_, ok := f.svc.CurrentUser(ctx)
	assert.False(t, ok)
}

func TestRefreshUser_ReplacesSessionUser(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("al", "secret", "a@x.com", "m1")
	ctx := context.Background()
	_, err := f.svc.Login(ctx, "al", "secret")
	require.NoError(t, err)

	// Changed elsewhere.
	f.srv.AddUser("al", "secret", "new@x.com", "m2", "m3")

	u, err := f.svc.RefreshUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new@x.com", u.Email)

	cur, ok := f.svc.CurrentUser(ctx)
	require.True(t, ok)
	assert.Equal(t, []string{"m2", "m3"}, cur.FavoriteMovies)
}

func TestRefreshUser_RejectedCredentialDropsSession(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("al", "secret", "a@x.com")
	ctx := context.Background()
	require.NoError(t, f.sessions.Save(ctx, models.User{Username: "al"}, "forged"))

	_, err := f.svc.RefreshUser(ctx)
	require.ErrorIs(t, err, common.ErrAuthorization)
	_, ok := f.svc.CurrentUser(ctx)
	assert.False(t, ok)
}

func TestRefreshUser_WithoutSession(t *testing.T) {
	f := setup(t)
	_, err := f.svc.RefreshUser(context.Background())
	require.ErrorIs(t, err, common.ErrNoSession)
}

func TestDeleteAccount(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("al", "secret", "a@x.com")
	ctx := context.Background()
	_, err := f.svc.Login(ctx, "al", "secret")
	require.NoError(t, err)

	msg, err := f.svc.DeleteAccount(ctx)
	require.NoError(t, err)
	assert.Equal(t, "al was deleted.", msg)

	_, ok := f.srv.User("al")
	assert.False(t, ok)
	_, ok = f.svc.CurrentUser(ctx)
	assert.False(t, ok)

	_, err = f.svc.DeleteAccount(ctx)
	require.ErrorIs(t, err, common.ErrNoSession)
}

func TestDeleteAccount_FailureKeepsSession(t *testing.T) {
	f := setup(t)
	f.srv.AddUser("al", "secret", "a@x.com")
	ctx := context.Background()
	_, err := f.svc.Login(ctx, "al", "secret")
	require.NoError(t, err)

	f.srv.Fail(http.MethodDelete, "/users/al", http.StatusInternalServerError, `{"message":"nope"}`)
	_, err = f.svc.DeleteAccount(ctx)
	require.ErrorIs(t, err, client.ErrUnavailable)

	_, ok := f.svc.CurrentUser(ctx)
	assert.True(t, ok)
}
