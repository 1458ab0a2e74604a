package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool
	calls    []string
}

func (f *fakeExec) isLoggedIn() bool { return f.loggedIn }
func (f *fakeExec) record(c string) error {
	f.calls = append(f.calls, c)
	return nil
}
func (f *fakeExec) Register(context.Context) error {
	f.loggedIn = true
	return f.record("register")
}
func (f *fakeExec) Login(context.Context) error {
	f.loggedIn = true
	return f.record("login")
}
func (f *fakeExec) Logout(context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}
func (f *fakeExec) Whoami(context.Context) error        { return f.record("whoami") }
func (f *fakeExec) DeleteAccount(context.Context) error { return f.record("delete-account") }
func (f *fakeExec) Movies(context.Context) error        { return f.record("movies") }
func (f *fakeExec) Favorites(context.Context) error     { return f.record("favs") }
func (f *fakeExec) ToggleFavorite(_ context.Context, ref string) error {
	return f.record("fav " + ref)
}
func (f *fakeExec) Movie(_ context.Context, t string) error    { return f.record("movie " + t) }
func (f *fakeExec) Director(_ context.Context, n string) error { return f.record("director " + n) }
func (f *fakeExec) Genre(_ context.Context, n string) error    { return f.record("genre " + n) }
func (f *fakeExec) Refresh(context.Context) error              { return f.record("refresh") }
func (f *fakeExec) Profile(context.Context) error              { return f.record("profile") }
func (f *fakeExec) EditProfile(context.Context) error          { return f.record("edit") }

func capturePrintln(t *testing.T) *[]string {
	t.Helper()
	var out []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		out = append(out, strings.TrimSpace(fmt.Sprintln(a...)))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &out
}

func run(exec execIface, lines ...string) {
	r := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	runREPL(context.Background(), exec, func() string { return "(s)" }, r)
}

func TestRunREPL_DispatchesCommandsWithArguments(t *testing.T) {
	capturePrintln(t)
	exec := &fakeExec{}

	run(exec,
		"login",
		"list",
		"favs",
		"fav m3",
		"movie The Dark Knight",
		"director  Ridley Scott ",
		"genre Crime",
		"refresh",
		"profile",
		"edit",
		"whoami",
		"delete-account",
		"logout",
		"exit",
	)

	assert.Equal(t, []string{
		"login", "movies", "favs", "fav m3", "movie The Dark Knight",
		"director Ridley Scott", "genre Crime", "refresh", "profile", "edit",
		"whoami", "delete-account", "logout",
	}, exec.calls)
}

func TestRunREPL_LoggedOutOnlyAllowsAuthCommands(t *testing.T) {
	out := capturePrintln(t)
	exec := &fakeExec{}

	run(exec, "help", "movies", "fav m1", "quit")

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, helpLoggedOut)
	assert.Contains(t, *out, "Unknown command: movies (log in first)")
	assert.Equal(t, "Bye!", (*out)[len(*out)-1])
}

func TestRunREPL_UsageWhenArgumentMissing(t *testing.T) {
	out := capturePrintln(t)
	exec := &fakeExec{loggedIn: true}

	run(exec, "fav", "movie", "", "bogus", "help")

	assert.Empty(t, exec.calls)
	assert.Contains(t, *out, "Usage: fav <movie id or title>")
	assert.Contains(t, *out, "Usage: movie <name>")
	assert.Contains(t, *out, "Unknown command: bogus")
	assert.Contains(t, *out, helpLoggedIn)
}

func TestRunREPL_StopsAtEOF(t *testing.T) {
	capturePrintln(t)
	exec := &fakeExec{loggedIn: true}

	run(exec, "whoami")

	assert.Equal(t, []string{"whoami"}, exec.calls)
}
