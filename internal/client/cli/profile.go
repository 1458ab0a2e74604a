package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
	"github.com/dmitrijs2005/flixkeeper/internal/common"
)

// Profile fetches the latest copy of the user and prints it. When the
// service cannot be reached the saved copy is shown instead.
func (a *App) Profile(ctx context.Context) error {
	u, err := a.auth.RefreshUser(ctx)
	if err != nil {
		if errors.Is(err, common.ErrAuthorization) {
			a.reportError(err)
			return err
		}
		a.printf("Could not refresh profile (%s), showing saved copy.\n", common.Message(err))
		var ok bool
		if u, ok = a.auth.CurrentUser(ctx); !ok {
			return common.ErrNoSession
		}
	}
	a.printUser(u)
	return nil
}

// clearMark typed at an optional field prompt empties the field.
const clearMark = "-"

// EditProfile prompts for each field, keeping the current value on empty
// input, and saves the result.
func (a *App) EditProfile(ctx context.Context) error {
	u, ok := a.auth.CurrentUser(ctx)
	if !ok {
		return common.ErrNoSession
	}
	d := a.editor.BeginEdit(u)

	username, err := GetWithDefault(a.reader, "Username", u.Username, a.out)
	if err != nil {
		return err
	}
	email, err := GetWithDefault(a.reader, "Email", u.Email, a.out)
	if err != nil {
		return err
	}
	birthday, err := GetWithDefault(a.reader, "Birthday ("+clearMark+" to clear)", u.Birthday, a.out)
	if err != nil {
		return err
	}
	if birthday == clearMark {
		birthday = ""
	}
	a.printf("New password (leave empty to keep the current one)\n")
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	// Only the terminal buffer is wiped. The Draft keeps a string copy
	// until the save commits, and strings cannot be zeroed.
	defer common.WipeByteArray(password)

	d.SetUsername(username)
	d.SetEmail(email)
	d.SetBirthday(birthday)
	d.SetPassword(string(password))

	o, err := a.editor.Save(ctx, d).Wait(ctx)
	if err != nil {
		return err
	}
	if errors.Is(o.Err, common.ErrNoChanges) {
		a.printf("No changes.\n")
		return nil
	}
	if !o.OK() {
		a.reportError(o.Err)
		return o.Err
	}
	a.printf("Profile updated.\n")
	a.printUser(d.Live())
	return nil
}

func (a *App) printUser(u models.User) {
	a.printf("Username: %s\nEmail:    %s\n", u.Username, u.Email)
	if u.Birthday != "" {
		a.printf("Birthday: %s\n", u.Birthday)
	}
	a.printf("Favorites: %d\n", len(u.FavoriteMovies))
}
