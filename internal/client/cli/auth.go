package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/flixkeeper/internal/client/models"
	"github.com/dmitrijs2005/flixkeeper/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for account details, creates the account and logs in.
func (a *App) Register(ctx context.Context) error {
	var reg models.Registration
	var err error

	if reg.Username, err = getSimpleText(a.reader, "Enter username", a.out); err != nil {
		return err
	}
	if reg.Email, err = getSimpleText(a.reader, "Enter email", a.out); err != nil {
		return err
	}
	if reg.Birthday, err = getSimpleText(a.reader, "Enter birthday (YYYY-MM-DD, optional)", a.out); err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	reg.Password = string(password)

	u, err := a.auth.Register(ctx, reg)
	if err != nil {
		a.printf("Registration failed: %s\n", common.Message(err))
		return err
	}

	a.printf("Account created. Welcome, %s!\n", u.Username)
	a.loadCatalog(ctx)
	return nil
}

// Login prompts for credentials and establishes the Session.
func (a *App) Login(ctx context.Context) error {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.auth.Login(ctx, userName, string(password))
	if err != nil {
		a.log.Info(ctx, "login unsuccessful", "error", err)
		a.printf("Login failed: %s\n", common.Message(err))
		return err
	}

	a.printf("Welcome, %s!\n", u.Username)
	a.loadCatalog(ctx)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		a.printf("Logout failed: %s\n", err)
		return err
	}
	a.printf("Logged out.\n")
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	u, ok := a.auth.CurrentUser(ctx)
	if !ok {
		a.printf("Not logged in.\n")
		return common.ErrNoSession
	}
	a.printf("%s <%s>\n", u.Username, u.Email)
	return nil
}

// DeleteAccount asks the user to retype the username before deleting.
func (a *App) DeleteAccount(ctx context.Context) error {
	u, ok := a.auth.CurrentUser(ctx)
	if !ok {
		return common.ErrNoSession
	}

	confirm, err := getSimpleText(a.reader, "Type your username to delete the account", a.out)
	if err != nil {
		return err
	}
	if confirm != u.Username {
		a.printf("Cancelled.\n")
		return nil
	}

	msg, err := a.auth.DeleteAccount(ctx)
	if err != nil {
		a.reportError(err)
		return err
	}
	a.printf("%s\n", msg)
	return nil
}

// reportError prints err for the user, adding a hint when the session was
// dropped because the service rejected the credential.
func (a *App) reportError(err error) {
	a.printf("Error: %s\n", common.Message(err))
	if errors.Is(err, common.ErrAuthorization) {
		a.printf("Your session has expired, please log in again.\n")
	}
}
