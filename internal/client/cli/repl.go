package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies it;
// tests provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
	Movies(ctx context.Context) error
	Favorites(ctx context.Context) error
	ToggleFavorite(ctx context.Context, ref string) error
	Movie(ctx context.Context, title string) error
	Director(ctx context.Context, name string) error
	Genre(ctx context.Context, name string) error
	Refresh(ctx context.Context) error
	Profile(ctx context.Context) error
	EditProfile(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, exit"
	helpLoggedIn  = "Available commands: (l)ist, favs, fav <id|title>, movie <title>, director <name>, " +
		"genre <name>, refresh, profile, edit, whoami, logout, delete-account, exit"
)

// runREPL reads commands line by line and dispatches them to a. The first
// token is the command; the rest of the line is its argument. The loop ends
// on EOF or "exit"/"quit". Handler errors are already reported to the user
// by the handlers and are ignored here.
//
// Handlers prompt through the same reader, so it is read one line at a time
// rather than through a bufio.Scanner that would buffer ahead.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("flix%s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
		arg = strings.TrimSpace(arg)
		if cmd == "" {
			continue
		}

		if !a.isLoggedIn() {
			switch cmd {
			case "help":
				printlnFn(helpLoggedOut)
			case "register":
				_ = a.Register(ctx)
			case "login":
				_ = a.Login(ctx)
			case "exit", "quit":
				printlnFn("Bye!")
				return
			default:
				printlnFn("Unknown command:", cmd, "(log in first)")
			}
			continue
		}

		switch cmd {
		case "help":
			printlnFn(helpLoggedIn)
		case "l", "list", "movies":
			_ = a.Movies(ctx)
		case "favs", "favorites":
			_ = a.Favorites(ctx)
		case "fav":
			if arg == "" {
				printlnFn("Usage: fav <movie id or title>")
				continue
			}
			_ = a.ToggleFavorite(ctx, arg)
		case "movie", "director", "genre":
			if arg == "" {
				printlnFn(fmt.Sprintf("Usage: %s <name>", cmd))
				continue
			}
			switch cmd {
			case "movie":
				_ = a.Movie(ctx, arg)
			case "director":
				_ = a.Director(ctx, arg)
			default:
				_ = a.Genre(ctx, arg)
			}
		case "refresh":
			_ = a.Refresh(ctx)
		case "profile":
			_ = a.Profile(ctx)
		case "edit":
			_ = a.EditProfile(ctx)
		case "whoami":
			_ = a.Whoami(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "delete-account":
			_ = a.DeleteAccount(ctx)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
