// Package cli provides the interactive flixkeeper command-line client.
//
// It wires configuration, the local session database, the movie service
// client and the reconciling components behind a small REPL. Typical flow:
// resume the saved session or prompt for credentials, start the background
// catalog refresher, then execute user commands.
//
// Key features:
//   - Login / Register / Logout / Delete account
//   - Browse the catalog, look up movies, directors and genres
//   - Toggle favorites and list them in catalog order
//   - View, refresh and edit the profile
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
