// Package client contains the transport half of the FlixKeeper client.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract of the remote movie-catalog service (see
//     the Client interface): Login, Register, ListMovies, movie/director/genre
//     lookups, GetUser, AddFavorite, RemoveFavorite, UpdateUser, DeleteUser.
//  2. A concrete JSON/HTTP implementation (see HTTPClient) that attaches the
//     bearer token from a TokenSource, tags each request with X-Request-ID
//     and normalises the service's inconsistent response shapes (for example
//     "user"/"User" in the login response) before anything reaches the core.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Every failed call returns a *common.TransportError carrying the server
// message and status. Its cause is one of common.ErrAuth (login rejected),
// common.ErrAuthorization (401/403 on an authenticated call),
// common.ErrValidation, common.ErrNotFound, ErrUnavailable (network, timeout,
// 5xx) or ErrMalformedResponse.
//
// # Concurrency & Contexts
//
// HTTPClient is safe for concurrent use once constructed. Request timeouts
// are configured on the underlying http.Client; context cancellation is
// honoured as usual.
package client
