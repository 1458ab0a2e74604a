// Package models defines the client-side data model: the User and their
// favorite set, the read-only Movie catalog entries, and the Session that
// pairs a User with a bearer Credential.
package models
