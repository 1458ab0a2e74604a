package models

// Credential is an opaque bearer token.
type Credential string

// String keeps the token out of logs and fmt output.
func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return "[redacted]"
}

// Session pairs the authenticated User with their Credential.
type Session struct {
	User       User
	Credential Credential
}

// Authenticated reports whether the session carries a credential.
func (s Session) Authenticated() bool {
	return s.Credential != ""
}
