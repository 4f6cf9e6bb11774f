package model

import "time"

// Session is the credential state published by the identity provider.
// Token is only trustworthy while Authenticated is true.
type Session struct {
	Token         string    `json:"-"`
	RefreshToken  string    `json:"-"`
	Authenticated bool      `json:"authenticated"`
	ExpiresAt     time.Time `json:"expires_at"`
	User          Profile   `json:"user"`
}

// Anonymous is the zero session: nothing is trusted.
func Anonymous() Session {
	return Session{}
}
