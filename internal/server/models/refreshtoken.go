package models

import "time"

type tokenState uint8

const (
	tokenClean tokenState = iota
	tokenNew
	tokenDirty
)

// RefreshToken is the stored form of an issued refresh token. Only the hash
// of the token is kept; the raw value exists on the client alone.
type RefreshToken struct {
	ID                  string
	TokenHash           string
	CreatedAt           time.Time
	ExpiresAt           time.Time
	Revoked             bool
	ReplacedByTokenHash string
	IP                  string
	UserAgent           string

	// zero value means the record matches storage
	state tokenState
}

// IsValid reports whether the token may still be exchanged at now.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}

// revoke marks the token revoked and reports whether anything changed.
func (t *RefreshToken) revoke() bool {
	if t.Revoked {
		return false
	}
	t.Revoked = true
	t.touch()
	return true
}

func (t *RefreshToken) touch() {
	if t.state == tokenClean {
		t.state = tokenDirty
	}
}

// Provenance describes the client a token was issued to.
type Provenance struct {
	IP        string
	UserAgent string
}

// IssuedToken is the result of minting a refresh token. Raw must be handed to
// the client and then dropped.
type IssuedToken struct {
	Raw       string
	Hash      string
	ExpiresAt time.Time
	Record    *RefreshToken
}
