// Package models defines server-side domain models. User carries the refresh
// token collection together with the operations that keep it consistent.
package models

import (
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/dmitrijs2005/taskkeeper/internal/server/auth"
)

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time

	RefreshTokens []*RefreshToken
}

// CreateRefreshToken mints a new token valid for ttl from now and appends its
// record to the user.
func (u *User) CreateRefreshToken(now time.Time, ttl time.Duration, p Provenance) (*IssuedToken, error) {
	raw, hash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	rec := &RefreshToken{
		TokenHash: hash,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		IP:        p.IP,
		UserAgent: p.UserAgent,
		state:     tokenNew,
	}
	u.RefreshTokens = append(u.RefreshTokens, rec)

	return &IssuedToken{Raw: raw, Hash: hash, ExpiresAt: rec.ExpiresAt, Record: rec}, nil
}

// FindRefreshToken returns the record with the given hash regardless of its
// validity, or nil.
func (u *User) FindRefreshToken(hash string) *RefreshToken {
	for _, t := range u.RefreshTokens {
		if t.TokenHash == hash {
			return t
		}
	}
	return nil
}

// FindValidRefreshToken returns the record with the given hash if it is
// neither revoked nor expired at now. Absent, revoked and expired all give nil.
func (u *User) FindValidRefreshToken(hash string, now time.Time) *RefreshToken {
	t := u.FindRefreshToken(hash)
	if t == nil || !t.IsValid(now) {
		return nil
	}
	return t
}

// RevokeRefreshToken revokes the record with the given hash. It returns false
// if no such record exists. Revoking twice is harmless.
func (u *User) RevokeRefreshToken(hash string) bool {
	t := u.FindRefreshToken(hash)
	if t == nil {
		return false
	}
	t.revoke()
	return true
}

// RevokeAllRefreshTokens revokes every record of the user and returns the
// number that were not revoked before.
func (u *User) RevokeAllRefreshTokens() int {
	n := 0
	for _, t := range u.RefreshTokens {
		if t.revoke() {
			n++
		}
	}
	return n
}

// RotateRefreshToken exchanges the token with oldHash for a new one: the old
// record is revoked and linked to the new hash. A record that was already
// replaced cannot be rotated again.
//
// Validity of the old record is the caller's concern; see FindValidRefreshToken.
func (u *User) RotateRefreshToken(oldHash string, now time.Time, ttl time.Duration, p Provenance) (*IssuedToken, error) {
	old := u.FindRefreshToken(oldHash)
	if old == nil {
		return nil, common.ErrorNotFound
	}
	if old.ReplacedByTokenHash != "" {
		return nil, common.ErrInvalidRefreshToken
	}

	issued, err := u.CreateRefreshToken(now, ttl, p)
	if err != nil {
		return nil, err
	}

	old.revoke()
	old.ReplacedByTokenHash = issued.Hash
	old.touch()

	return issued, nil
}

// PendingRefreshTokenChanges splits records that differ from storage into the
// ones never persisted and the ones mutated since they were loaded.
func (u *User) PendingRefreshTokenChanges() (created, updated []*RefreshToken) {
	for _, t := range u.RefreshTokens {
		switch t.state {
		case tokenNew:
			created = append(created, t)
		case tokenDirty:
			updated = append(updated, t)
		}
	}
	return created, updated
}

// MarkRefreshTokensPersisted records that storage now matches memory.
func (u *User) MarkRefreshTokensPersisted() {
	for _, t := range u.RefreshTokens {
		t.state = tokenClean
	}
}
