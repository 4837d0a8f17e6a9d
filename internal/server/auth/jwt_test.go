package auth

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndParse_Success(t *testing.T) {
	t.Parallel()

	s := NewSigner([]byte("super-secret"), 15*time.Minute)
	now := time.Now()

	tok, err := s.Sign("user-123", "alice", now)
	require.NoError(t, err)

	claims, err := s.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.WithinDuration(t, now.Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	s := NewSigner([]byte("secret"), 15*time.Minute)

	tok, err := s.Sign("u1", "bob", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParse_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewSigner([]byte("right-secret"), time.Hour).Sign("u2", "carol", time.Now())
	require.NoError(t, err)

	_, err = NewSigner([]byte("wrong-secret"), time.Hour).Parse(tok)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	_, err := NewSigner([]byte("k"), time.Hour).Parse("not.a.jwt")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u3",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)
	_, err = NewSigner(secret, time.Hour).Parse(hs512)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewSigner(secret, time.Hour).Parse(none)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_RequiresSubjectAndExpiry(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = NewSigner(secret, time.Hour).Parse(noSub)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u4"},
	}).SignedString(secret)
	require.NoError(t, err)
	_, err = NewSigner(secret, time.Hour).Parse(noExp)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParse_UsesInjectedClock(t *testing.T) {
	t.Parallel()

	now := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSigner([]byte("secret"), 15*time.Minute, WithTimeFunc(func() time.Time { return now }))

	tok, err := s.Sign("u1", "bob", now)
	require.NoError(t, err)

	claims, err := s.Parse(tok)
	require.NoError(t, err, "a token is valid at the time it was signed")
	assert.Equal(t, "u1", claims.Subject)

	now = now.Add(15 * time.Minute)
	_, err = s.Parse(tok)
	assert.ErrorIs(t, err, common.ErrTokenExpired)
}
