// Package auth holds the credential primitives of the server: access-token
// signing, the refresh-token codec and password hashing.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the access-token payload. Subject carries the user ID.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// Signer issues and verifies HS256 access tokens.
type Signer struct {
	secretKey []byte
	validity  time.Duration
	now       func() time.Time
}

type SignerOption func(*Signer)

// WithTimeFunc sets the clock Parse checks expiry against. It should be the
// clock the caller passes to Sign.
func WithTimeFunc(now func() time.Time) SignerOption {
	return func(s *Signer) { s.now = now }
}

func NewSigner(secretKey []byte, validity time.Duration, opts ...SignerOption) *Signer {
	s := &Signer{secretKey: secretKey, validity: validity, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Sign returns an access token for the user, valid from now for the signer's
// validity duration.
func (s *Signer) Sign(userID, username string, now time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
		},
		Username: username,
	})

	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}

	return tokenString, nil
}

// Parse verifies the token and returns its claims. Expired tokens yield
// common.ErrTokenExpired, every other failure common.ErrInvalidToken.
func (s *Signer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
