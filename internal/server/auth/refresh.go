package auth

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

// RefreshTokenBytes is the entropy of a refresh token (256 bits).
const RefreshTokenBytes = 32

// GenerateRefreshToken mints an opaque refresh token. raw goes to the client
// and is never stored; hash is what storage keeps.
func GenerateRefreshToken() (raw string, hash string, err error) {
	raw, err = common.MakeRandHexString(RefreshTokenBytes)
	if err != nil {
		return "", "", err
	}
	return raw, HashRefreshToken(raw), nil
}

// HashRefreshToken returns the lowercase hex SHA-256 digest of raw.
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
