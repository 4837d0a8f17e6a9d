package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	p := []byte(password)
	defer common.WipeByteArray(p)

	h, err := bcrypt.GenerateFromPassword(p, bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword compares password with a bcrypt hash. A mismatch is reported
// as common.ErrInvalidCredentials.
func CheckPassword(hash, password string) error {
	p := []byte(password)
	defer common.WipeByteArray(p)

	err := bcrypt.CompareHashAndPassword([]byte(hash), p)
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return common.ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}
	return nil
}
