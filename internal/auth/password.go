package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmptyPassword is returned when hashing an empty operator password.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrMalformedHash is returned for an ADMIN_PASSWORD_HASH that is not bcrypt.
	ErrMalformedHash = errors.New("admin password hash is not a bcrypt hash")
)

// HashAdminPassword produces a value for ADMIN_PASSWORD_HASH.
func HashAdminPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash admin password: %w", err)
	}
	return string(hashed), nil
}

// ValidateAdminHash checks a configured hash before any login is tried,
// so a mistyped value fails at startup instead of rejecting every login.
// An empty hash is valid and leaves the admin pages open.
func ValidateAdminHash(hash string) error {
	if hash == "" {
		return nil
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedHash, err)
	}
	return nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
