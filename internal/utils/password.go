package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the shortest password accepted for admin accounts.
const MinPasswordLen = 8

var ErrWeakPassword = errors.New("password too short")

// HashPassword returns a bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	if len(plain) < MinPasswordLen {
		return "", ErrWeakPassword
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a bcrypt hash with a plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
