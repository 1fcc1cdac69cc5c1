package util

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to staff accounts created by the seeder and CLI.
const MinPasswordLength = 8

// BcryptCost is a variable so tests can lower it.
var BcryptCost = 12

var ErrPasswordTooShort = errors.New("password must be at least 8 characters")

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// HashNewPassword enforces MinPasswordLength before hashing.
func HashNewPassword(password string) (string, error) {
	if len(password) < MinPasswordLength {
		return "", ErrPasswordTooShort
	}
	return HashPassword(password)
}

func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
