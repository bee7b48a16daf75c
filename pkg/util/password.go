package util

import (
	"golang.org/x/crypto/bcrypt"
)

// GeneratePasswordHash generates the bcrypt hash of a password.
func GeneratePasswordHash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPasswordHash verifies whether password matches the stored hash.
func CheckPasswordHash(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
