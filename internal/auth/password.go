package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Work factors. passwordCost matches the seeded credentials; sessionCost is
// lower because the input is already a fixed-length sha256 digest.
const (
	passwordCost = 10
	sessionCost  = 8
)

// HashPassword hashes a plaintext password with bcrypt. The salt is
// embedded in the digest, so two hashes of the same input differ.
func HashPassword(password string) (string, error) {
	if len(password) == 0 {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a stored digest in
// constant time. Malformed digests report false rather than erroring.
func CheckPassword(hash, password string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
