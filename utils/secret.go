package utils

import "golang.org/x/crypto/bcrypt"

// HashSecret returns the bcrypt hash of an API key. Keys must stay under bcrypt's 72 byte limit.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckSecret compares a stored hash with a presented key.
func CheckSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
