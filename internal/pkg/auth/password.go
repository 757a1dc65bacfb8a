package auth

import (
	"github.com/alexedwards/argon2id"
)

// HashPassword hashes a plain-text password with Argon2id at the library's
// recommended parameters. The result embeds the salt and parameters.
func HashPassword(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

// CheckPassword verifies a plain-text password against a stored hash.
// Returns false on any mismatch, including a malformed hash.
func CheckPassword(password, hash string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, hash)
	if err != nil {
		return false
	}
	return match
}
