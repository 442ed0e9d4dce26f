package password

import "golang.org/x/crypto/bcrypt"

// cost matches the original deployment's bcrypt work factor.
const cost = 12

// Hash produces a salted bcrypt hash of the plaintext.
func Hash(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify reports whether plaintext matches the stored hash. A malformed hash
// verifies false rather than erroring; bcrypt's comparison is constant-time.
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
