package security

import "golang.org/x/crypto/bcrypt"

// HashToken derives the bcrypt hash that API_TOKEN_HASH expects.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyToken compares a presented token against the stored hash.
func VerifyToken(hash, token string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(token))
}
