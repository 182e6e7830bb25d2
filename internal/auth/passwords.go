package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword produces a salted one-way hash of the submitted secret.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether the presented secret matches the stored hash.
// A mismatch is an expected outcome, not an error; the caller decides how to
// surface it.
func CheckPassword(presented, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(presented)) == nil
}
