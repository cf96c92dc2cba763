package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// TempPasswordLength is the length of passwords issued by password recovery.
const TempPasswordLength = 9

// GeneratePassword returns n random lowercase letters. Recovery mails it to
// the player, who logs in with it case-insensitively.
func GeneratePassword(n int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyz"
	if n <= 0 {
		return "", fmt.Errorf("password length must be positive, got %d", n)
	}

	password := make([]byte, n)
	for i := range password {
		idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random password: %w", err)
		}
		password[i] = charset[idx.Int64()]
	}
	return string(password), nil
}
