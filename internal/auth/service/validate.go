package service

import (
	"regexp"
	"strings"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 20
	minPasswordLen = 4
	maxPasswordLen = 16
	minEmailLen    = 3
	maxEmailLen    = 255
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Z0-9]{3,20}$`)

	// emailLoginPattern detects players typing their email into the
	// username field.
	emailLoginPattern = regexp.MustCompile(`(?i)^([\w.%+-]+)@([\w-]+\.)+([\w]{2,})$`)
)

// Normalize trims and upper-cases a username or password. The game client
// does the same before deriving credentials, so passwords are case-insensitive.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidateUsername checks a normalised username.
func ValidateUsername(username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidatePassword checks a normalised password: 4 to 16 printable ASCII
// characters, no spaces.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLen || len(password) > maxPasswordLen {
		return ErrInvalidPassword
	}
	for i := 0; i < len(password); i++ {
		if c := password[i]; c <= ' ' || c > '~' {
			return ErrInvalidPassword
		}
	}
	return nil
}

// ValidateEmail checks a trimmed email address. Only the length and the
// presence of "@" are enforced.
func ValidateEmail(email string) error {
	if len(email) < minEmailLen || len(email) > maxEmailLen {
		return ErrInvalidEmail
	}
	if !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

func looksLikeEmail(s string) bool {
	return emailLoginPattern.MatchString(s)
}
