package cryptox

import (
	"crypto/rand"
	"crypto/sha1" // #nosec G505 - activation tokens must match links already mailed by the legacy service
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// Argon2id parameters for recovery tokens.
const (
	memory      = 19 * 1024 // Memory usage in KiB (19 MiB)
	iterations  = 2         // Iteration count
	parallelism = 1         // Number of threads
	tokenKeyLen = 48        // 64 chars once base64 encoded

	// RecoveryTokenLen is the length of a recovery token after sanitising.
	RecoveryTokenLen = 60
)

// GenerateToken creates a cryptographically secure random token of the specified byte length.
// The token is returned as a base64url-encoded string (URL-safe, no padding).
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Sanitize strips the characters that would break a token used as a URL
// path segment.
func Sanitize(token string) string {
	return strings.NewReplacer("/", "", ".", "").Replace(token)
}

// ActivationToken derives the activation token mailed after registration:
// hex(SHA1("<id>:<email>")).
func ActivationToken(accountID uint32, email string) string {
	return activationDigest(strconv.FormatUint(uint64(accountID), 10) + ":" + email)
}

// ReissueActivationToken derives the token mailed after an email change or a
// resend. A random nonce joins the id and email, so going back to an earlier
// address never revives a link that was already used.
func ReissueActivationToken(accountID uint32, email string) (string, error) {
	nonce, err := GenerateToken(16)
	if err != nil {
		return "", err
	}
	return activationDigest(strconv.FormatUint(uint64(accountID), 10) + ":" + email + ":" + nonce), nil
}

func activationDigest(in string) string {
	sum := sha1.Sum([]byte(in)) // #nosec G401
	return Sanitize(hex.EncodeToString(sum[:]))
}

// RecoveryToken derives the password recovery token for email. It is keyed
// by the server pepper and depends on nothing else, so repeated requests for
// the same address yield the same token.
func RecoveryToken(email string, pepper []byte) string {
	key := argon2.IDKey([]byte(email), pepper, iterations, memory, parallelism, tokenKeyLen)
	token := Sanitize(base64.StdEncoding.EncodeToString(key))
	if len(token) > RecoveryTokenLen {
		token = token[:RecoveryTokenLen]
	}
	return token
}
