// Package srp6 derives and checks the salted SRP6 verifiers stored in the
// AzerothCore/TrinityCore account table.
//
// The group parameters and the hash chaining are fixed by the game auth
// server. Changing any of them produces verifiers the game server rejects.
package srp6

import (
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // SHA1 is mandated by the game auth protocol
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
)

const (
	SaltSize     = 32
	VerifierSize = 32
)

var (
	// N is the 256-bit safe prime used by the WoW 3.3.5 auth protocol.
	N, _ = new(big.Int).SetString("894B645E89E1535BBDAD5B8B290650530801B18EBFBF5E8FAB3C82872A3E9BB7", 16)

	// G is the group generator.
	G = big.NewInt(7)
)

var ErrInvalidSalt = errors.New("srp6: salt must be 32 bytes")

// Credentials is the salt/verifier pair persisted for an account.
type Credentials struct {
	Salt     []byte
	Verifier []byte
}

// Hasher generates and checks credentials. The zero value reads salts from
// crypto/rand.
type Hasher struct {
	// Rand is the salt source. Nil means crypto/rand.
	Rand io.Reader
}

var defaultHasher = &Hasher{}

// DeriveVerifier computes the verifier for (username, password, salt):
//
//	h1 = SHA1(UPPER(username) ":" UPPER(password))
//	h2 = SHA1(salt || h1)
//	v  = g ^ LE(h2) mod N, as 32 little-endian bytes
func DeriveVerifier(username, password string, salt []byte) ([]byte, error) {
	if len(salt) != SaltSize {
		return nil, ErrInvalidSalt
	}

	h1 := sha1.Sum([]byte(strings.ToUpper(username) + ":" + strings.ToUpper(password))) //nolint:gosec

	h := sha1.New() //nolint:gosec
	h.Write(salt)
	h.Write(h1[:])
	h2 := h.Sum(nil)

	v := ModPow(G, BytesToInt(h2), N)
	return IntToBytes(v, VerifierSize)
}

// Generate draws a fresh salt and derives the matching verifier.
func (h *Hasher) Generate(username, password string) (Credentials, error) {
	src := h.Rand
	if src == nil {
		src = rand.Reader
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(src, salt); err != nil {
		return Credentials{}, fmt.Errorf("srp6: read salt: %w", err)
	}

	verifier, err := DeriveVerifier(username, password, salt)
	if err != nil {
		return Credentials{}, err
	}

	return Credentials{Salt: salt, Verifier: verifier}, nil
}

// Verify reports whether password recomputes to the stored verifier.
// Malformed stored material never verifies.
func (h *Hasher) Verify(username, password string, salt, verifier []byte) bool {
	if len(verifier) != VerifierSize {
		return false
	}

	computed, err := DeriveVerifier(username, password, salt)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(computed, verifier) == 1
}

// GenerateCredentials uses a crypto/rand backed Hasher.
func GenerateCredentials(username, password string) (Credentials, error) {
	return defaultHasher.Generate(username, password)
}

// Verify uses a crypto/rand backed Hasher.
func Verify(username, password string, salt, verifier []byte) bool {
	return defaultHasher.Verify(username, password, salt, verifier)
}
