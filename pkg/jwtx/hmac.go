package jwtx

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed    = errors.New("jwtx: malformed token")
	ErrAlgMismatch  = errors.New("jwtx: algorithm mismatch")
	ErrInvalidSig   = errors.New("jwtx: invalid signature")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
	ErrEmptySecret  = errors.New("jwtx: empty signing secret")
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// HMACSigner issues and verifies HS256 session tokens with a shared secret.
// The legacy web service signs with the same secret, so tokens are accepted
// in both directions.
type HMACSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration

	// Now is the clock used for iat/exp. Defaults to time.Now.
	Now func() time.Time
}

// NewHMACSigner returns a signer for secret. A zero ttl selects
// DefaultSessionTTL.
func NewHMACSigner(secret []byte, issuer string, ttl time.Duration) (*HMACSigner, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &HMACSigner{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		Now:    time.Now,
	}, nil
}

func (s *HMACSigner) Alg() string { return jwt.SigningMethodHS256.Alg() }

// TTL is the validity window of issued tokens.
func (s *HMACSigner) TTL() time.Duration { return s.ttl }

// Sign serialises claims as a compact HS256 JWT.
func (s *HMACSigner) Sign(c Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// IssueSessionToken signs a session token bound to accountID.
func (s *HMACSigner) IssueSessionToken(accountID uint32) (string, error) {
	if accountID == 0 {
		return "", ErrInvalidClaim
	}
	return s.Sign(NewSessionClaims(accountID, s.issuer, s.ttl, s.Now().UTC()))
}

// Verify parses token, checks the HS256 signature and expiry, and returns the
// claims. Tokens without an account id are rejected.
func (s *HMACSigner) Verify(token string) (Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.Now),
	)
	if err != nil {
		return Claims{}, mapParseError(err)
	}

	if claims.AccountID == 0 {
		return Claims{}, ErrInvalidClaim
	}

	return claims, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	default:
		return errors.Join(ErrInvalidClaim, err)
	}
}
