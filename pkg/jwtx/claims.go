package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL matches the lifetime of tokens issued by the legacy web
// service, which the game launcher and web front end both rely on.
const DefaultSessionTTL = 30 * 24 * time.Hour

// Claims is the session token payload. Legacy tokens only carry the account
// id plus iat/exp, so nothing else may become mandatory here.
type Claims struct {
	jwt.RegisteredClaims

	// AccountID is the acore_auth.account id.
	AccountID uint32 `json:"id"`
}

// NewSessionClaims builds claims for accountID valid for ttl from now.
func NewSessionClaims(accountID uint32, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		AccountID: accountID,
	}
}
