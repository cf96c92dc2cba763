package domain

import "time"

// TokenKind selects one of the single-use tokens kept per account.
type TokenKind string

const (
	TokenActivation TokenKind = "activation"
	TokenRecovery   TokenKind = "recovery"
)

// UserToken holds the outstanding email tokens of an account. An empty
// token means none was issued or it has been consumed.
type UserToken struct {
	AccountID       uint32
	ActivationToken string
	RecoveryToken   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Token returns the token of the given kind.
func (t UserToken) Token(kind TokenKind) string {
	if kind == TokenRecovery {
		return t.RecoveryToken
	}
	return t.ActivationToken
}

// UserTokenFields is a partial update. Nil fields keep their stored value,
// so issuing one kind of token never clobbers the other.
type UserTokenFields struct {
	ActivationToken *string
	RecoveryToken   *string
}
