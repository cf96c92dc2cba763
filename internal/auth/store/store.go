package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/realmauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrDuplicateUsername and ErrDuplicateEmail report which unique index
	// rejected a write. Both match ErrAlreadyExists.
	ErrDuplicateUsername = fmt.Errorf("%w: username", ErrAlreadyExists)
	ErrDuplicateEmail    = fmt.Errorf("%w: email", ErrAlreadyExists)
)

// Accounts is the game account database (acore_auth). Drivers: mysql for
// production, sqlite for development and tests.
type Accounts interface {
	// FindAccountByUsername looks up an upper-cased username.
	FindAccountByUsername(ctx context.Context, username string) (domain.Account, error)

	FindAccountByEmail(ctx context.Context, email string) (domain.Account, error)

	FindAccountByID(ctx context.Context, id uint32) (domain.Account, error)

	// CreateAccount inserts a and returns it with the assigned id. Unique
	// index violations are reported as ErrDuplicateUsername or
	// ErrDuplicateEmail.
	CreateAccount(ctx context.Context, a domain.Account) (domain.Account, error)

	// UpdateAccountCredentials writes salt and verifier in one statement.
	UpdateAccountCredentials(ctx context.Context, id uint32, salt, verifier []byte) error

	// UpdateAccountEmailAndLock sets the email and locks the account until
	// the new address is confirmed.
	UpdateAccountEmailAndLock(ctx context.Context, id uint32, email string) error

	UpdateAccountLocked(ctx context.Context, id uint32, locked bool) error

	// FindAccessLevel returns the gmlevel granted for realmID or for all
	// realms (-1), whichever is higher. ErrNotFound when neither exists.
	FindAccessLevel(ctx context.Context, id uint32, realmID int32) (domain.AccessLevel, error)

	Ping(ctx context.Context) error
	Close() error
}

// UserTokens is the application database holding activation and recovery
// tokens.
type UserTokens interface {
	FindUserToken(ctx context.Context, accountID uint32) (domain.UserToken, error)

	// UpsertUserToken creates the row if needed and sets the non-nil fields.
	UpsertUserToken(ctx context.Context, accountID uint32, f domain.UserTokenFields) error

	// ConsumeUserToken clears the token of the given kind only if it still
	// equals token. It reports whether this call cleared it, so of several
	// concurrent callers exactly one wins.
	ConsumeUserToken(ctx context.Context, accountID uint32, kind domain.TokenKind, token string) (bool, error)

	ApplyMigrations() error
	Ping(ctx context.Context) error
	Close() error
}
