// Package service implements the account lifecycle: registration, login,
// password and email changes, password recovery and activation.
package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/realmauth/internal/auth/domain"
	"github.com/aussiebroadwan/realmauth/internal/auth/mail"
	"github.com/aussiebroadwan/realmauth/internal/auth/store"
	"github.com/aussiebroadwan/realmauth/pkg/cryptox"
	"github.com/aussiebroadwan/realmauth/pkg/slogx"
	"github.com/aussiebroadwan/realmauth/pkg/srp6"
	"github.com/samber/oops"
)

// DefaultRealmID is the realm whose access level is reported at login.
const DefaultRealmID int32 = 1

// Config holds the service's policy knobs.
type Config struct {
	// InviteCode must be presented to register. Empty disables registration.
	InviteCode string

	// RequireActivation refuses logins to locked accounts until the email is
	// confirmed. Off by default: new accounts can play right away.
	RequireActivation bool

	// TempPasswordLength is the length of recovery passwords (default 9).
	TempPasswordLength int

	// RealmID selects the account_access rows consulted at login.
	RealmID int32
}

// SessionIssuer issues the bearer token returned by Register and Login.
type SessionIssuer interface {
	IssueSessionToken(accountID uint32) (string, error)
}

type AccountService struct {
	Config   Config
	Accounts store.Accounts
	Tokens   store.UserTokens
	Sessions SessionIssuer
	Mailer   mail.Mailer // optional
	Hasher   *srp6.Hasher
	Pepper   []byte // keys recovery tokens

	Now func() time.Time
}

type RegisterInput struct {
	InviteCode string
	Username   string
	Password   string
	Email      string
}

type RegisterResult struct {
	ID    uint32
	Token string
}

type LoginResult struct {
	ID          uint32
	Username    string
	Email       string
	AccessLevel domain.AccessLevel
	Token       string
}

// Register creates a game account and issues a session for it.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (res RegisterResult, err error) {
	defer func() { RecordOperation("register", err) }()
	log := slogx.FromContext(ctx)

	if s.Config.InviteCode == "" ||
		subtle.ConstantTimeCompare([]byte(in.InviteCode), []byte(s.Config.InviteCode)) != 1 {
		log.Warn("registration with invalid invite code")
		return RegisterResult{}, ErrInvalidInviteCode
	}

	username := Normalize(in.Username)
	password := Normalize(in.Password)
	email := normalizeEmail(in.Email)

	if err := ValidatePassword(password); err != nil {
		return RegisterResult{}, err
	}
	if err := ValidateUsername(username); err != nil {
		return RegisterResult{}, err
	}
	if err := ValidateEmail(email); err != nil {
		return RegisterResult{}, err
	}

	if _, err := s.Accounts.FindAccountByUsername(ctx, username); err == nil {
		return RegisterResult{}, ErrDuplicateUsername
	} else if !errors.Is(err, store.ErrNotFound) {
		return RegisterResult{}, oops.Code("ACCOUNT_LOOKUP_FAILED").With("username", username).Wrap(err)
	}
	if _, err := s.Accounts.FindAccountByEmail(ctx, email); err == nil {
		return RegisterResult{}, ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return RegisterResult{}, oops.Code("ACCOUNT_LOOKUP_FAILED").Wrap(err)
	}

	creds, err := s.generate(username, password)
	if err != nil {
		return RegisterResult{}, oops.Code("CREDENTIAL_DERIVATION_FAILED").Wrap(err)
	}

	acc, err := s.Accounts.CreateAccount(ctx, domain.Account{
		Username:      username,
		Email:         email,
		RegMail:       email,
		Salt:          creds.Salt,
		Verifier:      creds.Verifier,
		JoinDate:      s.now(),
		LastIP:        domain.DefaultLastIP,
		LastAttemptIP: domain.DefaultLastIP,
		Locked:        s.Config.RequireActivation,
		Expansion:     domain.DefaultExpansion,
	})
	switch {
	case errors.Is(err, store.ErrDuplicateUsername):
		return RegisterResult{}, ErrDuplicateUsername
	case errors.Is(err, store.ErrDuplicateEmail):
		return RegisterResult{}, ErrDuplicateEmail
	case err != nil:
		return RegisterResult{}, oops.Code("ACCOUNT_CREATE_FAILED").With("username", username).Wrap(err)
	}

	token := cryptox.ActivationToken(acc.ID, acc.Email)
	if err := s.Tokens.UpsertUserToken(ctx, acc.ID, domain.UserTokenFields{ActivationToken: &token}); err != nil {
		return RegisterResult{}, oops.Code("TOKEN_STORE_FAILED").With("account_id", acc.ID).Wrap(err)
	}

	session, err := s.Sessions.IssueSessionToken(acc.ID)
	if err != nil {
		return RegisterResult{}, oops.Code("SESSION_ISSUE_FAILED").Wrap(err)
	}

	s.sendMail(ctx, "confirmation", func(m mail.Mailer) error {
		return m.SendConfirmation(ctx, token, acc.Email, acc.ID)
	})

	log.Info("account registered",
		slog.Uint64("account_id", uint64(acc.ID)),
		slog.String("username", acc.Username),
	)
	return RegisterResult{ID: acc.ID, Token: session}, nil
}

// Login checks a username and password against the stored verifier. A failed
// attempt writes nothing.
func (s *AccountService) Login(ctx context.Context, username, password string) (res LoginResult, err error) {
	defer func() { RecordOperation("login", err) }()
	log := slogx.FromContext(ctx)

	username = Normalize(username)
	password = Normalize(password)

	acc, err := s.Accounts.FindAccountByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		if looksLikeEmail(username) {
			return LoginResult{}, ErrInvalidLoginIsEmail
		}
		return LoginResult{}, ErrInvalidLoginBadUsername
	}
	if err != nil {
		return LoginResult{}, oops.Code("ACCOUNT_LOOKUP_FAILED").With("username", username).Wrap(err)
	}

	if !s.verify(acc.Username, password, acc.Salt, acc.Verifier) {
		log.Info("login with wrong password", slog.Uint64("account_id", uint64(acc.ID)))
		return LoginResult{}, ErrInvalidLoginBadPassword
	}

	if s.Config.RequireActivation && acc.Locked {
		return LoginResult{}, ErrAccountLocked
	}

	level, err := s.Accounts.FindAccessLevel(ctx, acc.ID, s.realmID())
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Warn("failed to read access level", slog.Uint64("account_id", uint64(acc.ID)), slog.Any("err", err))
		}
		level = 0
	}

	session, err := s.Sessions.IssueSessionToken(acc.ID)
	if err != nil {
		return LoginResult{}, oops.Code("SESSION_ISSUE_FAILED").Wrap(err)
	}

	return LoginResult{
		ID:          acc.ID,
		Username:    acc.Username,
		Email:       acc.Email,
		AccessLevel: level,
		Token:       session,
	}, nil
}

// ChangePassword replaces the credentials of a signed-in account after
// checking its current password.
func (s *AccountService) ChangePassword(ctx context.Context, accountID uint32, oldPassword, newPassword string) (err error) {
	defer func() { RecordOperation("change_password", err) }()

	if accountID == 0 {
		return ErrNotSignedIn
	}

	oldPassword = Normalize(oldPassword)
	newPassword = Normalize(newPassword)
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	acc, err := s.findAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if !s.verify(acc.Username, oldPassword, acc.Salt, acc.Verifier) {
		return ErrWrongOldPassword
	}

	if err := s.rotateCredentials(ctx, acc, newPassword); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("password changed", slog.Uint64("account_id", uint64(accountID)))
	return nil
}

// ChangeEmail moves a signed-in account to a new address. The account stays
// locked until the new address is confirmed.
func (s *AccountService) ChangeEmail(ctx context.Context, accountID uint32, newEmail string) (err error) {
	defer func() { RecordOperation("change_email", err) }()

	if accountID == 0 {
		return ErrNotSignedIn
	}

	email := normalizeEmail(newEmail)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	if _, err := s.findAccount(ctx, accountID); err != nil {
		return err
	}

	other, err := s.Accounts.FindAccountByEmail(ctx, email)
	switch {
	case err == nil && other.ID != accountID:
		return ErrDuplicateEmail
	case err != nil && !errors.Is(err, store.ErrNotFound):
		return oops.Code("ACCOUNT_LOOKUP_FAILED").Wrap(err)
	}

	err = s.Accounts.UpdateAccountEmailAndLock(ctx, accountID, email)
	switch {
	case errors.Is(err, store.ErrDuplicateEmail):
		return ErrDuplicateEmail
	case errors.Is(err, store.ErrNotFound):
		return ErrUserNotFound
	case err != nil:
		return oops.Code("ACCOUNT_UPDATE_FAILED").With("account_id", accountID).Wrap(err)
	}

	token, err := s.reissueActivation(ctx, accountID, email)
	if err != nil {
		return err
	}

	s.sendMail(ctx, "confirmation", func(m mail.Mailer) error {
		return m.SendConfirmation(ctx, token, email, accountID)
	})

	slogx.FromContext(ctx).Info("email changed", slog.Uint64("account_id", uint64(accountID)))
	return nil
}

// ResendConfirmation issues a fresh activation token for (accountID, email)
// and mails it there.
func (s *AccountService) ResendConfirmation(ctx context.Context, accountID uint32, email string) (err error) {
	defer func() { RecordOperation("resend_confirmation", err) }()

	if accountID == 0 {
		return ErrNotSignedIn
	}

	email = normalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	if _, err := s.findAccount(ctx, accountID); err != nil {
		return err
	}

	token, err := s.reissueActivation(ctx, accountID, email)
	if err != nil {
		return err
	}

	s.sendMail(ctx, "confirmation", func(m mail.Mailer) error {
		return m.SendConfirmation(ctx, token, email, accountID)
	})
	return nil
}

// RecoverPassword mails a recovery link to the owner of email.
func (s *AccountService) RecoverPassword(ctx context.Context, email string) (err error) {
	defer func() { RecordOperation("recover_password", err) }()

	email = normalizeEmail(email)
	if email == "" {
		return ErrInvalidEmail
	}

	acc, err := s.Accounts.FindAccountByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return ErrInvalidEmail
	}
	if err != nil {
		return oops.Code("ACCOUNT_LOOKUP_FAILED").Wrap(err)
	}

	token := cryptox.RecoveryToken(acc.Email, s.Pepper)

	var storeErr error
	if err := s.Tokens.UpsertUserToken(ctx, acc.ID, domain.UserTokenFields{RecoveryToken: &token}); err != nil {
		storeErr = oops.Code("TOKEN_STORE_FAILED").With("account_id", acc.ID).Wrap(err)
	}

	// The token is derived from the email alone, so a link mailed now still
	// matches once a later request manages to store it.
	s.sendMail(ctx, "recovery", func(m mail.Mailer) error {
		return m.SendRecovery(ctx, token, acc.Email)
	})

	return storeErr
}

// ConsumeRecoveryLink redeems a recovery link: the token is cleared, the
// account gets a random temporary password and the password is mailed. Every
// successful call rotates the credentials.
func (s *AccountService) ConsumeRecoveryLink(ctx context.Context, email, token string) (err error) {
	defer func() { RecordOperation("consume_recovery", err) }()

	acc, err := s.Accounts.FindAccountByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return oops.Code("ACCOUNT_LOOKUP_FAILED").Wrap(err)
	}

	row, err := s.Tokens.FindUserToken(ctx, acc.ID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrRecoveryNotRequested
	}
	if err != nil {
		return oops.Code("TOKEN_LOOKUP_FAILED").With("account_id", acc.ID).Wrap(err)
	}

	if !tokensEqual(row.Token(domain.TokenRecovery), token) {
		return ErrTokenMismatch
	}

	// The link is spent before the credentials change. If the write below
	// fails, the caller requests a new link, which carries the same token.
	ok, err := s.Tokens.ConsumeUserToken(ctx, acc.ID, domain.TokenRecovery, token)
	if err != nil {
		return oops.Code("TOKEN_STORE_FAILED").With("account_id", acc.ID).Wrap(err)
	}
	if !ok {
		return ErrTokenMismatch
	}

	password, err := cryptox.GeneratePassword(s.tempPasswordLength())
	if err != nil {
		return oops.Code("PASSWORD_GENERATION_FAILED").Wrap(err)
	}
	password = Normalize(password)

	if err := s.rotateCredentials(ctx, acc, password); err != nil {
		return err
	}

	s.sendMail(ctx, "password", func(m mail.Mailer) error {
		return m.SendPassword(ctx, password, acc.Email)
	})

	slogx.FromContext(ctx).Info("password reset by recovery link", slog.Uint64("account_id", uint64(acc.ID)))
	return nil
}

// Activate redeems an activation link and unlocks the account.
func (s *AccountService) Activate(ctx context.Context, accountID uint32, token string) (err error) {
	defer func() { RecordOperation("activate", err) }()

	row, err := s.Tokens.FindUserToken(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrActivationNotIssued
	}
	if err != nil {
		return oops.Code("TOKEN_LOOKUP_FAILED").With("account_id", accountID).Wrap(err)
	}

	stored := row.Token(domain.TokenActivation)
	if stored == "" {
		return ErrAlreadyActivated
	}
	if !tokensEqual(stored, token) {
		return ErrTokenMismatch
	}

	// Unlock before consuming, so a failed unlock leaves the link usable.
	if err := s.Accounts.UpdateAccountLocked(ctx, accountID, false); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return oops.Code("ACCOUNT_UPDATE_FAILED").With("account_id", accountID).Wrap(err)
	}

	ok, err := s.Tokens.ConsumeUserToken(ctx, accountID, domain.TokenActivation, token)
	if err != nil {
		return oops.Code("TOKEN_STORE_FAILED").With("account_id", accountID).Wrap(err)
	}
	if !ok {
		return ErrAlreadyActivated
	}

	slogx.FromContext(ctx).Info("account activated", slog.Uint64("account_id", uint64(accountID)))
	return nil
}

// Username returns the username of accountID. Callers may only look up
// their own account.
func (s *AccountService) Username(ctx context.Context, callerID, accountID uint32) (name string, err error) {
	defer func() { RecordOperation("username", err) }()

	if callerID == 0 || callerID != accountID {
		return "", ErrNotSignedIn
	}

	acc, err := s.findAccount(ctx, accountID)
	if err != nil {
		return "", err
	}
	return acc.Username, nil
}

// reissueActivation stores and returns a fresh activation token for an email
// change or resend. It never equals a token issued earlier for the account.
func (s *AccountService) reissueActivation(ctx context.Context, accountID uint32, email string) (string, error) {
	token, err := cryptox.ReissueActivationToken(accountID, email)
	if err != nil {
		return "", oops.Code("TOKEN_GENERATION_FAILED").Wrap(err)
	}
	if err := s.Tokens.UpsertUserToken(ctx, accountID, domain.UserTokenFields{ActivationToken: &token}); err != nil {
		return "", oops.Code("TOKEN_STORE_FAILED").With("account_id", accountID).Wrap(err)
	}
	return token, nil
}

func (s *AccountService) findAccount(ctx context.Context, id uint32) (domain.Account, error) {
	acc, err := s.Accounts.FindAccountByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Account{}, ErrUserNotFound
	}
	if err != nil {
		return domain.Account{}, oops.Code("ACCOUNT_LOOKUP_FAILED").With("account_id", id).Wrap(err)
	}
	return acc, nil
}

// rotateCredentials derives a fresh salt and verifier for password and
// stores both in one write.
func (s *AccountService) rotateCredentials(ctx context.Context, acc domain.Account, password string) error {
	creds, err := s.generate(acc.Username, password)
	if err != nil {
		return oops.Code("CREDENTIAL_DERIVATION_FAILED").Wrap(err)
	}

	err = s.Accounts.UpdateAccountCredentials(ctx, acc.ID, creds.Salt, creds.Verifier)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return oops.Code("ACCOUNT_UPDATE_FAILED").With("account_id", acc.ID).Wrap(err)
	}
	return nil
}

func (s *AccountService) generate(username, password string) (srp6.Credentials, error) {
	start := time.Now()
	defer func() { RecordDerivation("generate", time.Since(start)) }()
	return s.hasher().Generate(username, password)
}

func (s *AccountService) verify(username, password string, salt, verifier []byte) bool {
	start := time.Now()
	defer func() { RecordDerivation("verify", time.Since(start)) }()
	return s.hasher().Verify(username, password, salt, verifier)
}

// sendMail delivers best-effort: failures are logged and never fail the
// operation.
func (s *AccountService) sendMail(ctx context.Context, kind string, send func(mail.Mailer) error) {
	if s.Mailer == nil {
		return
	}
	if err := send(s.Mailer); err != nil {
		slogx.FromContext(ctx).Warn("failed to send mail", slog.String("kind", kind), slog.Any("err", err))
	}
}

func (s *AccountService) hasher() *srp6.Hasher {
	if s.Hasher == nil {
		return &srp6.Hasher{}
	}
	return s.Hasher
}

func (s *AccountService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *AccountService) realmID() int32 {
	if s.Config.RealmID == 0 {
		return DefaultRealmID
	}
	return s.Config.RealmID
}

func (s *AccountService) tempPasswordLength() int {
	if s.Config.TempPasswordLength <= 0 {
		return cryptox.TempPasswordLength
	}
	return s.Config.TempPasswordLength
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// tokensEqual compares a stored token with a presented one. An empty stored
// token never matches.
func tokensEqual(stored, presented string) bool {
	if stored == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
