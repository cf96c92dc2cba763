package service

import "errors"

var (
	ErrInvalidInviteCode       = errors.New("invalid invite code")
	ErrInvalidUsername         = errors.New("invalid username")
	ErrInvalidPassword         = errors.New("invalid password")
	ErrInvalidEmail            = errors.New("invalid email")
	ErrDuplicateUsername       = errors.New("username already taken")
	ErrDuplicateEmail          = errors.New("email already registered")
	ErrInvalidLoginIsEmail     = errors.New("login with an email address instead of a username")
	ErrInvalidLoginBadUsername = errors.New("unknown username")
	ErrInvalidLoginBadPassword = errors.New("wrong password")
	ErrAccountLocked           = errors.New("account is locked")
	ErrNotSignedIn             = errors.New("not signed in")
	ErrWrongOldPassword        = errors.New("wrong old password")
	ErrUserNotFound            = errors.New("user not found")
	ErrRecoveryNotRequested    = errors.New("password recovery was not requested")
	ErrTokenMismatch           = errors.New("token mismatch")
	ErrActivationNotIssued     = errors.New("no activation pending")
	ErrAlreadyActivated        = errors.New("account already activated")
)

// rejections are the errors that describe a refused request rather than a
// failure of the service.
var rejections = []error{
	ErrInvalidInviteCode,
	ErrInvalidUsername,
	ErrInvalidPassword,
	ErrInvalidEmail,
	ErrDuplicateUsername,
	ErrDuplicateEmail,
	ErrInvalidLoginIsEmail,
	ErrInvalidLoginBadUsername,
	ErrInvalidLoginBadPassword,
	ErrAccountLocked,
	ErrNotSignedIn,
	ErrWrongOldPassword,
	ErrUserNotFound,
	ErrRecoveryNotRequested,
	ErrTokenMismatch,
	ErrActivationNotIssued,
	ErrAlreadyActivated,
}

// IsRejection reports whether err is one of the service's sentinel errors.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}
