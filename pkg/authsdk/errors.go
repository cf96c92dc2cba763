package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Error codes returned in ErrorResponse.Error.
const (
	ErrorCodeInvalidRequest          = "invalid_request"
	ErrorCodeInvalidInviteCode       = "invalid_invite_code"
	ErrorCodeInvalidUsername         = "invalid_username"
	ErrorCodeInvalidPassword         = "invalid_password"
	ErrorCodeInvalidEmail            = "invalid_email"
	ErrorCodeDuplicateUsername       = "duplicate_username"
	ErrorCodeDuplicateEmail          = "duplicate_email"
	ErrorCodeInvalidLoginIsEmail     = "invalid_login_is_email"
	ErrorCodeInvalidLoginBadUsername = "invalid_login_bad_username"
	ErrorCodeInvalidLoginBadPassword = "invalid_login_bad_password"
	ErrorCodeAccountLocked           = "account_locked"
	ErrorCodeNotSignedIn             = "not_signed_in"
	ErrorCodeWrongOldPassword        = "wrong_old_password"
	ErrorCodeUserNotFound            = "user_not_found"
	ErrorCodeServerError             = "server_error"
)

// APIError is an error answered by the service. The server writes it and
// the SDK client returns it.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the error code (e.g., "duplicate_email")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches any APIError carrying the same code, so callers can compare a
// decoded response against the predefined errors.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.Code == e.Code
}

// WriteError writes e as the JSON response.
func (e *APIError) WriteError(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	})
}

var (
	ErrInvalidRequest = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "the request body is malformed",
	}

	ErrInvalidInviteCode = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeInvalidInviteCode,
		Description: "invalid invite code",
	}

	ErrInvalidUsername = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidUsername,
		Description: "username must be 3 to 20 letters or digits",
	}

	ErrInvalidPassword = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidPassword,
		Description: "password must be 4 to 16 printable characters without spaces",
	}

	ErrInvalidEmail = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidEmail,
		Description: "invalid email address",
	}

	ErrDuplicateUsername = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeDuplicateUsername,
		Description: "username is already taken",
	}

	ErrDuplicateEmail = &APIError{
		StatusCode:  http.StatusConflict,
		Code:        ErrorCodeDuplicateEmail,
		Description: "email is already registered",
	}

	ErrInvalidLoginIsEmail = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidLoginIsEmail,
		Description: "log in with your username, not your email address",
	}

	ErrInvalidLoginBadUsername = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidLoginBadUsername,
		Description: "unknown username",
	}

	ErrInvalidLoginBadPassword = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidLoginBadPassword,
		Description: "wrong password",
	}

	ErrAccountLocked = &APIError{
		StatusCode:  http.StatusForbidden,
		Code:        ErrorCodeAccountLocked,
		Description: "account is awaiting email activation",
	}

	ErrNotSignedIn = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeNotSignedIn,
		Description: "you must be signed in",
	}

	ErrWrongOldPassword = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeWrongOldPassword,
		Description: "current password is wrong",
	}

	ErrUserNotFound = &APIError{
		StatusCode:  http.StatusNotFound,
		Code:        ErrorCodeUserNotFound,
		Description: "account not found",
	}

	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}
)

// parseErrorResponse turns a non-2xx response into an *APIError.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return &APIError{
			StatusCode:  resp.StatusCode,
			Code:        errResp.Error,
			Description: errResp.ErrorDescription,
		}
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
	}
}
