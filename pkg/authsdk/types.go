package authsdk

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	// Error is the machine readable error code (e.g. "duplicate_username")
	Error string `json:"error"`

	// ErrorDescription is a human readable description of the error
	ErrorDescription string `json:"error_description"`
}

// RegisterRequest is the body of POST /v1/accounts.
type RegisterRequest struct {
	InviteCode string `json:"invite_code"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	Email      string `json:"email"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	// ID is the new account id
	ID uint32 `json:"id"`

	// Token is a session token for the new account
	Token string `json:"token"`
}

// LoginRequest is the body of POST /v1/accounts/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login.
type LoginResponse struct {
	ID       uint32 `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`

	// AccessLevel is the account's GM level (0 for players)
	AccessLevel uint8 `json:"access_level"`

	// Token is the HS256 session token, valid for 30 days
	Token string `json:"token"`
}

// ChangePasswordRequest is the body of POST /v1/accounts/me/password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangeEmailRequest is the body of POST /v1/accounts/me/email.
type ChangeEmailRequest struct {
	Email string `json:"email"`
}

// ResendConfirmationRequest is the body of POST /v1/accounts/me/confirmation.
type ResendConfirmationRequest struct {
	Email string `json:"email"`
}

// RecoverPasswordRequest is the body of POST /v1/accounts/recovery.
type RecoverPasswordRequest struct {
	Email string `json:"email"`
}

// UsernameResponse is returned by GET /v1/accounts/{id}/username.
type UsernameResponse struct {
	ID       uint32 `json:"id"`
	Username string `json:"username"`
}

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the status of each backing database.
type HealthChecks struct {
	// Accounts is the AzerothCore auth database
	Accounts string `json:"accounts"`

	// Tokens is the application token database
	Tokens string `json:"tokens"`
}
