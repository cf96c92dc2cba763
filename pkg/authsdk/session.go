package authsdk

import (
	"context"
	"net/http"
	"strconv"
)

// Session performs operations on behalf of a signed-in account.
type Session struct {
	client    *SDKClient
	accountID uint32
	token     string
}

// AccountID returns the signed-in account id.
func (s *Session) AccountID() uint32 { return s.accountID }

// Token returns the raw session token.
func (s *Session) Token() string { return s.token }

// ChangePassword replaces the account password.
func (s *Session) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	req := ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword}
	return s.client.doJSON(ctx, http.MethodPost, "/v1/accounts/me/password", s.token, req, nil, http.StatusNoContent)
}

// ChangeEmail replaces the account email. The account stays locked until the
// new address is confirmed.
func (s *Session) ChangeEmail(ctx context.Context, email string) error {
	req := ChangeEmailRequest{Email: email}
	return s.client.doJSON(ctx, http.MethodPost, "/v1/accounts/me/email", s.token, req, nil, http.StatusAccepted)
}

// ResendConfirmation mails a fresh activation link to email.
func (s *Session) ResendConfirmation(ctx context.Context, email string) error {
	req := ResendConfirmationRequest{Email: email}
	return s.client.doJSON(ctx, http.MethodPost, "/v1/accounts/me/confirmation", s.token, req, nil, http.StatusAccepted)
}

// Username looks up the username of accountID. Only the account itself may
// ask.
func (s *Session) Username(ctx context.Context, accountID uint32) (string, error) {
	var out UsernameResponse
	path := "/v1/accounts/" + strconv.FormatUint(uint64(accountID), 10) + "/username"
	if err := s.client.doJSON(ctx, http.MethodGet, path, s.token, nil, &out, http.StatusOK); err != nil {
		return "", err
	}
	return out.Username, nil
}
