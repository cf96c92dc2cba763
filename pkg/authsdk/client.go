package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// SDKClient is a client for the realmauth account service.
// It provides access to anonymous operations and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a new account service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewSession wraps an existing session token, e.g. one returned by Register.
func (c *SDKClient) NewSession(accountID uint32, token string) *Session {
	return &Session{client: c, accountID: accountID, token: token}
}

// Register creates an account.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/accounts", "", req, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

// LoginRaw performs a login and returns the full response.
func (c *SDKClient) LoginRaw(ctx context.Context, username, password string) (*LoginResponse, error) {
	var out LoginResponse
	req := LoginRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/accounts/login", "", req, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates and returns a session for the account.
func (c *SDKClient) Login(ctx context.Context, username, password string) (*Session, error) {
	resp, err := c.LoginRaw(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return c.NewSession(resp.ID, resp.Token), nil
}

// RecoverPassword asks the service to mail a recovery link to email.
func (c *SDKClient) RecoverPassword(ctx context.Context, email string) error {
	req := RecoverPasswordRequest{Email: email}
	return c.doJSON(ctx, http.MethodPost, "/v1/accounts/recovery", "", req, nil, http.StatusAccepted)
}

// ConsumeRecoveryLink follows a password recovery link.
func (c *SDKClient) ConsumeRecoveryLink(ctx context.Context, email, token string) (string, error) {
	return c.getText(ctx, "/pass_recover/"+url.PathEscape(email)+"/"+url.PathEscape(token))
}

// Activate follows an account activation link.
func (c *SDKClient) Activate(ctx context.Context, accountID uint32, token string) (string, error) {
	id := strconv.FormatUint(uint64(accountID), 10)
	return c.getText(ctx, "/activation/"+id+"/"+url.PathEscape(token))
}
