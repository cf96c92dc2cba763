package authsdk_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aussiebroadwan/realmauth/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

func TestAPIErrorIs(t *testing.T) {
	decoded := &authsdk.APIError{StatusCode: 409, Code: authsdk.ErrorCodeDuplicateEmail, Description: "whatever"}

	require.ErrorIs(t, decoded, authsdk.ErrDuplicateEmail)
	require.NotErrorIs(t, decoded, authsdk.ErrDuplicateUsername)
	require.False(t, errors.Is(decoded, errors.New(authsdk.ErrorCodeDuplicateEmail)))
}

func TestAPIErrorWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	authsdk.ErrNotSignedIn.WriteError(rec)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body authsdk.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, authsdk.ErrorCodeNotSignedIn, body.Error)
}

func TestLoginDecodesSessionAndErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req authsdk.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.Password != "SECRET123" {
			authsdk.ErrInvalidLoginBadPassword.WriteError(w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(authsdk.LoginResponse{ID: 9, Username: "BOB", Token: "tok"})
	}))
	t.Cleanup(srv.Close)

	client := authsdk.NewSDKClient(srv.URL + "/")
	ctx := context.Background()

	session, err := client.Login(ctx, "bob", "SECRET123")
	require.NoError(t, err)
	require.Equal(t, uint32(9), session.AccountID())
	require.Equal(t, "tok", session.Token())

	_, err = client.Login(ctx, "bob", "nope")
	require.ErrorIs(t, err, authsdk.ErrInvalidLoginBadPassword)

	var apiErr *authsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestSessionSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.Equal(t, "/v1/accounts/9/username", r.URL.Path)
		_ = json.NewEncoder(w).Encode(authsdk.UsernameResponse{ID: 9, Username: "BOB"})
	}))
	t.Cleanup(srv.Close)

	name, err := authsdk.NewSDKClient(srv.URL).NewSession(9, "tok").Username(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, "BOB", name)
}

func TestLinkEndpointsReturnText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/activation/3/good" {
			_, _ = w.Write([]byte("User activated successfully"))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("Error 704"))
	}))
	t.Cleanup(srv.Close)

	client := authsdk.NewSDKClient(srv.URL)

	text, err := client.Activate(context.Background(), 3, "good")
	require.NoError(t, err)
	require.Equal(t, "User activated successfully", text)

	text, err = client.Activate(context.Background(), 3, "bad")
	require.Error(t, err)
	require.Equal(t, "Error 704", text)
}
