package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/realmauth/internal/auth/service"
	"github.com/aussiebroadwan/realmauth/pkg/authsdk"
	"github.com/aussiebroadwan/realmauth/pkg/slogx"
)

var serviceErrors = []struct {
	err error
	api *authsdk.APIError
}{
	{service.ErrInvalidInviteCode, authsdk.ErrInvalidInviteCode},
	{service.ErrInvalidUsername, authsdk.ErrInvalidUsername},
	{service.ErrInvalidPassword, authsdk.ErrInvalidPassword},
	{service.ErrInvalidEmail, authsdk.ErrInvalidEmail},
	{service.ErrDuplicateUsername, authsdk.ErrDuplicateUsername},
	{service.ErrDuplicateEmail, authsdk.ErrDuplicateEmail},
	{service.ErrInvalidLoginIsEmail, authsdk.ErrInvalidLoginIsEmail},
	{service.ErrInvalidLoginBadUsername, authsdk.ErrInvalidLoginBadUsername},
	{service.ErrInvalidLoginBadPassword, authsdk.ErrInvalidLoginBadPassword},
	{service.ErrAccountLocked, authsdk.ErrAccountLocked},
	{service.ErrNotSignedIn, authsdk.ErrNotSignedIn},
	{service.ErrWrongOldPassword, authsdk.ErrWrongOldPassword},
	{service.ErrUserNotFound, authsdk.ErrUserNotFound},
}

// writeServiceError answers err as a JSON API error. Anything that is not a
// known rejection is logged and answered as a server error.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			m.api.WriteError(w)
			return
		}
	}

	slogx.FromContext(r.Context()).Error("request failed", slog.Any("err", err))
	authsdk.ErrServerError.WriteError(w)
}
