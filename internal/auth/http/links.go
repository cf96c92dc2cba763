package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/realmauth/internal/auth/service"
	"github.com/aussiebroadwan/realmauth/pkg/httpx"
	"github.com/aussiebroadwan/realmauth/pkg/slogx"
)

// Plain text answers of the email links. Players see these in the browser,
// and existing tooling matches on them, so they never change.
const (
	TextPasswordSent       = "A new temporary password has been sent to your email"
	TextRecoveryNoAccount  = "Error 700"
	TextRecoveryNoRequest  = "Error 701"
	TextRecoveryMismatch   = "Error 702"
	TextActivated          = "User activated successfully"
	TextAlreadyActivated   = "Already activated!"
	TextActivationNotFound = "Error 703"
	TextActivationMismatch = "Error 704"
	TextInternalError      = "Internal error"
)

// LinksHandler serves the links mailed to players.
type LinksHandler struct {
	AccountService *service.AccountService
}

// HandleRecoveryLink godoc
//
//	@Summary		Password Recovery Link
//	@Description	Redeem a recovery link. A new temporary password is generated and mailed on every successful visit.
//	@Tags			Links
//	@Produce		plain
//	@Param			email	path		string	true	"account email"
//	@Param			token	path		string	true	"recovery token"
//	@Success		200		{string}	string	"A new temporary password has been sent to your email, or Error 700/701/702"
//	@Failure		500		{string}	string	"Internal error"
//	@Router			/pass_recover/{email}/{token} [get].
func (h *LinksHandler) HandleRecoveryLink(w http.ResponseWriter, r *http.Request) {
	err := h.AccountService.ConsumeRecoveryLink(r.Context(), r.PathValue("email"), r.PathValue("token"))
	switch {
	case err == nil:
		httpx.WriteText(w, http.StatusOK, TextPasswordSent)
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteText(w, http.StatusOK, TextRecoveryNoAccount)
	case errors.Is(err, service.ErrRecoveryNotRequested):
		httpx.WriteText(w, http.StatusOK, TextRecoveryNoRequest)
	case errors.Is(err, service.ErrTokenMismatch):
		httpx.WriteText(w, http.StatusOK, TextRecoveryMismatch)
	default:
		slogx.FromContext(r.Context()).Error("recovery link failed", slog.Any("err", err))
		httpx.WriteText(w, http.StatusInternalServerError, TextInternalError)
	}
}

// HandleActivationLink godoc
//
//	@Summary		Activation Link
//	@Description	Redeem an activation link and unlock the account.
//	@Tags			Links
//	@Produce		plain
//	@Param			id		path		int		true	"account id"
//	@Param			token	path		string	true	"activation token"
//	@Success		200		{string}	string	"User activated successfully, Already activated!, or Error 703/704"
//	@Failure		500		{string}	string	"Internal error"
//	@Router			/activation/{id}/{token} [get].
func (h *LinksHandler) HandleActivationLink(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		httpx.WriteText(w, http.StatusOK, TextActivationNotFound)
		return
	}

	err = h.AccountService.Activate(r.Context(), uint32(id), r.PathValue("token"))
	switch {
	case err == nil:
		httpx.WriteText(w, http.StatusOK, TextActivated)
	case errors.Is(err, service.ErrAlreadyActivated):
		httpx.WriteText(w, http.StatusOK, TextAlreadyActivated)
	case errors.Is(err, service.ErrActivationNotIssued), errors.Is(err, service.ErrUserNotFound):
		httpx.WriteText(w, http.StatusOK, TextActivationNotFound)
	case errors.Is(err, service.ErrTokenMismatch):
		httpx.WriteText(w, http.StatusOK, TextActivationMismatch)
	default:
		slogx.FromContext(r.Context()).Error("activation link failed", slog.Any("err", err))
		httpx.WriteText(w, http.StatusInternalServerError, TextInternalError)
	}
}
