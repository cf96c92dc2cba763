package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/realmauth/internal/auth/service"
	"github.com/aussiebroadwan/realmauth/pkg/authsdk"
	"github.com/aussiebroadwan/realmauth/pkg/httpx"
)

type AccountsHandler struct {
	AccountService *service.AccountService
}

// HandleRegister godoc
//
//	@Summary		Register Account
//	@Description	Create a game account. Requires the realm's invite code.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.RegisterRequest		true	"invite code, username, password, email"
//	@Success		201		{object}	authsdk.RegisterResponse	"id, token"
//	@Failure		400		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Failure		403		{object}	authsdk.ErrorResponse		"invalid invite code"
//	@Failure		409		{object}	authsdk.ErrorResponse		"duplicate username or email"
//	@Failure		500		{object}	authsdk.ErrorResponse		"error, error_description"
//	@Router			/v1/accounts [post].
func (h *AccountsHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	res, err := h.AccountService.Register(r.Context(), service.RegisterInput{
		InviteCode: req.InviteCode,
		Username:   req.Username,
		Password:   req.Password,
		Email:      req.Email,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authsdk.RegisterResponse{ID: res.ID, Token: res.Token})
}

// HandleLogin godoc
//
//	@Summary		Login
//	@Description	Check a username and password and issue a 30 day session token.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			body	body		authsdk.LoginRequest	true	"username, password"
//	@Success		200		{object}	authsdk.LoginResponse	"id, username, email, access_level, token"
//	@Failure		401		{object}	authsdk.ErrorResponse	"invalid login"
//	@Failure		403		{object}	authsdk.ErrorResponse	"account awaiting activation"
//	@Failure		500		{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/accounts/login [post].
func (h *AccountsHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req authsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	res, err := h.AccountService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.LoginResponse{
		ID:          res.ID,
		Username:    res.Username,
		Email:       res.Email,
		AccessLevel: uint8(res.AccessLevel),
		Token:       res.Token,
	})
}

// HandleRecoverPassword godoc
//
//	@Summary		Request Password Recovery
//	@Description	Mail a password recovery link to the account registered with the given email.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Param			body	body	authsdk.RecoverPasswordRequest	true	"email"
//	@Success		202
//	@Failure		400	{object}	authsdk.ErrorResponse	"unknown email"
//	@Failure		500	{object}	authsdk.ErrorResponse	"error, error_description"
//	@Router			/v1/accounts/recovery [post].
func (h *AccountsHandler) HandleRecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.RecoverPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	if err := h.AccountService.RecoverPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleChangePassword godoc
//
//	@Summary		Change Password
//	@Description	Replace the signed-in account's password.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body	authsdk.ChangePasswordRequest	true	"old and new password"
//	@Success		204
//	@Failure		400	{object}	authsdk.ErrorResponse	"invalid or wrong password"
//	@Failure		401	{object}	authsdk.ErrorResponse	"not signed in"
//	@Failure		404	{object}	authsdk.ErrorResponse	"account not found"
//	@Router			/v1/accounts/me/password [post].
func (h *AccountsHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ChangePasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	accountID := httpx.AccountIDFromContext(r.Context())
	if err := h.AccountService.ChangePassword(r.Context(), accountID, req.OldPassword, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleChangeEmail godoc
//
//	@Summary		Change Email
//	@Description	Move the signed-in account to a new email. The account is locked until the new address is confirmed.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body	authsdk.ChangeEmailRequest	true	"new email"
//	@Success		202
//	@Failure		400	{object}	authsdk.ErrorResponse	"invalid email"
//	@Failure		401	{object}	authsdk.ErrorResponse	"not signed in"
//	@Failure		409	{object}	authsdk.ErrorResponse	"email already registered"
//	@Router			/v1/accounts/me/email [post].
func (h *AccountsHandler) HandleChangeEmail(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ChangeEmailRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	accountID := httpx.AccountIDFromContext(r.Context())
	if err := h.AccountService.ChangeEmail(r.Context(), accountID, req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleResendConfirmation godoc
//
//	@Summary		Resend Confirmation
//	@Description	Mail a fresh activation link for the signed-in account to the given email.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body	authsdk.ResendConfirmationRequest	true	"email"
//	@Success		202
//	@Failure		400	{object}	authsdk.ErrorResponse	"invalid email"
//	@Failure		401	{object}	authsdk.ErrorResponse	"not signed in"
//	@Failure		404	{object}	authsdk.ErrorResponse	"account not found"
//	@Router			/v1/accounts/me/confirmation [post].
func (h *AccountsHandler) HandleResendConfirmation(w http.ResponseWriter, r *http.Request) {
	var req authsdk.ResendConfirmationRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		authsdk.ErrInvalidRequest.WriteError(w)
		return
	}

	accountID := httpx.AccountIDFromContext(r.Context())
	if err := h.AccountService.ResendConfirmation(r.Context(), accountID, req.Email); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleUsername godoc
//
//	@Summary		Get Username
//	@Description	Return the username of the signed-in account.
//	@Tags			Accounts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int							true	"account id"
//	@Success		200	{object}	authsdk.UsernameResponse	"id, username"
//	@Failure		401	{object}	authsdk.ErrorResponse		"not signed in"
//	@Failure		404	{object}	authsdk.ErrorResponse		"account not found"
//	@Router			/v1/accounts/{id}/username [get].
func (h *AccountsHandler) HandleUsername(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		authsdk.ErrUserNotFound.WriteError(w)
		return
	}

	callerID := httpx.AccountIDFromContext(r.Context())
	name, err := h.AccountService.Username(r.Context(), callerID, uint32(id))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.UsernameResponse{ID: uint32(id), Username: name})
}
