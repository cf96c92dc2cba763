/*
Package authsdk provides a client SDK for the realmauth account service.

# Overview

The service manages game accounts whose credentials live in the AzerothCore
auth database. The SDK exposes anonymous operations on SDKClient and
signed-in operations on Session:

	client := authsdk.NewSDKClient("https://auth.example.com")

	// Create an account (the invite code is issued by the realm operators)
	created, err := client.Register(ctx, authsdk.RegisterRequest{
		InviteCode: code,
		Username:   "bob",
		Password:   "secret123",
		Email:      "bob@example.com",
	})

	// Log in to obtain a session
	session, err := client.Login(ctx, "bob", "secret123")

	// Signed-in operations use the session token
	err = session.ChangePassword(ctx, "secret123", "hunter22")

# Errors

Every non-2xx JSON response is returned as an *APIError. Compare against the
predefined errors with errors.Is, which matches on the error code:

	if errors.Is(err, authsdk.ErrDuplicateUsername) {
		// pick another name
	}

# Email links

The activation and password recovery links mailed to players answer in
plain text. ConsumeRecoveryLink and Activate return that text unchanged
together with an error for non-2xx responses.
*/
package authsdk
