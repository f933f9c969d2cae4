package handlers

import (
	"errors"
	"net/http"

	"github.com/harentsoaR/medadmin-api/internal/auth"
	"github.com/harentsoaR/medadmin-api/internal/services"
)

const (
	MsgInvalidCredential = "Invalid credentials. Please check your email and password."
	MsgUserNotFound      = "User not found."
	MsgWrongPassword     = "Incorrect password."
	MsgTooManyAttempts   = "Too many failed attempts. Please try again later."
	MsgSignInFailed      = "Could not sign in. Please try again."

	MsgResetExpired     = "The link has expired. Request a new one."
	MsgResetInvalid     = "The link is invalid or has already been used."
	MsgResetMissing     = "The reset link is invalid or has expired."
	MsgResetWeak        = "The password is too weak. Use at least 6 characters."
	MsgResetFailed      = "Could not reset the password."
	MsgPasswordMismatch = "Passwords do not match"
	MsgResetRequested   = "If an account exists for that email, a reset link has been sent."

	MsgAccountNotFound = "Account not found."
	MsgNotDoctor       = "Only doctor accounts can be verified or rejected."
	MsgNoChanges       = "No fields to update."
	MsgWriteFailed     = "Could not update the account. Please try again."
	MsgLoadFailed      = "Could not load accounts."
	MsgLogoutFailed    = "Could not sign out. Please try again."
)

// signInError maps credential store failures to the message shown on the
// login form. The form stays usable after every one of them.
func signInError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredential):
		return http.StatusUnauthorized, MsgInvalidCredential
	case errors.Is(err, auth.ErrUserNotFound):
		return http.StatusUnauthorized, MsgUserNotFound
	case errors.Is(err, auth.ErrWrongPassword):
		return http.StatusUnauthorized, MsgWrongPassword
	case errors.Is(err, auth.ErrTooManyAttempts):
		return http.StatusTooManyRequests, MsgTooManyAttempts
	default:
		return http.StatusInternalServerError, MsgSignInFailed
	}
}

func resetError(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrExpiredCode):
		return http.StatusGone, MsgResetExpired
	case errors.Is(err, auth.ErrInvalidCode):
		return http.StatusBadRequest, MsgResetInvalid
	case errors.Is(err, auth.ErrWeakPassword):
		return http.StatusUnprocessableEntity, MsgResetWeak
	default:
		return http.StatusInternalServerError, MsgResetFailed
	}
}

func accountError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, MsgAccountNotFound
	case errors.Is(err, services.ErrNotDoctor):
		return http.StatusUnprocessableEntity, MsgNotDoctor
	case errors.Is(err, services.ErrNoChanges):
		return http.StatusBadRequest, MsgNoChanges
	default:
		return http.StatusInternalServerError, MsgWriteFailed
	}
}
