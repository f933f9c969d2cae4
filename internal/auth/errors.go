package auth

import "errors"

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrUserNotFound      = errors.New("user not found")
	ErrWrongPassword     = errors.New("wrong password")
	ErrTooManyAttempts   = errors.New("too many failed sign-in attempts")
	ErrEmailTaken        = errors.New("email already registered")

	ErrExpiredCode  = errors.New("password reset code expired")
	ErrInvalidCode  = errors.New("password reset code invalid")
	ErrWeakPassword = errors.New("password too weak")

	ErrSessionNotFound = errors.New("session not found")
)
