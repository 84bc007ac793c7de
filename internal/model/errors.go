package model

import "errors"

var (
	// User store errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")

	// Credential errors
	ErrInvalidOrExpired   = errors.New("credential invalid or expired")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// External identity errors
	ErrNoEmailInProfile = errors.New("no email found in provider profile")
	ErrProviderDenied   = errors.New("provider authorization denied")
	ErrProviderExchange = errors.New("provider exchange failed")
	ErrStateMismatch    = errors.New("oauth state mismatch")
)
