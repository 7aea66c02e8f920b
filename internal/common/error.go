// Package common defines shared constants and sentinel errors used across
// the credvault server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Transient store failure; safe for the caller to retry.
	ErrorStoreUnavailable = errors.New("store unavailable")

	// Service-level errors (generic/internal flow control).
	ErrorInternal        = errors.New("internal error")
	ErrorUnauthorized    = errors.New("unauthorized")
	ErrorInvalidArgument = errors.New("invalid argument")

	// Credential and OTP verification errors.
	ErrorInvalidCredential = errors.New("invalid credential")
	ErrorOtpExpired        = errors.New("otp expired")

	// Crypto errors.
	ErrorDecryptionFailed = errors.New("decryption failed")
	ErrorConfiguration    = errors.New("configuration error")

	// Auth errors (invalid or malformed session token).
	ErrInvalidToken = errors.New("invalid token")
)
