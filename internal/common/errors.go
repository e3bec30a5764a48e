// Package common defines sentinel errors and small helpers shared by the
// storage, auth and HTTP layers of MindCanvas. Callers should use errors.Is
// to match these values; concrete failures are wrapped with %w.
package common

import "errors"

var (
	// Storage-level errors.
	ErrIO         = errors.New("i/o error")
	ErrDecryption = errors.New("decryption failed")
	ErrParse      = errors.New("malformed json")
	ErrBackup     = errors.New("backup failed")

	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Validation errors.
	ErrValidation = errors.New("validation error")

	// Auth errors.
	ErrorUnauthorized = errors.New("unauthorized")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
)
