// Package common defines shared constants and sentinel errors used across
// the taskkeeper server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors surfaced to transport layers.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorConflict     = errors.New("username taken")
	ErrorValidation   = errors.New("validation error")

	// Token verification errors. They are distinct for diagnostics only;
	// services collapse all of them into ErrorUnauthorized.
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
)
