package domain

import "errors"

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Auth errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserInactive      = errors.New("user account is inactive")
	ErrTokenExpired      = errors.New("token expired")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrSessionRevoked    = errors.New("session revoked")
	ErrSessionNotFound   = errors.New("session not found")
)

// Order errors
var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrBookNotFound      = errors.New("book not found")
	ErrEmptyOrder        = errors.New("order has no items")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrClaimCodeMismatch = errors.New("claim code mismatch")
)
