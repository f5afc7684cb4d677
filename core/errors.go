package core

import "errors"

// Authentication Related Errors
var (
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrAuthInProgress     = errors.New("authentication already in progress")
)

// Validation errors (client input)
var (
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordMismatch = errors.New("Passwords do not match")
	ErrPasswordTooShort = errors.New("Password must be at least 3 characters")
	ErrInvalidEmail     = errors.New("invalid email format")
	ErrEmptyMessage     = errors.New("message is required")
	ErrVideoIDRequired  = errors.New("video id is required")
)

// Storage errors
var (
	ErrKeyNotFound     = errors.New("key not found in store")
	ErrSessionNotFound = errors.New("session not found")
)

// Client errors
var (
	ErrUnsuccessfulResponse = errors.New("response envelope reported failure")
	ErrMissingToken         = errors.New("missing bearer token")
	ErrResponseTooLarge     = errors.New("response too large")
)

// Config errors
var (
	ErrBaseURLRequired = errors.New("api base url is required")
	ErrInvalidBaseURL  = errors.New("api base url must be absolute http(s)")
	ErrStoreRequired   = errors.New("session store is required")
	ErrInvalidAuthMode = errors.New("auth mode must be demo or remote")
)
