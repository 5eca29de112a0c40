package service

import "errors"

// Errors returned by the service layer. Store failures are wrapped and
// returned as-is; callers treat anything else as a service error.
var (
	ErrInvalidURL          = errors.New("invalid url")
	ErrInvalidCode         = errors.New("invalid code")
	ErrCodeConflict        = errors.New("code already exists")
	ErrNotFound            = errors.New("link not found")
	ErrAllocationExhausted = errors.New("no free code found within attempt budget")
)
