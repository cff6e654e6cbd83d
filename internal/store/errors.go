package store

import "errors"

var (
	// ErrNotFound is returned when a requested record is not found
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when an operation conflicts with existing data
	ErrConflict = errors.New("conflict")

	// ErrConcurrencyLimit is returned when creating an import would exceed
	// the concurrency cap for its site
	ErrConcurrencyLimit = errors.New("concurrent import limit reached")

	// ErrOrgConcurrencyLimit is returned when creating an import would exceed
	// the organization's plan-level concurrency cap
	ErrOrgConcurrencyLimit = errors.New("organization concurrent import limit reached")
)
