package util

import "errors"

// Sentinel errors for common failure modes
var (
	// ErrNotFound indicates a required resource was not found
	ErrNotFound = errors.New("not found")

	// ErrDuplicateIdentifier indicates an insert would violate the
	// one-entry-per-identifier catalog invariant
	ErrDuplicateIdentifier = errors.New("duplicate identifier")

	// ErrNoArchiveRoot indicates archiving is reachable but no
	// retention root is configured
	ErrNoArchiveRoot = errors.New("no archive root configured")

	// ErrInvalidConfig indicates invalid configuration
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrVerifyFailed indicates a copied file did not match its source
	ErrVerifyFailed = errors.New("verification failed")
)
