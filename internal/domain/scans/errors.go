package scans

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is a user-correctable request problem (HTTP 400).
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream covers prediction, verification and dataset service failures.
	ErrUpstream = errors.New("upstream failure")
	// ErrPersistence covers store failures.
	ErrPersistence = errors.New("persistence failure")

	ErrNotFound     = errors.New("scan record not found")
	ErrDuplicateURL = errors.New("scan record already exists for url")
)

// ErrorCode classifies err for logs and the X-Error-Code header.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrUpstream):
		return "upstream_failure"
	case errors.Is(err, ErrPersistence), errors.Is(err, ErrDuplicateURL), errors.Is(err, ErrNotFound):
		return "persistence_failure"
	default:
		return "internal"
	}
}

// Wrap tags err with kind unless it already carries it.
func Wrap(kind, err error) error {
	if err == nil || errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
