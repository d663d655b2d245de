package commonModels

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyDocument           = errors.New("document is empty")
	ErrNotExpectedDocumentType = errors.New("not an expected document type")
	ErrDimensionMismatch       = errors.New("vector dimension mismatch")
	ErrNotFound                = errors.New("not found")
	ErrUpstreamUnavailable     = errors.New("upstream unavailable")
	ErrSessionNotFound         = errors.New("session not found")
	ErrCollaboratorUnavailable = errors.New("collaborator not configured")
	ErrCorpusCapacityExhausted = errors.New("no evictable document left")
	ErrEmptyQuestion           = errors.New("question is empty")
)

// UpstreamError wraps a failed embedding or generation call.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() []error {
	return []error{ErrUpstreamUnavailable, e.Err}
}

func (e *UpstreamError) Retryable() bool { return true }

func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	var existing *UpstreamError
	if errors.As(err, &existing) {
		return err
	}
	return &UpstreamError{Service: service, Err: err}
}

// DimensionError reports the expected and received vector sizes.
type DimensionError struct {
	Expected int
	Got      int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

func (e *DimensionError) Unwrap() error { return ErrDimensionMismatch }

// IsRetryable reports whether the caller may retry the operation as is.
func IsRetryable(err error) bool {
	var r interface{ Retryable() bool }
	if errors.As(err, &r) {
		return r.Retryable()
	}
	return errors.Is(err, ErrUpstreamUnavailable)
}
