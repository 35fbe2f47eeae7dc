package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals empty or malformed caller input (text, content, query).
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfiguration signals missing credentials or collaborators.
	ErrConfiguration = errors.New("configuration error")
	// ErrDimensionMismatch signals an embedding whose length differs from the canonical dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrDocumentNotFound signals a missing document.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrExternalService is the parent of every embedding or store call failure.
	ErrExternalService = errors.New("external service error")
	// ErrOperatorNotConfigured signals that the store has no similarity operator installed.
	ErrOperatorNotConfigured = fmt.Errorf("similarity operator not configured: %w", ErrExternalService)
	// ErrTimeout signals an external call that exceeded its deadline. Retryable.
	ErrTimeout = fmt.Errorf("external call timed out: %w", ErrExternalService)
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = fmt.Errorf("embedding provider error: %w", ErrExternalService)
	// ErrRateLimited signals a provider rate limit hit. Retryable.
	ErrRateLimited = fmt.Errorf("rate limited: %w", ErrEmbeddingProvider)
	// ErrStoreUnavailable signals a document store transport or server failure.
	ErrStoreUnavailable = fmt.Errorf("document store error: %w", ErrExternalService)
	// ErrStoreContractViolation signals store output that breaks the similarity contract.
	ErrStoreContractViolation = fmt.Errorf("document store contract violation: %w", ErrExternalService)
)

// DimensionMismatchError wraps ErrDimensionMismatch with the observed and expected lengths.
type DimensionMismatchError struct {
	Got  int
	Want int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("%s: got %d, want %d", ErrDimensionMismatch.Error(), e.Got, e.Want)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// NewDimensionMismatch creates a dimension mismatch error.
func NewDimensionMismatch(got, want int) error {
	return &DimensionMismatchError{Got: got, Want: want}
}

// Kind is a stable, client-facing error classification.
type Kind string

// Error kinds, most specific first.
const (
	KindInvalidInput          Kind = "invalid_input"
	KindConfiguration         Kind = "configuration_error"
	KindDimensionMismatch     Kind = "dimension_mismatch"
	KindDocumentNotFound      Kind = "document_not_found"
	KindOperatorNotConfigured Kind = "operator_not_configured"
	KindTimeout               Kind = "timeout"
	KindRateLimited           Kind = "rate_limited"
	KindContractViolation     Kind = "store_contract_violation"
	KindEmbeddingProvider     Kind = "embedding_provider_error"
	KindStoreUnavailable      Kind = "store_unavailable"
	KindExternalService       Kind = "external_service_error"
	KindInternal              Kind = "internal_error"
)

var kindOrder = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidInput, KindInvalidInput},
	{ErrConfiguration, KindConfiguration},
	{ErrDimensionMismatch, KindDimensionMismatch},
	{ErrDocumentNotFound, KindDocumentNotFound},
	{ErrOperatorNotConfigured, KindOperatorNotConfigured},
	{ErrTimeout, KindTimeout},
	{ErrRateLimited, KindRateLimited},
	{ErrStoreContractViolation, KindContractViolation},
	{ErrEmbeddingProvider, KindEmbeddingProvider},
	{ErrStoreUnavailable, KindStoreUnavailable},
	{ErrExternalService, KindExternalService},
}

// KindOf classifies err. nil yields "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kindOrder {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsRetryable reports whether err is a transient infrastructure failure.
// Input, configuration, dimension and contract errors are never retryable,
// nor is a call the caller canceled.
func IsRetryable(err error) bool {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrTimeout), errors.Is(err, ErrRateLimited):
		return true
	case errors.Is(err, ErrOperatorNotConfigured), errors.Is(err, ErrStoreContractViolation):
		return false
	default:
		return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrEmbeddingProvider)
	}
}

// ClassifyDeadline rewrites context deadline errors as ErrTimeout, leaving others untouched.
func ClassifyDeadline(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
