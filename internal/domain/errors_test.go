package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{fmt.Errorf("wrap: %w", ErrInvalidInput), KindInvalidInput},
		{ErrConfiguration, KindConfiguration},
		{NewDimensionMismatch(3, 1536), KindDimensionMismatch},
		{ErrOperatorNotConfigured, KindOperatorNotConfigured},
		{ErrTimeout, KindTimeout},
		{ErrRateLimited, KindRateLimited},
		{ErrStoreContractViolation, KindContractViolation},
		{ErrEmbeddingProvider, KindEmbeddingProvider},
		{ErrStoreUnavailable, KindStoreUnavailable},
		{ErrExternalService, KindExternalService},
		{errors.New("boom"), KindInternal},
	}
	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestExternalServiceHierarchy(t *testing.T) {
	for _, err := range []error{
		ErrOperatorNotConfigured, ErrTimeout, ErrEmbeddingProvider,
		ErrRateLimited, ErrStoreUnavailable, ErrStoreContractViolation,
	} {
		if !errors.Is(err, ErrExternalService) {
			t.Errorf("%v must be an ErrExternalService", err)
		}
	}
	if errors.Is(ErrInvalidInput, ErrExternalService) {
		t.Error("ErrInvalidInput must not be external")
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []error{ErrTimeout, ErrRateLimited, ErrStoreUnavailable, ErrEmbeddingProvider}
	for _, err := range retryable {
		if !IsRetryable(fmt.Errorf("op: %w", err)) {
			t.Errorf("expected %v retryable", err)
		}
	}
	permanent := []error{
		nil, ErrInvalidInput, ErrConfiguration, NewDimensionMismatch(1, 2),
		ErrOperatorNotConfigured, ErrStoreContractViolation, errors.New("x"),
		fmt.Errorf("%w: %w", ErrEmbeddingProvider, context.Canceled),
	}
	for _, err := range permanent {
		if IsRetryable(err) {
			t.Errorf("expected %v not retryable", err)
		}
	}
}

func TestClassifyDeadline(t *testing.T) {
	err := ClassifyDeadline(fmt.Errorf("call: %w", context.DeadlineExceeded))
	if !errors.Is(err, ErrTimeout) || !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected timeout wrapping deadline, got %v", err)
	}
	other := errors.New("other")
	if ClassifyDeadline(other) != other {
		t.Error("non-deadline errors must pass through")
	}
	if ClassifyDeadline(nil) != nil {
		t.Error("nil must stay nil")
	}
}
