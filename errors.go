package corpusdex

import "github.com/kailas-cloud/corpusdex/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidInput           = domain.ErrInvalidInput
	ErrConfiguration          = domain.ErrConfiguration
	ErrDimensionMismatch      = domain.ErrDimensionMismatch
	ErrDocumentNotFound       = domain.ErrDocumentNotFound
	ErrExternalService        = domain.ErrExternalService
	ErrOperatorNotConfigured  = domain.ErrOperatorNotConfigured
	ErrTimeout                = domain.ErrTimeout
	ErrEmbeddingProvider      = domain.ErrEmbeddingProvider
	ErrRateLimited            = domain.ErrRateLimited
	ErrStoreUnavailable       = domain.ErrStoreUnavailable
	ErrStoreContractViolation = domain.ErrStoreContractViolation
)

// Kind is a stable error classification, for example "timeout".
type Kind = domain.Kind

// KindOf classifies err. nil yields "".
func KindOf(err error) Kind { return domain.KindOf(err) }

// IsRetryable reports whether err is a transient timeout, rate limit or transport failure.
func IsRetryable(err error) bool { return domain.IsRetryable(err) }
