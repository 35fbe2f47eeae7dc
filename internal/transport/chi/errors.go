package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/corpusdex/internal/domain"
	logpkg "github.com/kailas-cloud/corpusdex/internal/logger"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// errorHandlers are checked in order; children of ErrExternalService come before their parent.
var errorHandlers = []errorHandler{
	invalidInputHandler,
	sentinelHandler(domain.ErrConfiguration, http.StatusServiceUnavailable),
	sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound),
	sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadGateway),
	sentinelHandler(domain.ErrOperatorNotConfigured, http.StatusServiceUnavailable),
	sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout),
	sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests),
	sentinelHandler(domain.ErrStoreContractViolation, http.StatusBadGateway),
	sentinelHandler(domain.ErrEmbeddingProvider, http.StatusBadGateway),
	sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable),
	sentinelHandler(domain.ErrExternalService, http.StatusBadGateway),
}

// clientSentinels are the messages that may reach clients, most specific first.
var clientSentinels = []error{
	domain.ErrConfiguration,
	domain.ErrDocumentNotFound,
	domain.ErrDimensionMismatch,
	domain.ErrOperatorNotConfigured,
	domain.ErrTimeout,
	domain.ErrRateLimited,
	domain.ErrStoreContractViolation,
	domain.ErrEmbeddingProvider,
	domain.ErrStoreUnavailable,
	domain.ErrExternalService,
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code domain.Kind, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    string(code),
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation errors are built from caller input and are returned whole.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidInput) {
		return err.Error()
	}
	for _, s := range clientSentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, domain.KindOf(err), msg)
		return true
	}
}

func invalidInputHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInvalidInput) {
		return false
	}
	writeError(w, http.StatusBadRequest, domain.KindInvalidInput, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.OrContext(r.Context(), s.logger)
	log.Warn("domain error", zap.String("kind", string(domain.KindOf(err))), zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, domain.KindInternal, "internal error")
}

// itemError renders a per-item failure for batch responses.
func itemError(err error) *ErrorResponse {
	if err == nil {
		return nil
	}
	return &ErrorResponse{Code: string(domain.KindOf(err)), Message: safeDomainMessage(err)}
}
