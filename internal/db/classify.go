package db

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/corpusdex/internal/domain"
)

// ToDomain maps a driver error onto the domain taxonomy, prefixed with op.
// Missing records and operators keep their own kinds, deadlines become
// domain.ErrTimeout and anything else unclassified is domain.ErrStoreUnavailable.
func ToDomain(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrRecordNotFound), errors.Is(err, ErrKeyNotFound):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrDocumentNotFound, err)
	case errors.Is(err, ErrOperatorNotFound):
		return fmt.Errorf("%s: %w: %w", op, domain.ErrOperatorNotConfigured, err)
	}
	err = domain.ClassifyDeadline(err)
	if domain.KindOf(err) == domain.KindInternal {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
