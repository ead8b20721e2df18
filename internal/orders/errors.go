package orders

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEmptyCart         = errors.New("no checked cart lines to check out")
	ErrCouponUnavailable = errors.New("coupon does not exist, belongs to another member, or was already used")
	ErrTooManyConflicts  = errors.New("checkout aborted after repeated transaction conflicts")
)

// ValidationError reports a missing or invalid request field. Raised before
// any query runs.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid checkout request: %s %s", e.Field, e.Reason)
}

// InsufficientStockError identifies the line that could not be reserved so
// the caller can surface current availability.
type InsufficientStockError struct {
	ProductID int64
	Size      string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d size %q: requested %d, available %d",
		e.ProductID, e.Size, e.Requested, e.Available)
}

// isSerializationFailure reports whether err is a conflict the orchestrator
// may retry: serialization_failure (40001) or deadlock_detected (40P01).
func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
