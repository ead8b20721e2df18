package orders

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsSerializationFailure(t *testing.T) {
	t.Run("serialization_failure", func(t *testing.T) {
		if !isSerializationFailure(&pgconn.PgError{Code: "40001"}) {
			t.Fatal("40001 should be retryable")
		}
	})

	t.Run("deadlock_detected", func(t *testing.T) {
		if !isSerializationFailure(&pgconn.PgError{Code: "40P01"}) {
			t.Fatal("40P01 should be retryable")
		}
	})

	t.Run("wrapped", func(t *testing.T) {
		err := fmt.Errorf("reserve stock: %w", &pgconn.PgError{Code: "40001"})
		if !isSerializationFailure(err) {
			t.Fatal("wrapped conflict should be retryable")
		}
	})

	t.Run("unique violation is not retryable", func(t *testing.T) {
		if isSerializationFailure(&pgconn.PgError{Code: "23505"}) {
			t.Fatal("23505 must not be retried")
		}
	})

	t.Run("plain error", func(t *testing.T) {
		if isSerializationFailure(errors.New("boom")) {
			t.Fatal("plain errors must not be retried")
		}
	})
}

func TestInsufficientStockError(t *testing.T) {
	err := &InsufficientStockError{ProductID: 9, Size: "L", Requested: 2, Available: 1}
	want := `insufficient stock for product 9 size "L": requested 2, available 1`
	if err.Error() != want {
		t.Fatalf("got %q", err.Error())
	}
}
