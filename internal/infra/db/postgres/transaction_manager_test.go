//go:build !integration

package postgres

import (
	"errors"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"course-marketplace/internal/domain"
)

func TestGetExecutor(t *testing.T) {
	if _, err := getExecutor(nil, nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument without pool or tx, got %v", err)
	}
	if _, err := getExecutor(nil, "not-a-tx"); !errors.Is(err, domain.ErrInvalidExecContext) {
		t.Errorf("expected ErrInvalidExecContext, got %v", err)
	}
	if inTx(nil) {
		t.Error("nil handle must not count as a transaction")
	}
}

func TestErrorMapping(t *testing.T) {
	if err := notFoundOr("find", pgx.ErrNoRows); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	raw := errors.New("conn reset")
	err := notFoundOr("find", raw)
	if !errors.Is(err, domain.ErrStorage) || !errors.Is(err, raw) {
		t.Errorf("expected storage error wrapping the driver error, got %v", err)
	}
	if err := storageErr("op", domain.ErrInvalidExecContext); errors.Is(err, domain.ErrStorage) {
		t.Error("executor misuse must not be reported as retryable")
	}
	if storageErr("op", nil) != nil {
		t.Error("nil must stay nil")
	}

	name, ok := uniqueViolation(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: onePendingCourseIdx})
	if !ok || name != onePendingCourseIdx {
		t.Errorf("expected unique violation on %s, got %q %v", onePendingCourseIdx, name, ok)
	}
	if _, ok := uniqueViolation(raw); ok {
		t.Error("plain errors are not unique violations")
	}
}
