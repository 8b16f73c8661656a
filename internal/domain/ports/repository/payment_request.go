package repository

import (
	"context"
	"time"

	"course-marketplace/internal/domain/model"
)

// -----------------------------
// Payment requests (ledger)
// -----------------------------

type PaymentRequestRepository interface {
	// Create inserts a new request. The id must be unused.
	Create(ctx context.Context, tx Tx, r *model.PaymentRequest) error
	// FindByID locks the row when tx is a transaction.
	FindByID(ctx context.Context, tx Tx, id string) (*model.PaymentRequest, error)
	// List returns requests matching filter, newest first.
	List(ctx context.Context, tx Tx, filter model.RequestFilter) ([]*model.PaymentRequest, error)
	// UpdateStatusIfPending atomically moves a pending request to status.
	// It reports false when the request was not pending.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.RequestStatus, decidedAt time.Time) (bool, error)

	// --- Statistics read-only methods ---
	CountByStatus(ctx context.Context, tx Tx) (map[model.RequestStatus]int, error)
	// SumApprovedByKind returns approved amounts per kind decided at or after since.
	SumApprovedByKind(ctx context.Context, tx Tx, since time.Time) (map[model.RequestKind]int64, error)
}
