// File: internal/usecase/ledger_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
	"course-marketplace/internal/infra/logging"
)

// Compile-time check
var _ LedgerUseCase = (*ledgerUC)(nil)

// LedgerUseCase is the system of record for payment requests. Only status and
// decision time change after creation, and only pending -> approved|rejected.
type LedgerUseCase interface {
	// Create assigns id, creation time and pending status, then persists r.
	Create(ctx context.Context, tx repository.Tx, r *model.PaymentRequest) (*model.PaymentRequest, error)
	// SetStatus moves a pending request to a terminal status.
	// Fails with ErrNotFound for unknown ids and ErrInvalidTransition otherwise.
	SetStatus(ctx context.Context, tx repository.Tx, id string, status model.RequestStatus) (*model.PaymentRequest, error)
	Get(ctx context.Context, id string) (*model.PaymentRequest, error)
	ListByUser(ctx context.Context, userID string) ([]*model.PaymentRequest, error)
	ListPending(ctx context.Context) ([]*model.PaymentRequest, error)
	List(ctx context.Context, filter model.RequestFilter) ([]*model.PaymentRequest, error)
}

type ledgerUC struct {
	requests repository.PaymentRequestRepository
	now      func() time.Time
	log      *zerolog.Logger
}

func NewLedgerUseCase(requests repository.PaymentRequestRepository, logger *zerolog.Logger) *ledgerUC {
	return &ledgerUC{requests: requests, now: time.Now, log: logger}
}

// WithClock replaces the time source. Intended for tests and tooling.
func (l *ledgerUC) WithClock(now func() time.Time) *ledgerUC {
	l.now = now
	return l
}

func (l *ledgerUC) Create(ctx context.Context, tx repository.Tx, r *model.PaymentRequest) (*model.PaymentRequest, error) {
	defer logging.TraceDuration(l.log, "LedgerUC.Create")()
	if r == nil {
		return nil, domain.ErrInvalidArgument
	}
	cp := *r
	cp.ID = ulid.Make().String()
	cp.Status = model.RequestStatusPending
	cp.CreatedAt = l.now().UTC()
	cp.DecidedAt = nil
	if err := cp.Validate(); err != nil {
		return nil, err
	}
	if err := l.requests.Create(ctx, tx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

func (l *ledgerUC) SetStatus(ctx context.Context, tx repository.Tx, id string, status model.RequestStatus) (*model.PaymentRequest, error) {
	defer logging.TraceDuration(l.log, "LedgerUC.SetStatus")()
	cur, err := l.requests.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	next, err := cur.Decided(status, l.now().UTC())
	if err != nil {
		return nil, err
	}
	ok, err := l.requests.UpdateStatusIfPending(ctx, tx, id, status, *next.DecidedAt)
	if err != nil {
		return nil, err
	}
	if !ok {
		// another writer decided it between our read and the update
		return nil, domain.ErrInvalidTransition
	}
	return next, nil
}

func (l *ledgerUC) Get(ctx context.Context, id string) (*model.PaymentRequest, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return l.requests.FindByID(ctx, repository.NoTX, id)
}

func (l *ledgerUC) ListByUser(ctx context.Context, userID string) ([]*model.PaymentRequest, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return l.requests.List(ctx, repository.NoTX, model.RequestFilter{UserID: userID})
}

func (l *ledgerUC) ListPending(ctx context.Context) ([]*model.PaymentRequest, error) {
	return l.requests.List(ctx, repository.NoTX, model.RequestFilter{Status: model.RequestStatusPending})
}

func (l *ledgerUC) List(ctx context.Context, filter model.RequestFilter) ([]*model.PaymentRequest, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if filter.Limit < 0 {
		return nil, domain.ErrInvalidArgument
	}
	return l.requests.List(ctx, repository.NoTX, filter)
}

// isDecided reports whether err means the request already left pending.
func isDecided(err error) bool {
	return errors.Is(err, domain.ErrInvalidTransition)
}
