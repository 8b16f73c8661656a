// File: internal/usecase/approval_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
	"course-marketplace/internal/infra/logging"
	"course-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ ApprovalUseCase = (*approvalUC)(nil)

// ApprovalUseCase is the only path out of pending. The entitlement effect and
// the status transition commit together or not at all.
//
// Both operations are idempotent: deciding a request that already left pending
// returns it unchanged with a nil error.
type ApprovalUseCase interface {
	Approve(ctx context.Context, requestID string) (*model.PaymentRequest, error)
	Reject(ctx context.Context, requestID string) (*model.PaymentRequest, error)
}

// errAlreadyDecided aborts the transaction when another writer decided the request first.
var errAlreadyDecided = errors.New("request decided concurrently")

type approvalUC struct {
	tm           repository.TransactionManager
	requests     repository.PaymentRequestRepository
	ledger       LedgerUseCase
	entitlements repository.EntitlementRepository
	identity     adapter.IdentityProvider
	events       adapter.EventPublisher

	now func() time.Time
	log *zerolog.Logger
}

func NewApprovalUseCase(
	tm repository.TransactionManager,
	requests repository.PaymentRequestRepository,
	ledger LedgerUseCase,
	entitlements repository.EntitlementRepository,
	identity adapter.IdentityProvider,
	events adapter.EventPublisher,
	logger *zerolog.Logger,
) *approvalUC {
	return &approvalUC{
		tm:           tm,
		requests:     requests,
		ledger:       ledger,
		entitlements: entitlements,
		identity:     identity,
		events:       events,
		now:          time.Now,
		log:          logger,
	}
}

// WithClock replaces the time source used for membership activation.
func (a *approvalUC) WithClock(now func() time.Time) *approvalUC {
	a.now = now
	return a
}

func (a *approvalUC) Approve(ctx context.Context, requestID string) (*model.PaymentRequest, error) {
	defer logging.TraceDuration(a.log, "ApprovalUC.Approve")()
	return a.decide(ctx, requestID, model.RequestStatusApproved)
}

func (a *approvalUC) Reject(ctx context.Context, requestID string) (*model.PaymentRequest, error) {
	defer logging.TraceDuration(a.log, "ApprovalUC.Reject")()
	return a.decide(ctx, requestID, model.RequestStatusRejected)
}

func (a *approvalUC) decide(ctx context.Context, requestID string, status model.RequestStatus) (*model.PaymentRequest, error) {
	if requestID == "" {
		return nil, domain.ErrNotFound
	}
	log := logging.With(logging.WithRequestID(ctx, requestID), a.log)

	var (
		decided *model.PaymentRequest
		current *model.PaymentRequest
	)
	err := a.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		// row lock: concurrent deciders of the same id queue here
		req, err := a.requests.FindByID(ctx, tx, requestID)
		if err != nil {
			return err
		}
		if !req.IsPending() {
			current = req
			return nil
		}

		if status == model.RequestStatusApproved {
			if err := a.grant(ctx, tx, req); err != nil {
				return err
			}
		}

		// ledger is written last so a failed grant never leaves an approved row
		decided, err = a.ledger.SetStatus(ctx, tx, req.ID, status)
		if isDecided(err) {
			return errAlreadyDecided
		}
		return err
	})

	switch {
	case errors.Is(err, errAlreadyDecided):
		current, err = a.ledger.Get(ctx, requestID)
		if err != nil {
			return nil, err
		}
	case err != nil:
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrAlreadyOwned) {
			log.Error().Err(err).Str("decision", string(status)).Msg("payment request decision failed")
		}
		return nil, err
	}

	if current != nil {
		metrics.IncRequestNoop(actionFor(status))
		log.Info().Str("status", string(current.Status)).Str("decision", string(status)).
			Msg("payment request already decided; ignoring")
		return current, nil
	}

	metrics.IncRequestDecision(decided.Kind, decided.Status)
	if decided.Status == model.RequestStatusApproved {
		metrics.AddApprovedRevenue(decided.Kind, decided.Amount)
	}
	log.Info().
		Str("user_id", decided.UserID).
		Str("kind", string(decided.Kind)).
		Str("status", string(decided.Status)).
		Int64("amount", decided.Amount).
		Msg("payment request decided")

	publishEvents(ctx, a.events, a.log, []*model.PaymentRequest{decided}, a.now())
	return decided, nil
}

// grant applies the entitlement side effect of approving req inside tx.
func (a *approvalUC) grant(ctx context.Context, tx repository.Tx, req *model.PaymentRequest) error {
	now := a.now().UTC()
	switch req.Kind {
	case model.RequestKindCourse:
		added, err := a.entitlements.GrantCourse(ctx, tx, model.CourseGrant{
			UserID:           req.UserID,
			CourseID:         req.CourseID,
			PaymentRequestID: req.ID,
			GrantedAt:        now,
		})
		if err != nil {
			return err
		}
		if !added {
			// each grant maps to exactly one approved request; this one stays pending
			a.log.Warn().Str("user_id", req.UserID).Str("course_id", req.CourseID).
				Str("payment_request_id", req.ID).Msg("course already granted by another request")
			return domain.ErrAlreadyOwned
		}
		return nil

	case model.RequestKindMembership:
		m, err := model.NewMembership(req.Tier, now, req.ID)
		if err != nil {
			return err
		}
		// replaces any prior membership; durations never stack
		if err := a.entitlements.PutMembership(ctx, tx, req.UserID, m); err != nil {
			return err
		}
		return a.identity.WriteMembership(ctx, tx, req.UserID, m)
	}
	return domain.ErrInvalidArgument
}

func actionFor(status model.RequestStatus) string {
	if status == model.RequestStatusApproved {
		return "approve"
	}
	return "reject"
}

// publishEvents emits lifecycle events without failing the caller.
func publishEvents(ctx context.Context, pub adapter.EventPublisher, log *zerolog.Logger, reqs []*model.PaymentRequest, at time.Time) {
	if pub == nil || len(reqs) == 0 {
		return
	}
	events := make([]model.RequestEvent, 0, len(reqs))
	for _, r := range reqs {
		events = append(events, model.EventFor(r, at.UTC()))
	}
	if err := pub.Publish(ctx, events...); err != nil {
		log.Warn().Err(err).Int("events", len(events)).Msg("publish payment request events failed")
	}
}
