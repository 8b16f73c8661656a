package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/infra/logging"
)

// PendingReminder re-announces requests that have waited for review longer
// than a threshold.
type PendingReminder struct {
	ledger   LedgerUseCase
	notifier adapter.AdminNotifier
	after    time.Duration

	now func() time.Time
	log *zerolog.Logger
}

func NewPendingReminder(ledger LedgerUseCase, notifier adapter.AdminNotifier, after time.Duration, logger *zerolog.Logger) *PendingReminder {
	if after <= 0 {
		after = 24 * time.Hour
	}
	return &PendingReminder{ledger: ledger, notifier: notifier, after: after, now: time.Now, log: logger}
}

// WithClock replaces the time source used to age requests.
func (p *PendingReminder) WithClock(now func() time.Time) *PendingReminder {
	p.now = now
	return p
}

// CheckAndNotify sends one digest of stale pending requests and returns how
// many it contained.
func (p *PendingReminder) CheckAndNotify(ctx context.Context) (int, error) {
	defer logging.TraceDuration(p.log, "PendingReminder.CheckAndNotify")()
	pending, err := p.ledger.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	cutoff := p.now().Add(-p.after)
	stale := lo.Filter(pending, func(r *model.PaymentRequest, _ int) bool {
		return !r.CreatedAt.After(cutoff)
	})
	if len(stale) == 0 {
		return 0, nil
	}
	if err := p.notifier.NotifyPending(ctx, stale); err != nil {
		return 0, err
	}
	return len(stale), nil
}
