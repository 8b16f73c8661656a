// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
	"course-marketplace/internal/infra/logging"
	"course-marketplace/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutUseCase turns a user's intent into pending payment requests.
// No payment gateway is involved; requests are claims for an admin to verify.
type CheckoutUseCase interface {
	// SubmitCart creates one request per cart course and clears the cart.
	SubmitCart(ctx context.Context, identity *model.Identity, contact *model.CustomerContact) ([]*model.PaymentRequest, error)
	// SubmitCourses creates one request per course, each at that course's own price.
	SubmitCourses(ctx context.Context, identity *model.Identity, courseIDs []string, contact *model.CustomerContact) ([]*model.PaymentRequest, error)
	// SubmitMembership creates a single membership request at the configured tier price.
	SubmitMembership(ctx context.Context, identity *model.Identity, tier model.Tier, contact *model.CustomerContact) (*model.PaymentRequest, error)
}

type CheckoutConfig struct {
	Prices     map[model.Tier]int64
	RateLimit  int
	RateWindow time.Duration
	LockTTL    time.Duration
}

type checkoutUC struct {
	tm           repository.TransactionManager
	requests     repository.PaymentRequestRepository
	ledger       LedgerUseCase
	catalog      adapter.CatalogProvider
	entitlements EntitlementUseCase
	grants       repository.EntitlementRepository
	carts        CartUseCase
	locker       adapter.Locker
	limiter      adapter.RateLimiter
	notifier     adapter.AdminNotifier
	events       adapter.EventPublisher

	cfg CheckoutConfig
	log *zerolog.Logger
}

type CheckoutDeps struct {
	TxManager    repository.TransactionManager
	Requests     repository.PaymentRequestRepository
	Ledger       LedgerUseCase
	Catalog      adapter.CatalogProvider
	Entitlements EntitlementUseCase
	// Grants is read inside the creating transaction to refuse courses granted
	// after the first ownership check.
	Grants       repository.EntitlementRepository
	Carts        CartUseCase
	Locker       adapter.Locker
	Limiter      adapter.RateLimiter
	Notifier     adapter.AdminNotifier
	Events       adapter.EventPublisher
}

func NewCheckoutUseCase(deps CheckoutDeps, cfg CheckoutConfig, logger *zerolog.Logger) *checkoutUC {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Second
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = time.Minute
	}
	return &checkoutUC{
		tm:           deps.TxManager,
		requests:     deps.Requests,
		ledger:       deps.Ledger,
		catalog:      deps.Catalog,
		entitlements: deps.Entitlements,
		grants:       deps.Grants,
		carts:        deps.Carts,
		locker:       deps.Locker,
		limiter:      deps.Limiter,
		notifier:     deps.Notifier,
		events:       deps.Events,
		cfg:          cfg,
		log:          logger,
	}
}

func checkoutLockKey(userID string) string { return "lock:checkout:" + userID }
func checkoutRateKey(userID string) string { return "rate_limit:checkout:" + userID }

func (u *checkoutUC) SubmitCart(ctx context.Context, identity *model.Identity, contact *model.CustomerContact) ([]*model.PaymentRequest, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.SubmitCart")()
	id, err := model.RequireIdentity(identity)
	if err != nil {
		return nil, err
	}

	var out []*model.PaymentRequest
	err = u.guarded(ctx, id.UserID, func(ctx context.Context) error {
		cart, err := u.carts.Get(ctx, &id)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return domain.ErrEmptyCart
		}
		ids := lo.Map(cart.Items, func(it model.CartItem, _ int) string { return it.CourseID })
		out, err = u.submitCourses(ctx, id, ids, contact)
		if err != nil {
			return err
		}
		// requests are committed; a stale cart is only cosmetic
		if err := u.carts.Clear(ctx, id.UserID); err != nil {
			logging.With(ctx, u.log).Warn().Err(err).Str("user_id", id.UserID).Msg("clear cart after checkout failed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *checkoutUC) SubmitCourses(ctx context.Context, identity *model.Identity, courseIDs []string, contact *model.CustomerContact) ([]*model.PaymentRequest, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.SubmitCourses")()
	id, err := model.RequireIdentity(identity)
	if err != nil {
		return nil, err
	}
	var out []*model.PaymentRequest
	err = u.guarded(ctx, id.UserID, func(ctx context.Context) error {
		out, err = u.submitCourses(ctx, id, courseIDs, contact)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (u *checkoutUC) SubmitMembership(ctx context.Context, identity *model.Identity, tier model.Tier, contact *model.CustomerContact) (*model.PaymentRequest, error) {
	defer logging.TraceDuration(u.log, "CheckoutUC.SubmitMembership")()
	id, err := model.RequireIdentity(identity)
	if err != nil {
		return nil, err
	}
	if !tier.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	price, ok := u.cfg.Prices[tier]
	if !ok || price <= 0 {
		return nil, domain.ErrInvalidArgument
	}

	var created *model.PaymentRequest
	err = u.guarded(ctx, id.UserID, func(ctx context.Context) error {
		req, err := model.NewMembershipRequest(id, tier, price, contact)
		if err != nil {
			return err
		}
		created, err = u.ledger.Create(ctx, repository.NoTX, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	u.afterCreate(ctx, []*model.PaymentRequest{created})
	return created, nil
}

// guarded runs fn under the per-user rate limit and checkout lock.
func (u *checkoutUC) guarded(ctx context.Context, userID string, fn func(ctx context.Context) error) error {
	if u.limiter != nil && u.cfg.RateLimit > 0 {
		ok, err := u.limiter.Allow(ctx, checkoutRateKey(userID), u.cfg.RateLimit, u.cfg.RateWindow)
		if err != nil {
			// limiter outage must not block purchases
			u.log.Warn().Err(err).Str("user_id", userID).Msg("checkout rate limiter unavailable")
		} else if !ok {
			metrics.IncCheckoutRateLimited()
			return domain.ErrRateLimited
		}
	}
	if u.locker == nil {
		return fn(ctx)
	}
	key := checkoutLockKey(userID)
	token, err := u.locker.TryLock(ctx, key, u.cfg.LockTTL)
	if errors.Is(err, domain.ErrLockHeld) {
		return domain.ErrCheckoutInFlight
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := u.locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			u.log.Warn().Err(err).Str("lock", key).Msg("release checkout lock failed")
		}
	}()
	return fn(ctx)
}

func (u *checkoutUC) submitCourses(ctx context.Context, id model.Identity, courseIDs []string, contact *model.CustomerContact) ([]*model.PaymentRequest, error) {
	courseIDs = lo.Uniq(lo.FilterMap(courseIDs, func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	}))
	if len(courseIDs) == 0 {
		return nil, domain.ErrEmptyCart
	}

	// price and eligibility are fixed at request time
	drafts := make([]*model.PaymentRequest, 0, len(courseIDs))
	for _, cid := range courseIDs {
		course, err := u.catalog.FindCourse(ctx, cid)
		if err != nil {
			return nil, err
		}
		if course.IsFree {
			return nil, domain.ErrCourseIsFree
		}
		owned, err := u.entitlements.Owns(ctx, id.UserID, course.ID)
		if err != nil {
			return nil, err
		}
		if owned {
			return nil, domain.ErrAlreadyOwned
		}
		req, err := model.NewCourseRequest(id, course.ID, course.Price, contact)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, req)
	}

	var created []*model.PaymentRequest
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		pending, err := u.requests.List(ctx, tx, model.RequestFilter{
			UserID: id.UserID,
			Status: model.RequestStatusPending,
			Kind:   model.RequestKindCourse,
		})
		if err != nil {
			return err
		}
		open := lo.SliceToMap(pending, func(r *model.PaymentRequest) (string, struct{}) { return r.CourseID, struct{}{} })
		owned := &model.EntitlementRecord{}
		if u.grants != nil {
			if owned, err = u.grants.FindByUser(ctx, tx, id.UserID); err != nil {
				return err
			}
		}
		created = make([]*model.PaymentRequest, 0, len(drafts))
		for _, d := range drafts {
			if _, dup := open[d.CourseID]; dup {
				return domain.ErrRequestPending
			}
			if owned.HasCourse(d.CourseID) {
				return domain.ErrAlreadyOwned
			}
			r, err := u.ledger.Create(ctx, tx, d)
			if err != nil {
				return err
			}
			created = append(created, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.afterCreate(ctx, created)
	return created, nil
}

// afterCreate records metrics and fans out best-effort notifications.
func (u *checkoutUC) afterCreate(ctx context.Context, reqs []*model.PaymentRequest) {
	if len(reqs) == 0 {
		return
	}
	log := logging.With(ctx, u.log)
	for kind, group := range lo.GroupBy(reqs, func(r *model.PaymentRequest) model.RequestKind { return r.Kind }) {
		metrics.IncRequestsCreated(kind, len(group))
	}
	log.Info().
		Str("user_id", reqs[0].UserID).
		Strs("payment_request_ids", lo.Map(reqs, func(r *model.PaymentRequest, _ int) string { return r.ID })).
		Int64("total", lo.SumBy(reqs, func(r *model.PaymentRequest) int64 { return r.Amount })).
		Msg("payment requests submitted")

	if u.notifier != nil {
		if err := u.notifier.NotifyPending(ctx, reqs); err != nil {
			metrics.IncAdminNotification("error")
			log.Warn().Err(err).Msg("notify admins about pending requests failed")
		} else {
			metrics.IncAdminNotification("ok")
		}
	}
	publishEvents(ctx, u.events, u.log, reqs, reqs[0].CreatedAt)
}
