//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/usecase"
)

func TestCheckoutUseCase_SubmitCourses(t *testing.T) {
	ctx := context.Background()

	t.Run("should create one pending request per course", func(t *testing.T) {
		// --- Arrange ---
		e := newEngine(t)

		// --- Act ---
		reqs, err := e.checkout.SubmitCourses(ctx, ident("u1"), []string{"course-1", "course-2", "course-1", " "}, testContact)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(reqs) != 2 {
			t.Fatalf("expected duplicates and blanks to collapse into 2 requests, got %d", len(reqs))
		}
		if reqs[0].Amount != 199 || reqs[1].Amount != 299 {
			t.Errorf("unexpected amounts %d, %d", reqs[0].Amount, reqs[1].Amount)
		}
		if reqs[0].UserEmail != "u1@example.com" || reqs[0].Contact.Phone != testContact.Phone {
			t.Errorf("expected identity and contact snapshot, got %+v", reqs[0])
		}
		if len(e.notifier.Batches) != 1 || len(e.notifier.Batches[0]) != 2 {
			t.Errorf("expected admins to be notified once about 2 requests, got %+v", e.notifier.Batches)
		}
		if got := e.events.Types(); len(got) != 2 || got[0] != model.EventRequestCreated {
			t.Errorf("expected 2 created events, got %v", got)
		}
	})

	t.Run("price is fixed at request time", func(t *testing.T) {
		e := newEngine(t)
		req := e.submitCourses(t, "u1", "course-3")[0]

		c, _ := e.catalog.FindCourse(ctx, "course-3")
		c.Price = 10_000
		_ = e.catalog.Save(ctx, nil, c)

		stored, _ := e.ledger.Get(ctx, req.ID)
		if stored.Amount != 399 {
			t.Fatalf("expected stored amount 399, got %d", stored.Amount)
		}
	})

	t.Run("rejects bad input", func(t *testing.T) {
		e := newEngine(t)
		owned := e.submitCourses(t, "u1", "course-4")[0]
		if _, err := e.approval.Approve(ctx, owned.ID); err != nil {
			t.Fatalf("Approve: %v", err)
		}
		_ = e.submitCourses(t, "u1", "course-5")

		tests := []struct {
			name    string
			ident   *model.Identity
			courses []string
			wantErr error
		}{
			{"no identity", nil, []string{"course-1"}, domain.ErrUnauthenticated},
			{"blank identity", &model.Identity{}, []string{"course-1"}, domain.ErrUnauthenticated},
			{"empty list", ident("u1"), nil, domain.ErrEmptyCart},
			{"unknown course", ident("u1"), []string{"course-404"}, domain.ErrNotFound},
			{"free course", ident("u1"), []string{"course-10"}, domain.ErrCourseIsFree},
			{"already owned", ident("u1"), []string{"course-4"}, domain.ErrAlreadyOwned},
			{"already pending", ident("u1"), []string{"course-6", "course-5"}, domain.ErrRequestPending},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := e.checkout.SubmitCourses(ctx, tt.ident, tt.courses, testContact)
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			})
		}

		// the failed multi-course submission must not leave course-6 behind
		pending, _ := e.ledger.List(ctx, model.RequestFilter{UserID: "u1", Status: model.RequestStatusPending})
		for _, r := range pending {
			if r.CourseID == "course-6" {
				t.Fatal("partial submission was committed")
			}
		}
	})

	t.Run("notifier and publisher failures do not fail checkout", func(t *testing.T) {
		e := newEngine(t)
		e.notifier.Err = errors.New("telegram down")
		e.events.Err = errors.New("kafka down")
		if _, err := e.checkout.SubmitCourses(ctx, ident("u1"), []string{"course-1"}, nil); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
	})
}

func TestCheckoutUseCase_SubmitCart(t *testing.T) {
	ctx := context.Background()

	t.Run("empty cart", func(t *testing.T) {
		e := newEngine(t)
		if _, err := e.checkout.SubmitCart(ctx, ident("u1"), testContact); !errors.Is(err, domain.ErrEmptyCart) {
			t.Fatalf("expected ErrEmptyCart, got %v", err)
		}
	})

	t.Run("checkout in flight", func(t *testing.T) {
		e := newEngine(t)
		_, _ = e.cart.Add(ctx, ident("u1"), "course-1")
		e.locker.Hold("lock:checkout:u1")

		if _, err := e.checkout.SubmitCart(ctx, ident("u1"), testContact); !errors.Is(err, domain.ErrCheckoutInFlight) {
			t.Fatalf("expected ErrCheckoutInFlight, got %v", err)
		}
		if all, _ := e.ledger.List(ctx, model.RequestFilter{}); len(all) != 0 {
			t.Fatalf("expected no requests, got %d", len(all))
		}
	})

	t.Run("clear failure keeps the created requests", func(t *testing.T) {
		e := newEngine(t)
		_, _ = e.cart.Add(ctx, ident("u1"), "course-1")
		e.carts.ClearErr = errors.New("redis down")

		reqs, err := e.checkout.SubmitCart(ctx, ident("u1"), testContact)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(reqs) != 1 {
			t.Fatalf("expected 1 request, got %d", len(reqs))
		}
	})

	t.Run("storage failure keeps the cart", func(t *testing.T) {
		e := newEngine(t)
		_, _ = e.cart.Add(ctx, ident("u1"), "course-1")
		e.requests.ListErr = domain.StorageError("list requests", errors.New("timeout"))

		if _, err := e.checkout.SubmitCart(ctx, ident("u1"), testContact); !errors.Is(err, domain.ErrStorage) {
			t.Fatalf("expected ErrStorage, got %v", err)
		}
		cart, _ := e.cart.Get(ctx, ident("u1"))
		if len(cart.Items) != 1 {
			t.Fatalf("expected cart to survive a failed checkout, got %+v", cart.Items)
		}
	})
}

func TestCheckoutUseCase_SubmitMembership(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a single request at the configured price", func(t *testing.T) {
		e := newEngine(t)
		req, err := e.checkout.SubmitMembership(ctx, ident("u1"), model.TierYearly, testContact)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if req.Kind != model.RequestKindMembership || req.Tier != model.TierYearly || req.Amount != 8999 || req.CourseID != "" {
			t.Fatalf("unexpected request %+v", req)
		}
		if all, _ := e.ledger.List(ctx, model.RequestFilter{}); len(all) != 1 {
			t.Fatalf("expected exactly one request, got %d", len(all))
		}
	})

	t.Run("unknown tier", func(t *testing.T) {
		e := newEngine(t)
		if _, err := e.checkout.SubmitMembership(ctx, ident("u1"), model.Tier("daily"), nil); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		e := newEngine(t)
		if _, err := e.checkout.SubmitMembership(ctx, nil, model.TierWeekly, nil); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Fatalf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestCheckoutUseCase_RateLimit(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	uc := usecase.NewCheckoutUseCase(usecase.CheckoutDeps{
		TxManager:    e.tm,
		Requests:     e.requests,
		Ledger:       e.ledger,
		Catalog:      e.catalog,
		Entitlements: e.entitlement,
		Carts:        e.cart,
		Locker:       e.locker,
		Limiter:      e.limiter,
	}, usecase.CheckoutConfig{Prices: testPrices, RateLimit: 2, RateWindow: time.Minute}, newTestLogger())

	for i := 0; i < 2; i++ {
		if _, err := uc.SubmitMembership(ctx, ident("u1"), model.TierWeekly, nil); err != nil {
			t.Fatalf("submission #%d: %v", i, err)
		}
	}
	if _, err := uc.SubmitMembership(ctx, ident("u1"), model.TierWeekly, nil); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if _, err := uc.SubmitMembership(ctx, ident("u2"), model.TierWeekly, nil); err != nil {
		t.Fatalf("other users must not be limited: %v", err)
	}

	e.limiter.Err = errors.New("redis down")
	if _, err := uc.SubmitMembership(ctx, ident("u1"), model.TierWeekly, nil); err != nil {
		t.Fatalf("limiter outage must not block checkout: %v", err)
	}
}

// staleOwnership reports nothing as owned, like a read taken before a
// concurrent approval committed.
type staleOwnership struct {
	usecase.EntitlementUseCase
}

func (staleOwnership) Owns(ctx context.Context, userID, courseID string) (bool, error) {
	return false, nil
}

func TestCheckoutUseCase_GrantCommittedAfterOwnershipCheck(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	e := newEngine(t)
	first := e.submitCourses(t, "u1", "course-4")[0]
	if _, err := e.approval.Approve(ctx, first.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	uc := usecase.NewCheckoutUseCase(usecase.CheckoutDeps{
		TxManager:    e.tm,
		Requests:     e.requests,
		Ledger:       e.ledger,
		Catalog:      e.catalog,
		Entitlements: staleOwnership{e.entitlement},
		Grants:       e.ents,
		Carts:        e.cart,
	}, usecase.CheckoutConfig{Prices: testPrices}, newTestLogger())

	// --- Act ---
	_, err := uc.SubmitCourses(ctx, ident("u1"), []string{"course-4"}, nil)

	// --- Assert ---
	if !errors.Is(err, domain.ErrAlreadyOwned) {
		t.Fatalf("expected ErrAlreadyOwned, got %v", err)
	}
	reqs, err := e.ledger.ListByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(reqs) != 1 {
		t.Fatalf("expected no new request, got %d requests", len(reqs))
	}
}

func TestCheckoutUseCase_EventTimeFollowsClock(t *testing.T) {
	ctx := context.Background()
	e := newEngine(t)
	e.clock.Advance(72 * time.Hour)

	reqs, err := e.checkout.SubmitCourses(ctx, ident("u1"), []string{"course-4"}, nil)
	if err != nil {
		t.Fatalf("SubmitCourses: %v", err)
	}

	if len(e.events.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(e.events.Events))
	}
	got := e.events.Events[0].OccurredAt
	if !got.Equal(reqs[0].CreatedAt) || !got.Equal(e.clock.Now()) {
		t.Fatalf("expected event at %s, got %s", reqs[0].CreatedAt, got)
	}
}
