//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/usecase"
)

var coursePrices = []int64{199, 299, 399, 499, 599, 259, 359, 459, 559}

var testPrices = map[model.Tier]int64{
	model.TierWeekly:  299,
	model.TierMonthly: 999,
	model.TierYearly:  8999,
}

// demoCourses builds course-1..course-n; every 10th course is free.
func demoCourses(n int) []*model.Course {
	out := make([]*model.Course, 0, n)
	for i := 1; i <= n; i++ {
		free := i%10 == 0
		price := coursePrices[(i-1)%len(coursePrices)]
		c, err := model.NewCourse(fmt.Sprintf("course-%d", i), fmt.Sprintf("Course %d", i), "Programming", model.LevelBeginner, price, free)
		if err != nil {
			panic(err)
		}
		out = append(out, c)
	}
	return out
}

// engine wires every use case over shared in-memory state.
type engine struct {
	store    *memStore
	clock    *fakeClock
	tm       *MockTxManager
	requests *MockRequestRepo
	ents     *MockEntitlementRepo
	enrolls  *MockEnrollmentRepo
	users    *MockUserRepo
	catalog  *MockCatalog
	carts    *MockCartRepo
	identity *MockIdentity
	events   *MockPublisher
	notifier *MockNotifier
	locker   *MockLocker
	limiter  *MockLimiter

	ledger      usecase.LedgerUseCase
	approval    usecase.ApprovalUseCase
	entitlement usecase.EntitlementUseCase
	cart        usecase.CartUseCase
	checkout    usecase.CheckoutUseCase
	enrollment  usecase.EnrollmentUseCase
	stats       usecase.StatsUseCase
	user        usecase.UserUseCase
}

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) *engine {
	t.Helper()
	store := newMemStore()
	e := &engine{
		store:    store,
		clock:    newFakeClock(t0),
		tm:       NewMockTxManager(store),
		requests: NewMockRequestRepo(store),
		ents:     NewMockEntitlementRepo(store),
		enrolls:  NewMockEnrollmentRepo(store),
		users:    NewMockUserRepo(store),
		catalog:  NewMockCatalog(demoCourses(10)...),
		carts:    NewMockCartRepo(),
		identity: NewMockIdentity(),
		events:   &MockPublisher{},
		notifier: &MockNotifier{},
		locker:   NewMockLocker(),
		limiter:  NewMockLimiter(),
	}
	log := newTestLogger()

	e.ledger = usecase.NewLedgerUseCase(e.requests, log).WithClock(e.clock.Now)
	e.approval = usecase.NewApprovalUseCase(e.tm, e.requests, e.ledger, e.ents, e.identity, e.events, log).WithClock(e.clock.Now)
	e.entitlement = usecase.NewEntitlementUseCase(e.ents, e.enrolls, e.catalog, log).WithClock(e.clock.Now)
	e.cart = usecase.NewCartUseCase(e.carts, e.catalog, e.entitlement, log)
	e.checkout = usecase.NewCheckoutUseCase(usecase.CheckoutDeps{
		TxManager:    e.tm,
		Requests:     e.requests,
		Ledger:       e.ledger,
		Catalog:      e.catalog,
		Entitlements: e.entitlement,
		Grants:       e.ents,
		Carts:        e.cart,
		Locker:       e.locker,
		Limiter:      e.limiter,
		Notifier:     e.notifier,
		Events:       e.events,
	}, usecase.CheckoutConfig{Prices: testPrices, RateLimit: 100, RateWindow: time.Minute}, log)
	e.enrollment = usecase.NewEnrollmentUseCase(e.enrolls, e.catalog, log)
	e.stats = usecase.NewStatsUseCase(e.users, e.requests, e.enrolls, log)
	e.user = usecase.NewUserUseCase(e.users, e.tm, log)
	return e
}

func ident(userID string) *model.Identity {
	return &model.Identity{UserID: userID, Email: userID + "@example.com"}
}

var testContact = &model.CustomerContact{
	FirstName: "Asha",
	LastName:  "Rao",
	Email:     "asha@example.com",
	Phone:     "+91 98765 43210",
	Address:   "12 MG Road, Pune",
}

// submitCourses is a test shortcut that fails the test on error.
func (e *engine) submitCourses(t *testing.T, userID string, ids ...string) []*model.PaymentRequest {
	t.Helper()
	reqs, err := e.checkout.SubmitCourses(context.Background(), ident(userID), ids, testContact)
	if err != nil {
		t.Fatalf("SubmitCourses(%v) failed: %v", ids, err)
	}
	return reqs
}

func (e *engine) submitMembership(t *testing.T, userID string, tier model.Tier) *model.PaymentRequest {
	t.Helper()
	req, err := e.checkout.SubmitMembership(context.Background(), ident(userID), tier, testContact)
	if err != nil {
		t.Fatalf("SubmitMembership(%s) failed: %v", tier, err)
	}
	return req
}
