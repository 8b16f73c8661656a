//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// fakeClock is a settable time source shared by the use cases under test.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{t: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// =============================
// Shared in-memory state
// =============================

// memStore backs every in-memory repository so MockTxManager can roll all of
// them back together.
type memStore struct {
	mu          sync.RWMutex
	requests    map[string]*model.PaymentRequest
	grants      map[string][]model.CourseGrant
	memberships map[string]*model.Membership
	enrollments map[string][]*model.Enrollment
	users       map[string]*model.User
}

type memSnapshot struct {
	requests    map[string]model.PaymentRequest
	grants      map[string][]model.CourseGrant
	memberships map[string]model.Membership
	enrollments map[string][]*model.Enrollment
	users       map[string]model.User
}

func newMemStore() *memStore {
	return &memStore{
		requests:    make(map[string]*model.PaymentRequest),
		grants:      make(map[string][]model.CourseGrant),
		memberships: make(map[string]*model.Membership),
		enrollments: make(map[string][]*model.Enrollment),
		users:       make(map[string]*model.User),
	}
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := memSnapshot{
		requests:    make(map[string]model.PaymentRequest, len(s.requests)),
		grants:      make(map[string][]model.CourseGrant, len(s.grants)),
		memberships: make(map[string]model.Membership, len(s.memberships)),
		enrollments: make(map[string][]*model.Enrollment, len(s.enrollments)),
		users:       make(map[string]model.User, len(s.users)),
	}
	for k, v := range s.requests {
		snap.requests[k] = *v
	}
	for k, v := range s.grants {
		snap.grants[k] = append([]model.CourseGrant(nil), v...)
	}
	for k, v := range s.memberships {
		snap.memberships[k] = *v
	}
	for k, v := range s.enrollments {
		snap.enrollments[k] = append([]*model.Enrollment(nil), v...)
	}
	for k, v := range s.users {
		snap.users[k] = *v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = make(map[string]*model.PaymentRequest, len(snap.requests))
	for k, v := range snap.requests {
		v := v
		s.requests[k] = &v
	}
	s.grants = snap.grants
	s.memberships = make(map[string]*model.Membership, len(snap.memberships))
	for k, v := range snap.memberships {
		v := v
		s.memberships[k] = &v
	}
	s.enrollments = snap.enrollments
	s.users = make(map[string]*model.User, len(snap.users))
	for k, v := range snap.users {
		v := v
		s.users[k] = &v
	}
}

// =============================
// Transaction manager
// =============================

type mockTx struct{ id string }

type MockTxManager struct {
	store *memStore
	txMu  sync.Mutex // serializes transactions the way row locks would

	mu        sync.Mutex
	Commits   int
	Rollbacks int

	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager(store *memStore) *MockTxManager {
	return &MockTxManager{store: store}
}

// WithTx runs fn serialized with other transactions and restores the store
// when fn fails.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.store.snapshot()
	if err := fn(ctx, &mockTx{id: uuid.NewString()}); err != nil {
		m.store.restore(snap)
		m.mu.Lock()
		m.Rollbacks++
		m.mu.Unlock()
		return err
	}
	m.mu.Lock()
	m.Commits++
	m.mu.Unlock()
	return nil
}

// =============================
// Repositories
// =============================

// ---- Payment requests ----

type MockRequestRepo struct {
	store *memStore

	CreateFunc                func(ctx context.Context, tx repository.Tx, r *model.PaymentRequest) error
	UpdateStatusIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.RequestStatus, decidedAt time.Time) (bool, error)
	ListErr                   error
}

var _ repository.PaymentRequestRepository = (*MockRequestRepo)(nil)

func NewMockRequestRepo(store *memStore) *MockRequestRepo { return &MockRequestRepo{store: store} }

func (r *MockRequestRepo) Create(ctx context.Context, tx repository.Tx, req *model.PaymentRequest) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, req)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.requests[req.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *req
	r.store.requests[req.ID] = &cp
	return nil
}

func (r *MockRequestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	req, ok := r.store.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (r *MockRequestRepo) List(ctx context.Context, tx repository.Tx, f model.RequestFilter) ([]*model.PaymentRequest, error) {
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*model.PaymentRequest
	for _, req := range r.store.requests {
		if f.UserID != "" && req.UserID != f.UserID {
			continue
		}
		if f.Status != "" && req.Status != f.Status {
			continue
		}
		if f.Kind != "" && req.Kind != f.Kind {
			continue
		}
		cp := *req
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MockRequestRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.RequestStatus, decidedAt time.Time) (bool, error) {
	if r.UpdateStatusIfPendingFunc != nil {
		return r.UpdateStatusIfPendingFunc(ctx, tx, id, status, decidedAt)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	req, ok := r.store.requests[id]
	if !ok || req.Status != model.RequestStatusPending {
		return false, nil
	}
	req.Status = status
	at := decidedAt
	req.DecidedAt = &at
	return true, nil
}

func (r *MockRequestRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.RequestStatus]int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make(map[model.RequestStatus]int)
	for _, req := range r.store.requests {
		out[req.Status]++
	}
	return out, nil
}

func (r *MockRequestRepo) SumApprovedByKind(ctx context.Context, tx repository.Tx, since time.Time) (map[model.RequestKind]int64, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make(map[model.RequestKind]int64)
	for _, req := range r.store.requests {
		if req.Status != model.RequestStatusApproved || req.DecidedAt == nil || req.DecidedAt.Before(since) {
			continue
		}
		out[req.Kind] += req.Amount
	}
	return out, nil
}

// ---- Entitlements ----

type MockEntitlementRepo struct {
	store *memStore

	GrantCourseErr   error
	PutMembershipErr error
	FindErr          error
}

var _ repository.EntitlementRepository = (*MockEntitlementRepo)(nil)

func NewMockEntitlementRepo(store *memStore) *MockEntitlementRepo {
	return &MockEntitlementRepo{store: store}
}

func (r *MockEntitlementRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.EntitlementRecord, error) {
	if r.FindErr != nil {
		return nil, r.FindErr
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	rec := model.NewEntitlementRecord(userID)
	rec.Grants = append([]model.CourseGrant(nil), r.store.grants[userID]...)
	if m, ok := r.store.memberships[userID]; ok {
		cp := *m
		rec.Membership = &cp
	}
	return rec, nil
}

func (r *MockEntitlementRepo) GrantCourse(ctx context.Context, tx repository.Tx, g model.CourseGrant) (bool, error) {
	if r.GrantCourseErr != nil {
		return false, r.GrantCourseErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, existing := range r.store.grants[g.UserID] {
		if existing.CourseID == g.CourseID {
			return false, nil
		}
	}
	r.store.grants[g.UserID] = append(r.store.grants[g.UserID], g)
	return true, nil
}

func (r *MockEntitlementRepo) PutMembership(ctx context.Context, tx repository.Tx, userID string, m *model.Membership) error {
	if r.PutMembershipErr != nil {
		return r.PutMembershipErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *m
	r.store.memberships[userID] = &cp
	return nil
}

// ---- Enrollments ----

type MockEnrollmentRepo struct {
	store *memStore
}

var _ repository.EnrollmentRepository = (*MockEnrollmentRepo)(nil)

func NewMockEnrollmentRepo(store *memStore) *MockEnrollmentRepo {
	return &MockEnrollmentRepo{store: store}
}

func (r *MockEnrollmentRepo) Create(ctx context.Context, tx repository.Tx, e *model.Enrollment) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, ex := range r.store.enrollments[e.UserID] {
		if ex.CourseID == e.CourseID {
			return false, nil
		}
	}
	cp := *e
	r.store.enrollments[e.UserID] = append(r.store.enrollments[e.UserID], &cp)
	return true, nil
}

func (r *MockEnrollmentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Enrollment, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	out := make([]*model.Enrollment, 0, len(r.store.enrollments[userID]))
	for _, e := range r.store.enrollments[userID] {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MockEnrollmentRepo) Exists(ctx context.Context, tx repository.Tx, userID, courseID string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, e := range r.store.enrollments[userID] {
		if e.CourseID == courseID {
			return true, nil
		}
	}
	return false, nil
}

func (r *MockEnrollmentRepo) CountAll(ctx context.Context, tx repository.Tx) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	n := 0
	for _, list := range r.store.enrollments {
		n += len(list)
	}
	return n, nil
}

// ---- Users ----

type MockUserRepo struct {
	store *memStore

	SaveErr error
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo(store *memStore) *MockUserRepo { return &MockUserRepo{store: store} }

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *u
	r.store.users[u.ID] = &cp
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MockUserRepo) UpdateMembership(ctx context.Context, tx repository.Tx, userID string, m *model.Membership) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	u, ok := r.store.users[userID]
	if !ok {
		return false, nil
	}
	cp := *m
	u.Membership = &cp
	return true, nil
}

func (r *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return len(r.store.users), nil
}

// ---- Courses (catalog) ----

type MockCatalog struct {
	mu      sync.RWMutex
	courses map[string]*model.Course
	order   []string

	ListErr error
}

var _ adapter.CatalogProvider = (*MockCatalog)(nil)
var _ repository.CourseRepository = (*MockCatalog)(nil)

func NewMockCatalog(courses ...*model.Course) *MockCatalog {
	c := &MockCatalog{courses: make(map[string]*model.Course)}
	for _, course := range courses {
		_ = c.Save(context.Background(), nil, course)
	}
	return c
}

func (c *MockCatalog) Save(ctx context.Context, tx repository.Tx, course *model.Course) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.courses[course.ID]; !ok {
		c.order = append(c.order, course.ID)
	}
	cp := *course
	c.courses[course.ID] = &cp
	return nil
}

func (c *MockCatalog) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	return c.FindCourse(ctx, id)
}

func (c *MockCatalog) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Course, error) {
	return c.ListCourses(ctx)
}

func (c *MockCatalog) FindCourse(ctx context.Context, id string) (*model.Course, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	course, ok := c.courses[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *course
	return &cp, nil
}

func (c *MockCatalog) ListCourses(ctx context.Context) ([]*model.Course, error) {
	if c.ListErr != nil {
		return nil, c.ListErr
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*model.Course, 0, len(c.order))
	for _, id := range c.order {
		cp := *c.courses[id]
		out = append(out, &cp)
	}
	return out, nil
}

// ---- Cart ----

type MockCartRepo struct {
	mu    sync.Mutex
	items map[string][]string

	ClearErr error
}

var _ repository.CartRepository = (*MockCartRepo)(nil)

func NewMockCartRepo() *MockCartRepo { return &MockCartRepo{items: make(map[string][]string)} }

func (r *MockCartRepo) Add(ctx context.Context, userID, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.items[userID] {
		if id == courseID {
			return nil
		}
	}
	r.items[userID] = append(r.items[userID], courseID)
	return nil
}

func (r *MockCartRepo) Remove(ctx context.Context, userID, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.items[userID][:0]
	for _, id := range r.items[userID] {
		if id != courseID {
			list = append(list, id)
		}
	}
	r.items[userID] = list
	return nil
}

func (r *MockCartRepo) List(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.items[userID]...), nil
}

func (r *MockCartRepo) Clear(ctx context.Context, userID string) error {
	if r.ClearErr != nil {
		return r.ClearErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, userID)
	return nil
}

// =============================
// Adapters
// =============================

// MockIdentity records membership mirror writes.
type MockIdentity struct {
	mu     sync.Mutex
	Writes map[string]model.Membership
	Err    error
}

var _ adapter.IdentityProvider = (*MockIdentity)(nil)

func NewMockIdentity() *MockIdentity { return &MockIdentity{Writes: make(map[string]model.Membership)} }

func (m *MockIdentity) WriteMembership(ctx context.Context, tx repository.Tx, userID string, ms *model.Membership) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes[userID] = *ms
	return nil
}

type MockPublisher struct {
	mu     sync.Mutex
	Events []model.RequestEvent
	Err    error
}

var _ adapter.EventPublisher = (*MockPublisher)(nil)

func (p *MockPublisher) Publish(ctx context.Context, events ...model.RequestEvent) error {
	if p.Err != nil {
		return p.Err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, events...)
	return nil
}

func (p *MockPublisher) Close() error { return nil }

func (p *MockPublisher) Types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, 0, len(p.Events))
	for _, e := range p.Events {
		out = append(out, e.Type)
	}
	return out
}

type MockNotifier struct {
	mu      sync.Mutex
	Batches [][]*model.PaymentRequest
	Err     error
}

var _ adapter.AdminNotifier = (*MockNotifier)(nil)

func (n *MockNotifier) NotifyPending(ctx context.Context, reqs []*model.PaymentRequest) error {
	if n.Err != nil {
		return n.Err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Batches = append(n.Batches, reqs)
	return nil
}

// ---- In-memory Locker ----

type MockLocker struct {
	mu   sync.Mutex
	held map[string]string
	Err  error
}

var _ adapter.Locker = (*MockLocker)(nil)

func NewMockLocker() *MockLocker { return &MockLocker{held: make(map[string]string)} }

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if l.Err != nil {
		return "", l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", domain.ErrLockHeld
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

// Hold simulates another holder of key.
func (l *MockLocker) Hold(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[key] = "other"
}

type MockLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	Err    error
}

var _ adapter.RateLimiter = (*MockLimiter)(nil)

func NewMockLimiter() *MockLimiter { return &MockLimiter{counts: make(map[string]int)} }

func (l *MockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l.Err != nil {
		return false, l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[key]++
	return l.counts[key] <= limit, nil
}
