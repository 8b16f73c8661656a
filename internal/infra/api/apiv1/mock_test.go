//go:build !integration

package apiv1_test

import (
	"context"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/usecase"
)

type memCatalog struct {
	courses []*model.Course
	err     error
}

func (m *memCatalog) FindCourse(ctx context.Context, id string) (*model.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, c := range m.courses {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCatalog) ListCourses(ctx context.Context) ([]*model.Course, error) {
	return m.courses, m.err
}

type mockUsers struct {
	usecase.UserUseCase
	registered []string
	err        error
}

func (m *mockUsers) RegisterOrFetch(ctx context.Context, identity *model.Identity, name string) (*model.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.registered = append(m.registered, identity.UserID)
	return &model.User{ID: identity.UserID, Email: identity.Email}, nil
}

type mockCart struct {
	usecase.CartUseCase
	AddFunc func(ctx context.Context, identity *model.Identity, courseID string) (*model.Cart, error)
	GetFunc func(ctx context.Context, identity *model.Identity) (*model.Cart, error)
}

func (m *mockCart) Add(ctx context.Context, identity *model.Identity, courseID string) (*model.Cart, error) {
	return m.AddFunc(ctx, identity, courseID)
}

func (m *mockCart) Get(ctx context.Context, identity *model.Identity) (*model.Cart, error) {
	return m.GetFunc(ctx, identity)
}

type mockCheckout struct {
	SubmitCartFunc       func(ctx context.Context, identity *model.Identity, contact *model.CustomerContact) ([]*model.PaymentRequest, error)
	SubmitCoursesFunc    func(ctx context.Context, identity *model.Identity, courseIDs []string, contact *model.CustomerContact) ([]*model.PaymentRequest, error)
	SubmitMembershipFunc func(ctx context.Context, identity *model.Identity, tier model.Tier, contact *model.CustomerContact) (*model.PaymentRequest, error)
}

func (m *mockCheckout) SubmitCart(ctx context.Context, identity *model.Identity, contact *model.CustomerContact) ([]*model.PaymentRequest, error) {
	return m.SubmitCartFunc(ctx, identity, contact)
}

func (m *mockCheckout) SubmitCourses(ctx context.Context, identity *model.Identity, courseIDs []string, contact *model.CustomerContact) ([]*model.PaymentRequest, error) {
	return m.SubmitCoursesFunc(ctx, identity, courseIDs, contact)
}

func (m *mockCheckout) SubmitMembership(ctx context.Context, identity *model.Identity, tier model.Tier, contact *model.CustomerContact) (*model.PaymentRequest, error) {
	return m.SubmitMembershipFunc(ctx, identity, tier, contact)
}

type mockLedger struct {
	usecase.LedgerUseCase
	requests   []*model.PaymentRequest
	lastFilter model.RequestFilter
}

func (m *mockLedger) ListByUser(ctx context.Context, userID string) ([]*model.PaymentRequest, error) {
	var out []*model.PaymentRequest
	for _, r := range m.requests {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockLedger) List(ctx context.Context, f model.RequestFilter) ([]*model.PaymentRequest, error) {
	m.lastFilter = f
	return m.requests, nil
}

type mockApproval struct {
	ApproveFunc func(ctx context.Context, id string) (*model.PaymentRequest, error)
	RejectFunc  func(ctx context.Context, id string) (*model.PaymentRequest, error)
}

func (m *mockApproval) Approve(ctx context.Context, id string) (*model.PaymentRequest, error) {
	return m.ApproveFunc(ctx, id)
}

func (m *mockApproval) Reject(ctx context.Context, id string) (*model.PaymentRequest, error) {
	return m.RejectFunc(ctx, id)
}

type mockEntitlements struct {
	usecase.EntitlementUseCase
	purchased  []string
	membership *model.Membership
	courses    []*model.Course
}

func (m *mockEntitlements) PurchasedCourseIDs(ctx context.Context, userID string) ([]string, error) {
	return m.purchased, nil
}

func (m *mockEntitlements) Membership(ctx context.Context, userID string) (*model.Membership, error) {
	return m.membership, nil
}

func (m *mockEntitlements) MyCourses(ctx context.Context, userID string) ([]*model.Course, error) {
	return m.courses, nil
}

type mockEnrollments struct {
	usecase.EnrollmentUseCase
	EnrollFunc func(ctx context.Context, identity *model.Identity, courseID string) (*model.Enrollment, error)
	enrolled   []string
}

func (m *mockEnrollments) Enroll(ctx context.Context, identity *model.Identity, courseID string) (*model.Enrollment, error) {
	return m.EnrollFunc(ctx, identity, courseID)
}

func (m *mockEnrollments) EnrolledCourseIDs(ctx context.Context, userID string) ([]string, error) {
	return m.enrolled, nil
}

type mockStats struct{ usecase.StatsUseCase }

func (mockStats) Totals(ctx context.Context) (*usecase.Stats, error) {
	return &usecase.Stats{
		Users:        4,
		Requests:     map[model.RequestStatus]int{model.RequestStatusPending: 1, model.RequestStatusApproved: 2},
		RevenueTotal: 1198,
	}, nil
}
