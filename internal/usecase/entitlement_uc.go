// File: internal/usecase/entitlement_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
)

// Compile-time check
var _ EntitlementUseCase = (*entitlementUC)(nil)

// EntitlementUseCase answers what a user can access right now. It is read-only.
// Membership activity is derived from ExpiresAt on every call; the stored
// Active flag is never trusted.
type EntitlementUseCase interface {
	PurchasedCourseIDs(ctx context.Context, userID string) ([]string, error)
	Grants(ctx context.Context, userID string) ([]model.CourseGrant, error)
	// Membership returns the stored membership with Active recomputed, or nil.
	Membership(ctx context.Context, userID string) (*model.Membership, error)
	HasActiveMembership(ctx context.Context, userID string) (bool, error)
	// AccessibleCourses filters all to what userID may open. Free courses are excluded.
	AccessibleCourses(ctx context.Context, userID string, all []*model.Course) ([]*model.Course, error)
	// MyCourses is AccessibleCourses over the live catalog plus enrolled free courses.
	MyCourses(ctx context.Context, userID string) ([]*model.Course, error)
	// Owns reports whether userID holds a permanent grant for courseID.
	// An active membership does not count.
	Owns(ctx context.Context, userID, courseID string) (bool, error)
}

type entitlementUC struct {
	entitlements repository.EntitlementRepository
	enrollments  repository.EnrollmentRepository
	catalog      adapter.CatalogProvider

	now func() time.Time
	log *zerolog.Logger
}

func NewEntitlementUseCase(
	entitlements repository.EntitlementRepository,
	enrollments repository.EnrollmentRepository,
	catalog adapter.CatalogProvider,
	logger *zerolog.Logger,
) *entitlementUC {
	return &entitlementUC{
		entitlements: entitlements,
		enrollments:  enrollments,
		catalog:      catalog,
		now:          time.Now,
		log:          logger,
	}
}

// WithClock replaces the time source used for expiry evaluation.
func (e *entitlementUC) WithClock(now func() time.Time) *entitlementUC {
	e.now = now
	return e
}

func (e *entitlementUC) record(ctx context.Context, userID string) (*model.EntitlementRecord, error) {
	rec, err := e.entitlements.FindByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = model.NewEntitlementRecord(userID)
	}
	return rec, nil
}

func (e *entitlementUC) PurchasedCourseIDs(ctx context.Context, userID string) ([]string, error) {
	rec, err := e.record(ctx, userID)
	if err != nil {
		return nil, err
	}
	return lo.Uniq(rec.CourseIDs()), nil
}

func (e *entitlementUC) Grants(ctx context.Context, userID string) ([]model.CourseGrant, error) {
	rec, err := e.record(ctx, userID)
	if err != nil {
		return nil, err
	}
	return rec.Grants, nil
}

func (e *entitlementUC) Membership(ctx context.Context, userID string) (*model.Membership, error) {
	rec, err := e.record(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rec.Membership == nil {
		return nil, nil
	}
	m := *rec.Membership
	m.Active = m.ActiveAt(e.now())
	return &m, nil
}

func (e *entitlementUC) HasActiveMembership(ctx context.Context, userID string) (bool, error) {
	rec, err := e.record(ctx, userID)
	if err != nil {
		return false, err
	}
	return rec.Membership.ActiveAt(e.now()), nil
}

func (e *entitlementUC) AccessibleCourses(ctx context.Context, userID string, all []*model.Course) ([]*model.Course, error) {
	rec, err := e.record(ctx, userID)
	if err != nil {
		return nil, err
	}
	return accessible(rec, all, e.now()), nil
}

func accessible(rec *model.EntitlementRecord, all []*model.Course, now time.Time) []*model.Course {
	if rec.Membership.ActiveAt(now) {
		return lo.Filter(all, func(c *model.Course, _ int) bool { return !c.IsFree })
	}
	owned := lo.SliceToMap(rec.CourseIDs(), func(id string) (string, struct{}) { return id, struct{}{} })
	return lo.Filter(all, func(c *model.Course, _ int) bool {
		_, ok := owned[c.ID]
		return ok && !c.IsFree
	})
}

func (e *entitlementUC) MyCourses(ctx context.Context, userID string) ([]*model.Course, error) {
	all, err := e.catalog.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	rec, err := e.record(ctx, userID)
	if err != nil {
		return nil, err
	}
	enrolled, err := e.enrollments.ListByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}

	paid := lo.SliceToMap(accessible(rec, all, e.now()), func(c *model.Course) (string, struct{}) { return c.ID, struct{}{} })
	free := lo.SliceToMap(enrolled, func(en *model.Enrollment) (string, struct{}) { return en.CourseID, struct{}{} })

	// catalog order
	return lo.Filter(all, func(c *model.Course, _ int) bool {
		if _, ok := paid[c.ID]; ok {
			return true
		}
		_, ok := free[c.ID]
		return ok && c.IsFree
	}), nil
}

func (e *entitlementUC) Owns(ctx context.Context, userID, courseID string) (bool, error) {
	rec, err := e.record(ctx, userID)
	if err != nil {
		return false, err
	}
	return rec.HasCourse(courseID), nil
}
