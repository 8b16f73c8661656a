// File: internal/usecase/enrollment_uc.go
package usecase

import (
	"context"
	"time"

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
var _ EnrollmentUseCase = (*enrollmentUC)(nil)

// EnrollmentUseCase grants free courses immediately, with no review step.
type EnrollmentUseCase interface {
	Enroll(ctx context.Context, identity *model.Identity, courseID string) (*model.Enrollment, error)
	EnrolledCourseIDs(ctx context.Context, userID string) ([]string, error)
	IsEnrolled(ctx context.Context, userID, courseID string) (bool, error)
}

type enrollmentUC struct {
	enrollments repository.EnrollmentRepository
	catalog     adapter.CatalogProvider
	log         *zerolog.Logger
}

func NewEnrollmentUseCase(enrollments repository.EnrollmentRepository, catalog adapter.CatalogProvider, logger *zerolog.Logger) *enrollmentUC {
	return &enrollmentUC{enrollments: enrollments, catalog: catalog, log: logger}
}

func (u *enrollmentUC) Enroll(ctx context.Context, identity *model.Identity, courseID string) (*model.Enrollment, error) {
	defer logging.TraceDuration(u.log, "EnrollmentUC.Enroll")()
	id, err := model.RequireIdentity(identity)
	if err != nil {
		return nil, err
	}
	course, err := u.catalog.FindCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.IsFree {
		return nil, domain.ErrCourseNotFree
	}

	e := &model.Enrollment{UserID: id.UserID, CourseID: course.ID, EnrolledAt: time.Now().UTC()}
	created, err := u.enrollments.Create(ctx, repository.NoTX, e)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, domain.ErrAlreadyEnrolled
	}
	metrics.IncFreeEnrollment()
	logging.With(ctx, u.log).Info().Str("user_id", id.UserID).Str("course_id", course.ID).Msg("enrolled in free course")
	return e, nil
}

func (u *enrollmentUC) EnrolledCourseIDs(ctx context.Context, userID string) ([]string, error) {
	list, err := u.enrollments.ListByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	return lo.Map(list, func(e *model.Enrollment, _ int) string { return e.CourseID }), nil
}

func (u *enrollmentUC) IsEnrolled(ctx context.Context, userID, courseID string) (bool, error) {
	return u.enrollments.Exists(ctx, repository.NoTX, userID, courseID)
}
