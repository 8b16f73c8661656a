package repository

import (
	"context"

	"course-marketplace/internal/domain/model"
)

// EntitlementRepository is the port for the per-user entitlement store.
// It is written only by the approval flow.
type EntitlementRepository interface {
	// FindByUser returns the stored record; users without grants get an empty record.
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.EntitlementRecord, error)
	// GrantCourse appends a grant. It reports false when the course was already granted.
	GrantCourse(ctx context.Context, tx Tx, g model.CourseGrant) (bool, error)
	// PutMembership replaces the user's membership.
	PutMembership(ctx context.Context, tx Tx, userID string, m *model.Membership) error
}

// EnrollmentRepository stores free-course enrollments.
type EnrollmentRepository interface {
	// Create reports false when the user is already enrolled.
	Create(ctx context.Context, tx Tx, e *model.Enrollment) (bool, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Enrollment, error)
	Exists(ctx context.Context, tx Tx, userID, courseID string) (bool, error)
	CountAll(ctx context.Context, tx Tx) (int, error)
}
