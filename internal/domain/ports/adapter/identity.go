package adapter

import (
	"context"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
)

// IdentityProvider is the auth collaborator. The approval flow writes the
// user's mirrored membership through it inside the approval transaction; the
// entitlement store stays the source of truth.
type IdentityProvider interface {
	WriteMembership(ctx context.Context, tx repository.Tx, userID string, m *model.Membership) error
}

// CatalogProvider supplies purchasable courses. It is never mutated by checkout
// or approval.
type CatalogProvider interface {
	FindCourse(ctx context.Context, id string) (*model.Course, error)
	ListCourses(ctx context.Context) ([]*model.Course, error)
}
