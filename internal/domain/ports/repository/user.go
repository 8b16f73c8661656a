package repository

import (
	"context"

	"course-marketplace/internal/domain/model"
)

// -----------------------------
// Users
// -----------------------------

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	// UpdateMembership writes the mirrored membership view. It reports false when
	// no user row exists.
	UpdateMembership(ctx context.Context, tx Tx, userID string, m *model.Membership) (bool, error)
	CountUsers(ctx context.Context, tx Tx) (int, error)
}
