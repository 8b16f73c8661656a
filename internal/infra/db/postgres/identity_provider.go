package postgres

import (
	"context"

	"github.com/rs/zerolog"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
)

var _ adapter.IdentityProvider = (*UserIdentityProvider)(nil)

// UserIdentityProvider mirrors memberships onto the users table.
type UserIdentityProvider struct {
	users repository.UserRepository
	log   *zerolog.Logger
}

func NewUserIdentityProvider(users repository.UserRepository, logger *zerolog.Logger) *UserIdentityProvider {
	l := logger.With().Str("component", "IdentityProvider").Logger()
	return &UserIdentityProvider{users: users, log: &l}
}

// WriteMembership updates the mirror. A user the auth store has never seen is skipped;
// the entitlement store stays authoritative.
func (p *UserIdentityProvider) WriteMembership(ctx context.Context, tx repository.Tx, userID string, m *model.Membership) error {
	ok, err := p.users.UpdateMembership(ctx, tx, userID, m)
	if err != nil {
		return err
	}
	if !ok {
		p.log.Debug().Str("user_id", userID).Msg("no user row to mirror membership onto")
	}
	return nil
}
