package usecase

import (
	"context"
	"errors"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
	"course-marketplace/internal/infra/logging"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

// UserUseCase keeps the local account record that the membership mirror is written to.
type UserUseCase interface {
	// RegisterOrFetch returns the user for identity, creating it on first sight.
	RegisterOrFetch(ctx context.Context, identity *model.Identity, name string) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
	Count(ctx context.Context) (int, error)
}

type userUC struct {
	users repository.UserRepository
	tm    repository.TransactionManager
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, logger *zerolog.Logger) *userUC {
	return &userUC{
		users: users,
		tm:    tm,
		log:   logger,
	}
}

func (u *userUC) RegisterOrFetch(ctx context.Context, identity *model.Identity, name string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.RegisterOrFetch")()
	id, err := model.RequireIdentity(identity)
	if err != nil {
		return nil, err
	}

	var user *model.User
	txOpts := pgx.TxOptions{IsoLevel: pgx.Serializable}
	err = u.tm.WithTx(ctx, txOpts, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByID(ctx, tx, id.UserID)
		switch {
		case err == nil:
			if id.Email != "" && usr.Email != id.Email {
				usr.Email = id.Email
				if err := u.users.Save(ctx, tx, usr); err != nil {
					return err
				}
			}
			user = usr
			return nil
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		email := id.Email
		if email == "" {
			email = id.UserID
		}
		nu, err := model.NewUser(id.UserID, email, name)
		if err != nil {
			return err
		}
		if err := u.users.Save(ctx, tx, nu); err != nil {
			return err
		}
		u.log.Info().Str("user_id", nu.ID).Msg("registered user")
		user = nu
		return nil
	})
	return user, err
}

func (u *userUC) Get(ctx context.Context, userID string) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Get")()
	return u.users.FindByID(ctx, repository.NoTX, userID)
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "UserUC.Count")()
	return u.users.CountUsers(ctx, repository.NoTX)
}
