package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*PostgresUserRepo)(nil)

type PostgresUserRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{pool: pool}
}

// Save upserts the account fields. The membership mirror is written only by UpdateMembership.
func (r *PostgresUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, email, name, is_admin, created_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email, name = EXCLUDED.name, is_admin = EXCLUDED.is_admin;
`
	if _, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Email, u.Name, u.IsAdmin, u.CreatedAt); err != nil {
		return storageErr("save user", err)
	}
	return nil
}

func (r *PostgresUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	q := `
SELECT id, email, name, is_admin, created_at,
       membership_tier, membership_activated_at, membership_expires_at, membership_active, membership_request_id
  FROM users WHERE id=$1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var (
		u                  model.User
		tier, requestID    *string
		activated, expires *time.Time
		active             bool
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.IsAdmin, &u.CreatedAt,
		&tier, &activated, &expires, &active, &requestID); err != nil {
		return nil, notFoundOr("find user", err)
	}
	if tier != nil && activated != nil && expires != nil {
		u.Membership = &model.Membership{
			Tier:             model.Tier(*tier),
			ActivatedAt:      *activated,
			ExpiresAt:        *expires,
			Active:           active,
			PaymentRequestID: deref(requestID),
		}
	}
	return &u, nil
}

func (r *PostgresUserRepo) UpdateMembership(ctx context.Context, tx repository.Tx, userID string, m *model.Membership) (bool, error) {
	const q = `
UPDATE users SET
  membership_tier = $2,
  membership_activated_at = $3,
  membership_expires_at = $4,
  membership_active = $5,
  membership_request_id = $6
WHERE id = $1;`
	var (
		tier, requestID    *string
		activated, expires *time.Time
		active             bool
	)
	if m != nil {
		tier, requestID = nullable(string(m.Tier)), nullable(m.PaymentRequestID)
		activated, expires = &m.ActivatedAt, &m.ExpiresAt
		active = m.Active
	}
	cmd, err := execSQL(ctx, r.pool, tx, q, userID, tier, activated, expires, active, requestID)
	if err != nil {
		return false, storageErr("update user membership", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *PostgresUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM users;`)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, storageErr("count users", err)
	}
	return n, nil
}
