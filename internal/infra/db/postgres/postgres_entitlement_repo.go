package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
)

var _ repository.EntitlementRepository = (*entitlementRepo)(nil)

// entitlementRepo keeps course grants and the membership in separate tables;
// FindByUser assembles them into one record.
type entitlementRepo struct{ pool *pgxpool.Pool }

func NewEntitlementRepo(pool *pgxpool.Pool) *entitlementRepo {
	return &entitlementRepo{pool: pool}
}

func (r *entitlementRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.EntitlementRecord, error) {
	rec := model.NewEntitlementRecord(userID)

	const grantsSQL = `
SELECT course_id, payment_request_id, granted_at
  FROM course_grants
 WHERE user_id = $1
 ORDER BY granted_at, course_id;`
	rows, err := queryRows(ctx, r.pool, tx, grantsSQL, userID)
	if err != nil {
		return nil, storageErr("list course grants", err)
	}
	defer rows.Close()
	for rows.Next() {
		g := model.CourseGrant{UserID: userID}
		if err := rows.Scan(&g.CourseID, &g.PaymentRequestID, &g.GrantedAt); err != nil {
			return nil, storageErr("scan course grant", err)
		}
		rec.Grants = append(rec.Grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list course grants", err)
	}

	q := `
SELECT tier, activated_at, expires_at, active, payment_request_id
  FROM memberships
 WHERE user_id = $1`
	if inTx(tx) {
		q += " FOR UPDATE"
	}
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	var (
		m    model.Membership
		tier string
	)
	switch err := row.Scan(&tier, &m.ActivatedAt, &m.ExpiresAt, &m.Active, &m.PaymentRequestID); {
	case err == nil:
		m.Tier = model.Tier(tier)
		rec.Membership = &m
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, storageErr("find membership", err)
	}
	return rec, nil
}

func (r *entitlementRepo) GrantCourse(ctx context.Context, tx repository.Tx, g model.CourseGrant) (bool, error) {
	const q = `
INSERT INTO course_grants (user_id, course_id, payment_request_id, granted_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id, course_id) DO NOTHING;`
	if g.GrantedAt.IsZero() {
		g.GrantedAt = time.Now().UTC()
	}
	cmd, err := execSQL(ctx, r.pool, tx, q, g.UserID, g.CourseID, g.PaymentRequestID, g.GrantedAt)
	if err != nil {
		return false, storageErr("grant course", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *entitlementRepo) PutMembership(ctx context.Context, tx repository.Tx, userID string, m *model.Membership) error {
	if m == nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO memberships (user_id, tier, activated_at, expires_at, active, payment_request_id)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (user_id) DO UPDATE SET
  tier = EXCLUDED.tier,
  activated_at = EXCLUDED.activated_at,
  expires_at = EXCLUDED.expires_at,
  active = EXCLUDED.active,
  payment_request_id = EXCLUDED.payment_request_id;`
	_, err := execSQL(ctx, r.pool, tx, q, userID, string(m.Tier), m.ActivatedAt, m.ExpiresAt, m.Active, m.PaymentRequestID)
	if err != nil {
		return storageErr("put membership", err)
	}
	return nil
}
