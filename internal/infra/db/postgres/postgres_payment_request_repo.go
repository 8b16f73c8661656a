package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
)

var _ repository.PaymentRequestRepository = (*paymentRequestRepo)(nil)

const (
	paymentRequestsTable = "payment_requests"
	onePendingCourseIdx  = "payment_requests_one_pending_course"
)

var requestColumns = []string{
	"id", "user_id", "user_email", "kind", "course_id", "tier",
	"amount", "status", "created_at", "decided_at", "contact",
}

type paymentRequestRepo struct{ pool *pgxpool.Pool }

func NewPaymentRequestRepo(pool *pgxpool.Pool) *paymentRequestRepo {
	return &paymentRequestRepo{pool: pool}
}

func psql() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

func (r *paymentRequestRepo) Create(ctx context.Context, tx repository.Tx, p *model.PaymentRequest) error {
	contact, err := encodeContact(p.Contact)
	if err != nil {
		return err
	}
	q, args, err := psql().Insert(paymentRequestsTable).
		Columns(requestColumns...).
		Values(p.ID, p.UserID, p.UserEmail, string(p.Kind), nullable(p.CourseID), nullable(string(p.Tier)),
			p.Amount, string(p.Status), p.CreatedAt, p.DecidedAt, contact).
		ToSql()
	if err != nil {
		return fmt.Errorf("build sql query: %w", err)
	}
	if _, err := execSQL(ctx, r.pool, tx, q, args...); err != nil {
		if name, ok := uniqueViolation(err); ok {
			if name == onePendingCourseIdx {
				return domain.ErrRequestPending
			}
			return domain.ErrAlreadyExists
		}
		return storageErr("create payment request", err)
	}
	return nil
}

func (r *paymentRequestRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentRequest, error) {
	b := psql().Select(requestColumns...).From(paymentRequestsTable).Where(sq.Eq{"id": id})
	if inTx(tx) {
		b = b.Suffix("FOR UPDATE")
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}
	row, err := pickRow(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	p, err := scanRequest(row)
	if err != nil {
		return nil, notFoundOr("find payment request", err)
	}
	return p, nil
}

func (r *paymentRequestRepo) List(ctx context.Context, tx repository.Tx, f model.RequestFilter) ([]*model.PaymentRequest, error) {
	b := psql().Select(requestColumns...).From(paymentRequestsTable).
		OrderBy("created_at DESC", "id DESC")
	if f.UserID != "" {
		b = b.Where(sq.Eq{"user_id": f.UserID})
	}
	if f.Status != "" {
		b = b.Where(sq.Eq{"status": string(f.Status)})
	}
	if f.Kind != "" {
		b = b.Where(sq.Eq{"kind": string(f.Kind)})
	}
	if f.Limit > 0 {
		b = b.Limit(uint64(f.Limit))
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, storageErr("list payment requests", err)
	}
	defer rows.Close()

	var out []*model.PaymentRequest
	for rows.Next() {
		p, err := scanRequest(rows)
		if err != nil {
			return nil, storageErr("scan payment request", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list payment requests", err)
	}
	return out, nil
}

// UpdateStatusIfPending atomically updates status only when the current status is 'pending'.
func (r *paymentRequestRepo) UpdateStatusIfPending(
	ctx context.Context, tx repository.Tx, id string, status model.RequestStatus, decidedAt time.Time,
) (bool, error) {
	const q = `
    UPDATE payment_requests
       SET status = $2,
           decided_at = $3
     WHERE id = $1
       AND status = 'pending'`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), decidedAt)
	if err != nil {
		return false, storageErr("update payment request status", err)
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRequestRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.RequestStatus]int, error) {
	q, args, err := psql().Select("status", "COUNT(*)").
		From(paymentRequestsTable).
		GroupBy("status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, storageErr("count payment requests", err)
	}
	defer rows.Close()

	out := map[model.RequestStatus]int{}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, storageErr("scan request count", err)
		}
		out[model.RequestStatus(status)] = n
	}
	return out, storageErr("count payment requests", rows.Err())
}

func (r *paymentRequestRepo) SumApprovedByKind(ctx context.Context, tx repository.Tx, since time.Time) (map[model.RequestKind]int64, error) {
	b := psql().Select("kind", "COALESCE(SUM(amount), 0)").
		From(paymentRequestsTable).
		Where(sq.Eq{"status": string(model.RequestStatusApproved)}).
		GroupBy("kind")
	if !since.IsZero() {
		b = b.Where(sq.GtOrEq{"decided_at": since})
	}
	q, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build sql query: %w", err)
	}
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, storageErr("sum approved revenue", err)
	}
	defer rows.Close()

	out := map[model.RequestKind]int64{}
	for rows.Next() {
		var (
			kind string
			sum  int64
		)
		if err := rows.Scan(&kind, &sum); err != nil {
			return nil, storageErr("scan revenue", err)
		}
		out[model.RequestKind(kind)] = sum
	}
	return out, storageErr("sum approved revenue", rows.Err())
}

func scanRequest(row pgx.Row) (*model.PaymentRequest, error) {
	var (
		p              model.PaymentRequest
		kind, status   string
		courseID, tier *string
		contact        []byte
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.UserEmail, &kind, &courseID, &tier,
		&p.Amount, &status, &p.CreatedAt, &p.DecidedAt, &contact); err != nil {
		return nil, err
	}
	p.Kind = model.RequestKind(kind)
	p.Status = model.RequestStatus(status)
	p.CourseID = deref(courseID)
	p.Tier = model.Tier(deref(tier))
	if len(contact) > 0 {
		p.Contact = &model.CustomerContact{}
		if err := json.Unmarshal(contact, p.Contact); err != nil {
			return nil, fmt.Errorf("decode contact: %w", err)
		}
	}
	return &p, nil
}

func encodeContact(c *model.CustomerContact) ([]byte, error) {
	if c.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode contact: %w", err)
	}
	return b, nil
}
