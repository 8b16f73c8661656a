package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
)

var _ repository.EnrollmentRepository = (*enrollmentRepo)(nil)

type enrollmentRepo struct{ pool *pgxpool.Pool }

func NewEnrollmentRepo(pool *pgxpool.Pool) *enrollmentRepo {
	return &enrollmentRepo{pool: pool}
}

func (r *enrollmentRepo) Create(ctx context.Context, tx repository.Tx, e *model.Enrollment) (bool, error) {
	const q = `
INSERT INTO free_course_enrollments (user_id, course_id, enrolled_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, course_id) DO NOTHING;`
	cmd, err := execSQL(ctx, r.pool, tx, q, e.UserID, e.CourseID, e.EnrolledAt)
	if err != nil {
		return false, storageErr("create enrollment", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *enrollmentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Enrollment, error) {
	const q = `
SELECT user_id, course_id, enrolled_at
  FROM free_course_enrollments
 WHERE user_id = $1
 ORDER BY enrolled_at, course_id;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, storageErr("list enrollments", err)
	}
	defer rows.Close()

	var out []*model.Enrollment
	for rows.Next() {
		e := new(model.Enrollment)
		if err := rows.Scan(&e.UserID, &e.CourseID, &e.EnrolledAt); err != nil {
			return nil, storageErr("scan enrollment", err)
		}
		out = append(out, e)
	}
	return out, storageErr("list enrollments", rows.Err())
}

func (r *enrollmentRepo) Exists(ctx context.Context, tx repository.Tx, userID, courseID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM free_course_enrollments WHERE user_id = $1 AND course_id = $2);`
	row, err := pickRow(ctx, r.pool, tx, q, userID, courseID)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, storageErr("check enrollment", err)
	}
	return ok, nil
}

func (r *enrollmentRepo) CountAll(ctx context.Context, tx repository.Tx) (int, error) {
	const q = `SELECT COUNT(*) FROM free_course_enrollments;`
	row, err := pickRow(ctx, r.pool, tx, q)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, storageErr("count enrollments", err)
	}
	return n, nil
}
