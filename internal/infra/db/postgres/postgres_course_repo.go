package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.CourseRepository = (*PostgresCourseRepo)(nil)

type PostgresCourseRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresCourseRepo(pool *pgxpool.Pool) *PostgresCourseRepo {
	return &PostgresCourseRepo{pool: pool}
}

func (r *PostgresCourseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	const q = `
INSERT INTO courses (id, title, description, category, level, price, is_free, instructor, course_link, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id) DO UPDATE
  SET title       = EXCLUDED.title,
      description = EXCLUDED.description,
      category    = EXCLUDED.category,
      level       = EXCLUDED.level,
      price       = EXCLUDED.price,
      is_free     = EXCLUDED.is_free,
      instructor  = EXCLUDED.instructor,
      course_link = EXCLUDED.course_link;
`
	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.Title, c.Description, c.Category, string(c.Level), c.Price, c.IsFree, c.Instructor, c.CourseLink, c.CreatedAt,
	)
	if err != nil {
		return storageErr("save course", err)
	}
	return nil
}

func (r *PostgresCourseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	const q = `
SELECT id, title, description, category, level, price, is_free, instructor, course_link, created_at
  FROM courses
 WHERE id = $1;
`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	c, err := scanCourse(row)
	if err != nil {
		return nil, notFoundOr("find course", err)
	}
	return c, nil
}

// ListAll returns the catalog in display order.
func (r *PostgresCourseRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Course, error) {
	const q = `
SELECT id, title, description, category, level, price, is_free, instructor, course_link, created_at
  FROM courses
 ORDER BY created_at, id;
`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, storageErr("list courses", err)
	}
	defer rows.Close()
	var out []*model.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, storageErr("scan course", err)
		}
		out = append(out, c)
	}
	return out, storageErr("list courses", rows.Err())
}

func scanCourse(row pgx.Row) (*model.Course, error) {
	var (
		c     model.Course
		level string
	)
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &level, &c.Price, &c.IsFree, &c.Instructor, &c.CourseLink, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Level = model.CourseLevel(level)
	return &c, nil
}
