package repository

import (
	"context"

	"course-marketplace/internal/domain/model"
)

// CourseRepository is the port for catalog persistence.
type CourseRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Course) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Course, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Course, error)
}
