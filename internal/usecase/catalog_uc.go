package usecase

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/domain/ports/repository"
)

// The catalog use case is what checkout and entitlement queries read courses through.
var _ adapter.CatalogProvider = (*CatalogUseCase)(nil)

// CatalogUseCase manages purchasable courses.
type CatalogUseCase struct {
	repo repository.CourseRepository
	log  *zerolog.Logger
}

// NewCatalogUseCase constructs a CatalogUseCase.
func NewCatalogUseCase(repo repository.CourseRepository, logger *zerolog.Logger) *CatalogUseCase {
	return &CatalogUseCase{repo: repo, log: logger}
}

// Create saves or updates a course.
func (uc *CatalogUseCase) Create(ctx context.Context, c *model.Course) error {
	if c.IsZero() || strings.TrimSpace(c.Title) == "" {
		return domain.ErrInvalidArgument
	}
	if c.IsFree {
		c.Price = 0
	} else if c.Price <= 0 {
		return domain.ErrInvalidArgument
	}
	return uc.repo.Save(ctx, repository.NoTX, c)
}

// FindCourse retrieves a course by ID.
func (uc *CatalogUseCase) FindCourse(ctx context.Context, id string) (*model.Course, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return uc.repo.FindByID(ctx, repository.NoTX, id)
}

// ListCourses returns the catalog in display order.
func (uc *CatalogUseCase) ListCourses(ctx context.Context) ([]*model.Course, error) {
	return uc.repo.ListAll(ctx, repository.NoTX)
}

// Plans lists purchasable membership tiers with their configured prices.
func Plans(prices map[string]int64) []model.MembershipPlan {
	typed := make(map[model.Tier]int64, len(prices))
	for k, v := range prices {
		if t, err := model.ParseTier(strings.ToLower(k)); err == nil {
			typed[t] = v
		}
	}
	return model.NewMembershipPlans(typed)
}
